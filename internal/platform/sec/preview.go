// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PreviewClaims is the payload embedded inside a signed draft-preview token.
//
// Binding the post ID into the claims means a leaked preview link only ever
// exposes the one draft it was issued for.
type PreviewClaims struct {
	jwt.RegisteredClaims

	PostID string `json:"pid"`
}

// PreviewTokenService issues and verifies short-lived HS256 tokens that let
// an editor share an unpublished post without granting admin access.
type PreviewTokenService struct {
	secret []byte
	issuer string
}

// NewPreviewTokenService creates a new PreviewTokenService.
// The secret is the application-wide session secret from configuration.
func NewPreviewTokenService(secret, issuer string) *PreviewTokenService {
	return &PreviewTokenService{secret: []byte(secret), issuer: issuer}
}

// GeneratePreviewToken creates a signed token granting read access to one post.
func (service *PreviewTokenService) GeneratePreviewToken(postID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := PreviewClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   postID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		PostID: postID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign preview token: %w", err)
	}

	return signedToken, nil
}

// VerifyPreviewToken checks the signature and expiry of a preview token and
// returns the post ID it grants access to.
func (service *PreviewTokenService) VerifyPreviewToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PreviewClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return "", fmt.Errorf("sec: invalid preview token: %w", err)
	}

	claims, ok := token.Claims.(*PreviewClaims)
	if !ok || !token.Valid || claims.PostID == "" {
		return "", fmt.Errorf("sec: invalid preview token claims")
	}

	return claims.PostID, nil
}
