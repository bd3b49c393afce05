// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package sec

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecureToken returns a hex-encoded token of byteLength random bytes.
//
// # Usage
//
// The resulting string is 2*byteLength characters long and safe for cookies,
// URLs, and database equality lookups. Session and password-reset tokens use
// 32 bytes (256 bits of entropy).
func GenerateSecureToken(byteLength int) (string, error) {
	raw := make([]byte, byteLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
