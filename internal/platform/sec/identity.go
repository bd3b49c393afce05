// Copyright (c) 2026 LumenPress. All rights reserved.
// Author: dev@lumenpress.dev

package sec

// Identity represents the authenticated caller resolved from a session cookie.
//
// # Why a separate type?
//
// Middleware and transport helpers need to know who the caller is without
// importing the auth domain package (which would create an import cycle).
// Identity carries exactly the fields needed for authorization decisions.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}
