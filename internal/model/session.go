// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Session records who is signed in. It lives only in memory: there is no
// token and nothing is written to disk, so a restart always starts signed out.
type Session struct {
	Authenticated bool
	Username      string
}

// SignedIn returns an authenticated session for username.
func SignedIn(username string) Session {
	return Session{Authenticated: true, Username: username}
}
