package model

import "time"

// Session models an entry in the `user_sessions` table. Every issued access
// token is backed by exactly one session row keyed by the SHA-256 hash of
// the token value; the plain token is never stored. Deleting or revoking
// the row invalidates the token immediately, regardless of its JWT expiry.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the session.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp (mirrors the JWT exp claim).
//  RevokedAt – when the session was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type Session struct {
	ID        uint64     // user_sessions.id
	UserID    uint64     // user_sessions.user_id
	TokenHash string     // user_sessions.token_hash
	ExpiresAt time.Time  // user_sessions.expires_at
	RevokedAt *time.Time // user_sessions.revoked_at (nullable)
	CreatedAt time.Time  // user_sessions.created_at
}
