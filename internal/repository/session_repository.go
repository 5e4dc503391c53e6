package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists/validates login sessions (single 'token_hash'
// column). One row per issued access token; revoking or deleting the row
// kills the token before its JWT expiry.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row for a freshly issued token.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_sessions (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Validate returns the owning userID if a non-revoked, non-expired session
// exists for the hash. Any miss is reported as sql.ErrNoRows so callers
// treat revoked, expired and unknown tokens identically.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM user_sessions WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// RevokeByHash marks a session as revoked (logout).
func (r *SessionRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUserExcept revokes a user's active sessions while keeping one
// alive. A password change kills every other device but not the session
// that performed the change.
func (r *SessionRepo) RevokeAllForUserExcept(ctx context.Context, userID uint64, keepHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_sessions SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL AND token_hash <> ?",
		userID, keepHash)
	return err
}

// DeleteExpired removes rows whose expiry passed more than a day ago.
// Keeps the table from growing without bound; safe to run periodically.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_sessions WHERE expires_at < UTC_TIMESTAMP() - INTERVAL 1 DAY")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
