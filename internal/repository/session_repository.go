package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// SessionRepo persists login sessions.  Only the SHA-256 hash of the raw
// session token is stored.  Expiry is absolute per row and slides forward
// through Touch.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, token_hash, expires_at) VALUES (?,?,?,?)",
		s.ID, s.UserID, s.TokenHash, s.ExpiresAt.UTC())
	return err
}

// Get loads a session by id.  ErrSessionNotFound is returned when the row
// does not exist.
func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	var (
		s         model.Session
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM sessions WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.ExpiresAt, &revokedAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return model.Session{}, err
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}

// Touch pushes the expiry of a live session to until.  The token hash
// must match the one stored at login.  It returns ErrSessionNotFound when
// the session is missing, revoked or already expired, which forces the
// client to log in again.
func (r *SessionRepo) Touch(ctx context.Context, id, tokenHash string, now, until time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET expires_at=? WHERE id=? AND token_hash=? AND revoked_at IS NULL AND expires_at > ?",
		until.UTC(), id, tokenHash, now.UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Zero rows also means "matched but unchanged" when the new expiry
	// equals the stored one at DATETIME precision.
	var found string
	err = r.DB.QueryRowContext(ctx,
		"SELECT id FROM sessions WHERE id=? AND token_hash=? AND revoked_at IS NULL AND expires_at > ?",
		id, tokenHash, now.UTC()).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSessionNotFound
	}
	return err
}

// Revoke marks one session as revoked.
func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE id=? AND revoked_at IS NULL", id)
	return err
}

// RevokeAllForUser revokes all of a user's active sessions.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE sessions SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL", userID)
	return err
}

// PurgeAll deletes every session and returns how many were removed.
func (r *SessionRepo) PurgeAll(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpired deletes sessions that expired or were revoked before now.
func (r *SessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at <= ? OR revoked_at IS NOT NULL", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
