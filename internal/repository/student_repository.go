package repository

import (
	"context"
	"database/sql"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// StudentRepo manages the booking profile attached to each user.
type StudentRepo struct{ db *sql.DB }

func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

// EnsureForUser returns the student bound to userID, creating it on first
// use.  Calling it repeatedly never creates a second profile; the unique
// key on user_id settles concurrent first calls.
func (r *StudentRepo) EnsureForUser(ctx context.Context, userID uint64, email string) (*model.Student, error) {
	var em *string
	if email != "" {
		e := NormalizeEmail(email)
		em = &e
	}
	if _, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO students (user_id, email) VALUES (?, ?)", userID, em); err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

// GetByUserID returns the student or sql.ErrNoRows.
func (r *StudentRepo) GetByUserID(ctx context.Context, userID uint64) (*model.Student, error) {
	var (
		s     model.Student
		email sql.NullString
	)
	err := r.db.QueryRowContext(ctx, "SELECT id, user_id, email FROM students WHERE user_id = ?", userID).
		Scan(&s.ID, &s.UserID, &email)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		s.Email = &email.String
	}
	return &s, nil
}
