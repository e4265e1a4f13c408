package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// OwnerRepo encapsulates database operations on the owners table.
type OwnerRepo struct{ db *sql.DB }

func NewOwnerRepo(db *sql.DB) *OwnerRepo { return &OwnerRepo{db: db} }

// Create inserts an owner.  A duplicate email yields ErrConflict.
func (r *OwnerRepo) Create(ctx context.Context, o *model.Owner) error {
	o.Email = NormalizeEmail(o.Email)
	res, err := r.db.ExecContext(ctx, "INSERT INTO owners (name, email) VALUES (?, ?)", o.Name, o.Email)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return nil
}

// GetByID returns the owner or ErrOwnerNotFound.
func (r *OwnerRepo) GetByID(ctx context.Context, id uint64) (*model.Owner, error) {
	var o model.Owner
	err := r.db.QueryRowContext(ctx, "SELECT id, name, email FROM owners WHERE id = ?", id).
		Scan(&o.ID, &o.Name, &o.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns all owners ordered by id.
func (r *OwnerRepo) List(ctx context.Context) ([]model.Owner, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, email FROM owners ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Owner
	for rows.Next() {
		var o model.Owner
		if err := rows.Scan(&o.ID, &o.Name, &o.Email); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Update overwrites name and email.
func (r *OwnerRepo) Update(ctx context.Context, o *model.Owner) error {
	o.Email = NormalizeEmail(o.Email)
	res, err := r.db.ExecContext(ctx, "UPDATE owners SET name = ?, email = ? WHERE id = ?", o.Name, o.Email, o.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return r.mustExist(ctx, res, o.ID)
}

// mustExist distinguishes "no row" from "row unchanged" after an UPDATE,
// since MySQL reports zero affected rows for both.
func (r *OwnerRepo) mustExist(ctx context.Context, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err := r.GetByID(ctx, id)
	return err
}

// GetOrCreateByEmail returns the owner with the given email, creating one
// named after the mailbox when missing.  Admin-created accommodations
// without an explicit owner are attached this way.
func (r *OwnerRepo) GetOrCreateByEmail(ctx context.Context, email string) (*model.Owner, error) {
	email = NormalizeEmail(email)
	var o model.Owner
	err := r.db.QueryRowContext(ctx, "SELECT id, name, email FROM owners WHERE email = ?", email).
		Scan(&o.ID, &o.Name, &o.Email)
	if err == nil {
		return &o, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	name := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		name = email[:i]
	}
	o = model.Owner{Name: name, Email: email}
	if err := r.Create(ctx, &o); err != nil {
		if errors.Is(err, ErrConflict) {
			// lost a race with a concurrent create
			return r.GetOrCreateByEmail(ctx, email)
		}
		return nil, err
	}
	return &o, nil
}

// Delete removes an owner together with its accommodations, their rooms
// and the bookings on those rooms, all in one transaction.
func (r *OwnerRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists uint64
		err := tx.QueryRowContext(ctx, "SELECT id FROM owners WHERE id = ? FOR UPDATE", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOwnerNotFound
		}
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE b FROM bookings b
			 JOIN rooms r ON r.id = b.room_id
			 JOIN accommodations a ON a.id = r.accommodation_id
			 WHERE a.owner_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE r FROM rooms r
			 JOIN accommodations a ON a.id = r.accommodation_id
			 WHERE a.owner_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM accommodations WHERE owner_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "DELETE FROM owners WHERE id = ?", id)
		return err
	})
}
