package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentacc/accommodation-booking/internal/model"
)

type AmenityRepo struct{ db *sql.DB }

func NewAmenityRepo(db *sql.DB) *AmenityRepo { return &AmenityRepo{db: db} }

func (r *AmenityRepo) Create(ctx context.Context, a *model.Amenity) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO amenities (name) VALUES (?)", a.Name)
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
	a.ID = uint64(id)
	return nil
}

func (r *AmenityRepo) List(ctx context.Context) ([]model.Amenity, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM amenities ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Amenity
	for rows.Next() {
		var a model.Amenity
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AmenityRepo) GetByID(ctx context.Context, id uint64) (*model.Amenity, error) {
	var a model.Amenity
	err := r.db.QueryRowContext(ctx, "SELECT id, name FROM amenities WHERE id = ?", id).Scan(&a.ID, &a.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAmenityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AmenityRepo) Update(ctx context.Context, a *model.Amenity) error {
	res, err := r.db.ExecContext(ctx, "UPDATE amenities SET name = ? WHERE id = ?", a.Name, a.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, a.ID)
	return err
}

// Delete removes an amenity and its links to accommodations.
func (r *AmenityRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM accommodation_amenities WHERE amenity_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM amenities WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAmenityNotFound
		}
		return nil
	})
}
