package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// DiscountRepo manages festival discounts.
type DiscountRepo struct{ db *sql.DB }

func NewDiscountRepo(db *sql.DB) *DiscountRepo { return &DiscountRepo{db: db} }

const discountColumns = "id, name, percentage, start_date, end_date, active"

func scanDiscount(s interface{ Scan(...any) error }) (*model.FestivalDiscount, error) {
	var d model.FestivalDiscount
	if err := s.Scan(&d.ID, &d.Name, &d.Percentage, &d.StartDate, &d.EndDate, &d.Enabled); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DiscountRepo) Create(ctx context.Context, d *model.FestivalDiscount) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO festival_discounts (name, percentage, start_date, end_date, active) VALUES (?, ?, ?, ?, ?)",
		d.Name, d.Percentage, model.DateOf(d.StartDate), model.DateOf(d.EndDate), d.Enabled)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

func (r *DiscountRepo) GetByID(ctx context.Context, id uint64) (*model.FestivalDiscount, error) {
	d, err := scanDiscount(r.db.QueryRowContext(ctx,
		"SELECT "+discountColumns+" FROM festival_discounts WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiscountNotFound
	}
	return d, err
}

func (r *DiscountRepo) List(ctx context.Context) ([]model.FestivalDiscount, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+discountColumns+" FROM festival_discounts ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.FestivalDiscount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *DiscountRepo) Update(ctx context.Context, d *model.FestivalDiscount) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE festival_discounts SET name = ?, percentage = ?, start_date = ?, end_date = ?, active = ? WHERE id = ?",
		d.Name, d.Percentage, model.DateOf(d.StartDate), model.DateOf(d.EndDate), d.Enabled, d.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = r.GetByID(ctx, d.ID)
	return err
}

// Delete removes a discount.  Accommodations referencing it keep existing
// and simply lose the reference.
func (r *DiscountRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"UPDATE accommodations SET festival_discount_id = NULL WHERE festival_discount_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM festival_discounts WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrDiscountNotFound
		}
		return nil
	})
}
