package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// AccommodationRepo encapsulates database operations on accommodations
// and their amenity links.  Reads join the festival discount so callers
// can price a listing without a second round trip.
type AccommodationRepo struct{ db *sql.DB }

func NewAccommodationRepo(db *sql.DB) *AccommodationRepo { return &AccommodationRepo{db: db} }

const accommodationSelect = `SELECT
		a.id, a.title, a.city, a.price_per_month, a.address, a.description,
		a.image_url, a.owner_id, a.festival_discount_id, a.created_at, a.updated_at,
		d.id, d.name, d.percentage, d.start_date, d.end_date, d.active
	FROM accommodations a
	LEFT JOIN festival_discounts d ON d.id = a.festival_discount_id`

type scanner interface{ Scan(...any) error }

// scanAccommodation reads one row produced by accommodationSelect.  Any
// lead destinations are scanned first, which lets joined queries prepend
// their own columns.
func scanAccommodation(s scanner, lead ...any) (*model.Accommodation, error) {
	var (
		a          model.Accommodation
		imageURL   sql.NullString
		ownerID    sql.NullInt64
		discountID sql.NullInt64
		dID        sql.NullInt64
		dName      sql.NullString
		dPct       decimal.NullDecimal
		dStart     sql.NullTime
		dEnd       sql.NullTime
		dActive    sql.NullBool
	)
	dest := append(lead,
		&a.ID, &a.Title, &a.City, &a.PricePerMonth, &a.Address, &a.Description,
		&imageURL, &ownerID, &discountID, &a.CreatedAt, &a.UpdatedAt,
		&dID, &dName, &dPct, &dStart, &dEnd, &dActive)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		a.ImageURL = &imageURL.String
	}
	if ownerID.Valid {
		v := uint64(ownerID.Int64)
		a.OwnerID = &v
	}
	if discountID.Valid {
		v := uint64(discountID.Int64)
		a.FestivalDiscountID = &v
	}
	if dID.Valid {
		a.Discount = &model.FestivalDiscount{
			ID:         uint64(dID.Int64),
			Name:       dName.String,
			Percentage: dPct.Decimal,
			StartDate:  dStart.Time,
			EndDate:    dEnd.Time,
			Enabled:    dActive.Bool,
		}
	}
	return &a, nil
}

// Create inserts an accommodation.  Unknown owner or discount ids yield
// ErrInvalidReference.
func (r *AccommodationRepo) Create(ctx context.Context, a *model.Accommodation) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accommodations
			(title, city, price_per_month, address, description, image_url, owner_id, festival_discount_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.City, a.PricePerMonth, a.Address, a.Description, a.ImageURL, a.OwnerID, a.FestivalDiscountID)
	if err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
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

// GetByID returns the accommodation with its discount and amenities, or
// ErrAccommodationNotFound.
func (r *AccommodationRepo) GetByID(ctx context.Context, id uint64) (*model.Accommodation, error) {
	a, err := scanAccommodation(r.db.QueryRowContext(ctx, accommodationSelect+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccommodationNotFound
	}
	if err != nil {
		return nil, err
	}
	if a.Amenities, err = r.Amenities(ctx, id); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every accommodation ordered by id, without amenities.
func (r *AccommodationRepo) List(ctx context.Context) ([]model.Accommodation, error) {
	rows, err := r.db.QueryContext(ctx, accommodationSelect+" ORDER BY a.id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Accommodation
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// Update overwrites the editable columns.  ImageURL is left alone; use
// SetImageURL.
func (r *AccommodationRepo) Update(ctx context.Context, a *model.Accommodation) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accommodations
		 SET title = ?, city = ?, price_per_month = ?, address = ?, description = ?,
		     owner_id = ?, festival_discount_id = ?
		 WHERE id = ?`,
		a.Title, a.City, a.PricePerMonth, a.Address, a.Description, a.OwnerID, a.FestivalDiscountID, a.ID)
	if err != nil {
		if isMissingReference(err) {
			return ErrInvalidReference
		}
		return err
	}
	return r.mustExist(ctx, res, a.ID)
}

// SetImageURL records the public URL of an uploaded image.
func (r *AccommodationRepo) SetImageURL(ctx context.Context, id uint64, url string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE accommodations SET image_url = ? WHERE id = ?", url, id)
	if err != nil {
		return err
	}
	return r.mustExist(ctx, res, id)
}

func (r *AccommodationRepo) mustExist(ctx context.Context, res sql.Result, id uint64) error {
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var found uint64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM accommodations WHERE id = ?", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAccommodationNotFound
	}
	return err
}

// Delete removes an accommodation with its rooms, their bookings and its
// amenity links in one transaction.
func (r *AccommodationRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE b FROM bookings b JOIN rooms r ON r.id = b.room_id WHERE r.accommodation_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE accommodation_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM accommodation_amenities WHERE accommodation_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM accommodations WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrAccommodationNotFound
		}
		return nil
	})
}

// Amenities lists the amenities linked to an accommodation by name.
func (r *AccommodationRepo) Amenities(ctx context.Context, id uint64) ([]model.Amenity, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name FROM amenities m
		 JOIN accommodation_amenities aa ON aa.amenity_id = m.id
		 WHERE aa.accommodation_id = ?
		 ORDER BY m.name`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Amenity{}
	for rows.Next() {
		var m model.Amenity
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AttachAmenity links an amenity.  Attaching twice is a no-op.
func (r *AccommodationRepo) AttachAmenity(ctx context.Context, accommodationID, amenityID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO accommodation_amenities (accommodation_id, amenity_id) VALUES (?, ?)",
		accommodationID, amenityID)
	if err != nil && isMissingReference(err) {
		return ErrInvalidReference
	}
	return err
}

// DetachAmenity removes a link.  Detaching a missing link is a no-op.
func (r *AccommodationRepo) DetachAmenity(ctx context.Context, accommodationID, amenityID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM accommodation_amenities WHERE accommodation_id = ? AND amenity_id = ?",
		accommodationID, amenityID)
	return err
}

// SearchQuery defines filters and pagination for the public search.
// MaxPrice compares against the price a student would pay on Today, so a
// discounted listing matches on its discounted price.
type SearchQuery struct {
	Text     string
	City     string
	MaxPrice *decimal.Decimal
	Today    time.Time
	Page     int
	PageSize int
}

// effectivePriceSQL mirrors pricing.Quote; ROUND on DECIMAL rounds half
// away from zero, which equals half-up for positive prices.
const effectivePriceSQL = `(CASE
		WHEN d.id IS NOT NULL AND d.active = 1
		 AND ? BETWEEN d.start_date AND d.end_date
		 AND d.percentage BETWEEN 0 AND 100
		THEN ROUND(a.price_per_month - a.price_per_month * d.percentage / 100, 2)
		ELSE a.price_per_month END)`

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Search returns one page of accommodations matching q and the total
// number of matches.
func (r *AccommodationRepo) Search(ctx context.Context, q SearchQuery) ([]model.Accommodation, int64, error) {
	where := []string{}
	args := []any{}

	if t := strings.TrimSpace(q.Text); t != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(t)) + "%"
		where = append(where,
			"(LOWER(a.title) LIKE ? ESCAPE '!' OR LOWER(a.city) LIKE ? ESCAPE '!' OR LOWER(a.address) LIKE ? ESCAPE '!')")
		args = append(args, like, like, like)
	}
	if c := strings.TrimSpace(q.City); c != "" {
		where = append(where, "LOWER(a.city) = ?")
		args = append(args, strings.ToLower(c))
	}
	if q.MaxPrice != nil {
		where = append(where, effectivePriceSQL+" <= ?")
		args = append(args, model.DateOf(q.Today), *q.MaxPrice)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM accommodations a
		LEFT JOIN festival_discounts d ON d.id = a.festival_discount_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize
	dataSQL := accommodationSelect + " WHERE " + cond + " ORDER BY a.id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, dataSQL, append(append([]any{}, args...), limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Accommodation, 0, limit)
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
