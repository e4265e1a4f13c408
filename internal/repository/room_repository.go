package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// RoomRepo manages rooms.  Status changes caused by bookings go through
// BookingRepo so they stay inside the booking transaction.
type RoomRepo struct{ db *sql.DB }

func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// RoomListing is a room together with the accommodation it belongs to.
type RoomListing struct {
	Room          model.Room
	Accommodation model.Accommodation
}

func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
	if room.Status == "" {
		room.Status = model.RoomAvailable
	}
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO rooms (accommodation_id, room_number, status) VALUES (?, ?, ?)",
		room.AccommodationID, room.RoomNumber, room.Status)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrConflict
		case isMissingReference(err):
			return ErrInvalidReference
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	var room model.Room
	err := r.db.QueryRowContext(ctx,
		"SELECT id, accommodation_id, room_number, status FROM rooms WHERE id = ?", id).
		Scan(&room.ID, &room.AccommodationID, &room.RoomNumber, &room.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByAccommodation returns the rooms of one accommodation by id.
func (r *RoomRepo) ListByAccommodation(ctx context.Context, accommodationID uint64) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, accommodation_id, room_number, status FROM rooms WHERE accommodation_id = ? ORDER BY id",
		accommodationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Room{}
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.AccommodationID, &room.RoomNumber, &room.Status); err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

// ListWithAccommodation returns every room joined with its accommodation
// and the accommodation's discount.
func (r *RoomRepo) ListWithAccommodation(ctx context.Context) ([]RoomListing, error) {
	query := `SELECT r.id, r.accommodation_id, r.room_number, r.status,
		a.id, a.title, a.city, a.price_per_month, a.address, a.description,
		a.image_url, a.owner_id, a.festival_discount_id, a.created_at, a.updated_at,
		d.id, d.name, d.percentage, d.start_date, d.end_date, d.active
	FROM rooms r
	JOIN accommodations a ON a.id = r.accommodation_id
	LEFT JOIN festival_discounts d ON d.id = a.festival_discount_id
	ORDER BY a.id, r.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RoomListing
	for rows.Next() {
		var room model.Room
		a, err := scanAccommodation(rows, &room.ID, &room.AccommodationID, &room.RoomNumber, &room.Status)
		if err != nil {
			return nil, err
		}
		out = append(out, RoomListing{Room: room, Accommodation: *a})
	}
	return out, rows.Err()
}

// Update renames a room or forces its status.  A room cannot be set back
// to Available while a booking still holds it; that yields ErrRoomOccupied.
func (r *RoomRepo) Update(ctx context.Context, room *model.Room) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx, "SELECT status FROM rooms WHERE id = ? FOR UPDATE", room.ID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if room.Status == model.RoomAvailable {
			var held int
			if err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM bookings WHERE room_id = ?", room.ID).Scan(&held); err != nil {
				return err
			}
			if held > 0 {
				return ErrRoomOccupied
			}
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE rooms SET room_number = ?, status = ? WHERE id = ?", room.RoomNumber, room.Status, room.ID)
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	})
}

// Delete removes a room and any booking on it.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE room_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrRoomNotFound
		}
		return nil
	})
}
