package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/studentacc/accommodation-booking/internal/model"
)

// BookingRepo owns the booking lifecycle: the room claim, the booking row
// and the release of the room on cancellation.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a booking joined with its room and accommodation.
type BookingDetail struct {
	model.Booking
	RoomNumber         string
	AccommodationID    uint64
	AccommodationTitle string
	City               string
}

// claimRoomSQL flips the lowest-id Available room of an accommodation to
// Booked in a single statement.  LAST_INSERT_ID(id) makes the claimed id
// come back in the OK packet, so no SELECT ... FOR UPDATE is needed and
// two callers can never claim the same room.
const claimRoomSQL = `UPDATE rooms
	SET status = 'Booked', id = LAST_INSERT_ID(id)
	WHERE accommodation_id = ? AND status = 'Available'
	ORDER BY id
	LIMIT 1`

// ClaimAndCreate claims a room of the accommodation and inserts b for it
// in one transaction.  b must carry StudentID, DateBooked and the three
// prices; ID and RoomID are filled in.  ErrNoRoomAvailable is returned
// when every room is booked, and nothing is written in that case.
func (r *BookingRepo) ClaimAndCreate(ctx context.Context, accommodationID uint64, b *model.Booking) (*model.Room, error) {
	var room model.Room
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, claimRoomSQL, accommodationID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNoRoomAvailable
		}
		roomID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		room = model.Room{ID: uint64(roomID), AccommodationID: accommodationID, Status: model.RoomBooked}
		if err := tx.QueryRowContext(ctx,
			"SELECT room_number FROM rooms WHERE id = ?", room.ID).Scan(&room.RoomNumber); err != nil {
			return err
		}

		ins, err := tx.ExecContext(ctx,
			`INSERT INTO bookings (student_id, room_id, date_booked, original_price, discount_applied, final_price)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			b.StudentID, room.ID, b.DateBooked.UTC(), b.OriginalPrice, b.DiscountApplied, b.FinalPrice)
		if err != nil {
			return err
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return err
		}
		b.ID = uint64(id)
		b.RoomID = room.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteForStudent cancels a booking owned by studentID: the booking row
// is deleted and its room becomes Available again.  It returns the id of
// the released room.
func (r *BookingRepo) DeleteForStudent(ctx context.Context, bookingID, studentID uint64) (uint64, error) {
	var roomID uint64
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		var owner uint64
		err := tx.QueryRowContext(ctx,
			"SELECT student_id, room_id FROM bookings WHERE id = ? FOR UPDATE", bookingID).
			Scan(&owner, &roomID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrBookingNotFound
		}
		if err != nil {
			return err
		}
		if owner != studentID {
			return ErrForbidden
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", bookingID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, "UPDATE rooms SET status = 'Available' WHERE id = ?", roomID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return roomID, nil
}

// ListByStudent returns a student's bookings, newest first.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID uint64) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.student_id, b.room_id, b.date_booked,
		        b.original_price, b.discount_applied, b.final_price,
		        r.room_number, a.id, a.title, a.city
		 FROM bookings b
		 JOIN rooms r ON r.id = b.room_id
		 JOIN accommodations a ON a.id = r.accommodation_id
		 WHERE b.student_id = ?
		 ORDER BY b.date_booked DESC, b.id DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []BookingDetail{}
	for rows.Next() {
		var d BookingDetail
		if err := rows.Scan(&d.ID, &d.StudentID, &d.RoomID, &d.DateBooked,
			&d.OriginalPrice, &d.DiscountApplied, &d.FinalPrice,
			&d.RoomNumber, &d.AccommodationID, &d.AccommodationTitle, &d.City); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
