// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking service and handlers to distinguish between failure scenarios.
// ErrForbidden indicates that the caller tried to act on a record owned
// by someone else, ErrConflict signals a uniqueness violation.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrForbidden is returned when the caller attempts an operation on a
	// resource they do not own.  Handlers translate this into HTTP 403.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when an insert or update violates a unique
	// key.  Handlers translate this into HTTP 409.
	ErrConflict = errors.New("conflict")

	ErrOwnerNotFound         = errors.New("owner not found")
	ErrAccommodationNotFound = errors.New("accommodation not found")
	ErrRoomNotFound          = errors.New("room not found")
	ErrAmenityNotFound       = errors.New("amenity not found")
	ErrDiscountNotFound      = errors.New("festival discount not found")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrSessionNotFound       = errors.New("session not found")

	// ErrInvalidReference is returned when a write names an owner,
	// discount, accommodation or amenity that does not exist.
	ErrInvalidReference = errors.New("referenced record does not exist")

	// ErrNoRoomAvailable is returned by the room claim when every room of
	// the accommodation is already booked.
	ErrNoRoomAvailable = errors.New("no available room")

	// ErrRoomOccupied is returned when an update would mark a room
	// Available while a booking still references it.
	ErrRoomOccupied = errors.New("room has an active booking")
)

const (
	mysqlDuplicateEntry = 1062 // ER_DUP_ENTRY
	mysqlNoReferenced   = 1452 // ER_NO_REFERENCED_ROW_2
)

func isDuplicate(err error) bool { return mysqlErrno(err) == mysqlDuplicateEntry }

func isMissingReference(err error) bool { return mysqlErrno(err) == mysqlNoReferenced }

func mysqlErrno(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
