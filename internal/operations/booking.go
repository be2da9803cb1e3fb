package operations

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"hostel/api/internal/db"
	"hostel/api/internal/model"
)

const (
	lockRoomSQL        = `SELECT capacity, occupied, status FROM rooms WHERE room_id = $1 FOR UPDATE`
	lockStudentSQL     = `SELECT room_id FROM students WHERE student_id = $1 FOR UPDATE`
	assignStudentSQL   = `UPDATE students SET room_id = $1 WHERE student_id = $2`
	clearStudentSQL    = `UPDATE students SET room_id = NULL WHERE student_id = $1`
	updateOccupancySQL = `UPDATE rooms SET occupied = $1, status = $2 WHERE room_id = $3`
)

// Occupancy is the state of a room after a booking or release commits.
type Occupancy struct {
	RoomID    int64
	StudentID int64
	Capacity  int
	Occupied  int
	Status    string
}

type lockedRoom struct {
	capacity int
	occupied int
	status   string
}

// full honors both the counter and an administratively set status.
func (r lockedRoom) full() bool {
	return r.occupied >= r.capacity || strings.EqualFold(strings.TrimSpace(r.status), model.RoomFull)
}

// BookRoom assigns studentID to roomID. The room row is locked before the
// student row so concurrent bookings and releases on the same room queue
// behind one another.
func BookRoom(ctx context.Context, store *db.Store, roomID, studentID int64) (Occupancy, error) {
	if roomID <= 0 {
		return Occupancy{}, &Error{Kind: KindNotFound, Code: ErrRoomNotFound}
	}
	if studentID <= 0 {
		return Occupancy{}, &Error{Kind: KindNotFound, Code: ErrStudentNotFound}
	}

	var result Occupancy
	err := store.WithTx(ctx, func(tx pgx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		if room.full() {
			return &Error{Kind: KindConflict, Code: ErrRoomFull}
		}

		current, err := lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if current.Valid {
			return &Error{Kind: KindInvalidState, Code: ErrStudentAlreadyHoused}
		}

		if _, err := tx.Exec(ctx, assignStudentSQL, roomID, studentID); err != nil {
			return err
		}
		occupied := room.occupied + 1
		status := model.RoomAvailable
		if occupied >= room.capacity {
			status = model.RoomFull
		}
		if _, err := tx.Exec(ctx, updateOccupancySQL, occupied, status, roomID); err != nil {
			return err
		}

		result = Occupancy{RoomID: roomID, StudentID: studentID, Capacity: room.capacity, Occupied: occupied, Status: status}
		return nil
	})
	if err != nil {
		return Occupancy{}, classify(err)
	}
	return result, nil
}

// ReleaseRoom removes studentID from roomID and frees one place.
func ReleaseRoom(ctx context.Context, store *db.Store, roomID, studentID int64) (Occupancy, error) {
	if roomID <= 0 {
		return Occupancy{}, &Error{Kind: KindNotFound, Code: ErrRoomNotFound}
	}
	if studentID <= 0 {
		return Occupancy{}, &Error{Kind: KindNotFound, Code: ErrStudentNotFound}
	}

	var result Occupancy
	err := store.WithTx(ctx, func(tx pgx.Tx) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}
		current, err := lockStudent(ctx, tx, studentID)
		if err != nil {
			return err
		}
		if !current.Valid || current.Int64 != roomID {
			return &Error{Kind: KindInvalidState, Code: ErrStudentNotInRoom}
		}

		if _, err := tx.Exec(ctx, clearStudentSQL, studentID); err != nil {
			return err
		}
		occupied := room.occupied - 1
		if occupied < 0 {
			occupied = 0
		}
		status := releasedStatus(room.status, occupied, room.capacity)
		if _, err := tx.Exec(ctx, updateOccupancySQL, occupied, status, roomID); err != nil {
			return err
		}

		result = Occupancy{RoomID: roomID, StudentID: studentID, Capacity: room.capacity, Occupied: occupied, Status: status}
		return nil
	})
	if err != nil {
		return Occupancy{}, classify(err)
	}
	return result, nil
}

func releasedStatus(current string, occupied, capacity int) string {
	if occupied >= capacity {
		return model.RoomFull
	}
	if strings.EqualFold(strings.TrimSpace(current), model.RoomMaintenance) {
		return model.RoomMaintenance
	}
	return model.RoomAvailable
}

func lockRoom(ctx context.Context, tx pgx.Tx, roomID int64) (lockedRoom, error) {
	var room lockedRoom
	err := tx.QueryRow(ctx, lockRoomSQL, roomID).Scan(&room.capacity, &room.occupied, &room.status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lockedRoom{}, &Error{Kind: KindNotFound, Code: ErrRoomNotFound}
		}
		return lockedRoom{}, err
	}
	return room, nil
}

func lockStudent(ctx context.Context, tx pgx.Tx, studentID int64) (pgtype.Int8, error) {
	var roomID pgtype.Int8
	err := tx.QueryRow(ctx, lockStudentSQL, studentID).Scan(&roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgtype.Int8{}, &Error{Kind: KindNotFound, Code: ErrStudentNotFound}
		}
		return pgtype.Int8{}, err
	}
	return roomID, nil
}
