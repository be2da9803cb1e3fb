package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hostel/api/internal/model"
)

type RoomUpdate struct {
	RoomNumber *string
	Capacity   *int
	Status     *string
	Price      *float64
}

func (u RoomUpdate) Empty() bool {
	return u.RoomNumber == nil && u.Capacity == nil && u.Status == nil && u.Price == nil
}

func (s *Store) ListRooms(ctx context.Context) ([]model.Room, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT r.room_id, r.room_number, r.capacity, r.occupied, r.status, r.price,
           COALESCE(cnt.cnt, 0) AS occupants
    FROM rooms r
    LEFT JOIN (
      SELECT room_id, COUNT(*) AS cnt FROM students WHERE room_id IS NOT NULL GROUP BY room_id
    ) cnt ON cnt.room_id = r.room_id
    ORDER BY r.room_number
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []model.Room{}
	for rows.Next() {
		var room model.Room
		var occupants int64
		if err := rows.Scan(&room.ID, &room.RoomNumber, &room.Capacity, &room.Occupied, &room.Status, &room.Price, &occupants); err != nil {
			return nil, err
		}
		room.Occupants = int(occupants)
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (s *Store) GetRoom(ctx context.Context, roomID int64) (model.Room, error) {
	var room model.Room
	err := s.pool.QueryRow(ctx, `
    SELECT room_id, room_number, capacity, occupied, status, price
    FROM rooms
    WHERE room_id = $1
  `, roomID).Scan(&room.ID, &room.RoomNumber, &room.Capacity, &room.Occupied, &room.Status, &room.Price)
	room.Occupants = room.Occupied
	return room, err
}

func (s *Store) CreateRoom(ctx context.Context, roomNumber string, capacity int, status string, price *float64) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
    INSERT INTO rooms (room_number, capacity, occupied, status, price)
    VALUES ($1, $2, 0, $3, $4)
    RETURNING room_id
  `, roomNumber, capacity, status, price).Scan(&id)
	return id, err
}

// UpdateRoom applies the non-nil fields. A capacity below the current
// occupancy is rejected with ErrCapacityBelowOccupancy; when capacity
// changes without an explicit status, Full/Available is recomputed.
func (s *Store) UpdateRoom(ctx context.Context, roomID int64, update RoomUpdate) error {
	var sets []string
	var args []any
	add := func(expr string, value any) int {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(expr, len(args)))
		return len(args)
	}
	if update.RoomNumber != nil {
		add("room_number = $%d", *update.RoomNumber)
	}
	if update.Price != nil {
		add("price = $%d", *update.Price)
	}
	if update.Status != nil {
		add("status = $%d", *update.Status)
	}
	capacityArg := 0
	if update.Capacity != nil {
		capacityArg = add("capacity = $%d", *update.Capacity)
		if update.Status == nil {
			sets = append(sets, fmt.Sprintf(
				"status = CASE WHEN occupied >= $%[1]d THEN '%[2]s' WHEN status = '%[2]s' THEN '%[3]s' ELSE status END",
				capacityArg, model.RoomFull, model.RoomAvailable))
		}
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, roomID)
	query := fmt.Sprintf(`UPDATE rooms SET %s WHERE room_id = $%d`, strings.Join(sets, ", "), len(args))
	if capacityArg > 0 {
		query += fmt.Sprintf(` AND occupied <= $%d`, capacityArg)
	}
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if capacityArg > 0 && s.roomExists(ctx, roomID) {
		return ErrCapacityBelowOccupancy
	}
	return pgx.ErrNoRows
}

// SetRoomStatus is the administrative override; it does not touch
// occupancy.
func (s *Store) SetRoomStatus(ctx context.Context, roomID int64, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE rooms SET status = $1 WHERE room_id = $2`, status, roomID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, roomID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rooms WHERE room_id = $1 AND occupied = 0`, roomID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if s.roomExists(ctx, roomID) {
		return ErrRoomOccupied
	}
	return pgx.ErrNoRows
}

func (s *Store) roomExists(ctx context.Context, roomID int64) bool {
	var exists bool
	_ = s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE room_id = $1)`, roomID).Scan(&exists)
	return exists
}
