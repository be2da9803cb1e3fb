package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"hostel/api/internal/db"
)

var (
	ErrCapacityBelowOccupancy = errors.New("capacity_below_occupancy")
	ErrRoomOccupied           = errors.New("room_occupied")
	ErrNoRoomAssigned         = errors.New("no_room_assigned")
)

type Store struct {
	pool db.Pool
}

func NewStore(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// IsUniqueViolation reports whether err is a Postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports whether err is a Postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
