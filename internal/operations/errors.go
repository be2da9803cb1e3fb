package operations

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	ErrRoomNotFound         = "room_not_found"
	ErrStudentNotFound      = "student_not_found"
	ErrRoomFull             = "room_full"
	ErrStudentAlreadyHoused = "student_already_housed"
	ErrStudentNotInRoom     = "student_not_in_room"
	ErrBookingUnavailable   = "booking_unavailable"
	ErrServerError          = "server_error"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindInvalidState
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller may retry without changing state.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}

// KindOf returns the taxonomy kind of err; unknown errors are internal.
func KindOf(err error) Kind {
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindInternal
}

// Postgres SQLSTATEs that leave nothing committed and succeed on retry.
var transientCodes = map[string]bool{
	"55P03": true, // lock_not_available
	"40P01": true, // deadlock_detected
	"40001": true, // serialization_failure
	"57014": true, // query_canceled
	"57P01": true, // admin_shutdown
	"08000": true,
	"08003": true,
	"08006": true,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var opErr *Error
	if errors.As(err, &opErr) {
		return opErr
	}
	if isTransient(err) {
		return &Error{Kind: KindTransient, Code: ErrBookingUnavailable, Err: err}
	}
	return &Error{Kind: KindInternal, Code: ErrServerError, Err: err}
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return transientCodes[pgErr.Code]
	}
	if pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
