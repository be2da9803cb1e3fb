package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/api/internal/model"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

func TestListRoomsIncludesOccupants(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectQuery(`FROM rooms r\s+LEFT JOIN`).
		WillReturnRows(pgxmock.NewRows([]string{"room_id", "room_number", "capacity", "occupied", "status", "price", "occupants"}).
			AddRow(int64(1), "101", 2, 1, model.RoomAvailable, nil, int64(1)).
			AddRow(int64(2), "102", 1, 1, model.RoomFull, nil, int64(1)))

	rooms, err := store.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "101", rooms[0].RoomNumber)
	assert.Equal(t, 1, rooms[0].Occupants)
	assert.Equal(t, model.RoomFull, rooms[1].Status)
	assert.Nil(t, rooms[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoomRejectsCapacityBelowOccupancy(t *testing.T) {
	mock, store := newMockRepo(t)
	capacity := 1
	mock.ExpectExec(`UPDATE rooms SET capacity = \$1, status = CASE .* WHERE room_id = \$2 AND occupied <= \$1`).
		WithArgs(capacity, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	err := store.UpdateRoom(context.Background(), 7, RoomUpdate{Capacity: &capacity})
	assert.ErrorIs(t, err, ErrCapacityBelowOccupancy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoomMissing(t *testing.T) {
	mock, store := newMockRepo(t)
	number := "B-12"
	mock.ExpectExec(`UPDATE rooms SET room_number = \$1 WHERE room_id = \$2`).
		WithArgs(number, int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateRoom(context.Background(), 9, RoomUpdate{RoomNumber: &number})
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoomEmptyIsNoop(t *testing.T) {
	mock, store := newMockRepo(t)
	require.NoError(t, store.UpdateRoom(context.Background(), 9, RoomUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomOccupied(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM rooms WHERE room_id = \$1 AND occupied = 0`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	assert.ErrorIs(t, store.DeleteRoom(context.Background(), 3), ErrRoomOccupied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoomMissing(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectExec(`DELETE FROM rooms`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	assert.ErrorIs(t, store.DeleteRoom(context.Background(), 4), pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetRoomStatus(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectExec(`UPDATE rooms SET status = \$1 WHERE room_id = \$2`).
		WithArgs(model.RoomMaintenance, int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.SetRoomStatus(context.Background(), 5, model.RoomMaintenance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetStudentRoomWithoutAssignment(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectQuery(`SELECT student_id, .* FROM students WHERE student_id = \$1`).
		WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows([]string{
			"student_id", "first_name", "last_name", "gender", "phone", "email", "password", "room_id", "date_of_joining",
		}).AddRow(int64(12), "Ada", "Lovelace", nil, nil, "ada@example.com", "hash", nil, time.Now()))

	_, err := store.GetStudentRoom(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNoRoomAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaidPaymentExists(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(2), "2024-05", model.PaymentPaid).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.PaidPaymentExists(context.Background(), 2, "2024-05")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatusMissing(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectExec(`UPDATE payments SET status`).
		WithArgs(model.PaymentPaid, int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdatePaymentStatus(context.Background(), 99, model.PaymentPaid)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListComplaintsForStudent(t *testing.T) {
	mock, store := newMockRepo(t)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM complaints c\s+LEFT JOIN students s .* WHERE c.student_id = \$2 ORDER BY c.created_at DESC LIMIT \$1`).
		WithArgs(100, int64(3)).
		WillReturnRows(pgxmock.NewRows([]string{
			"complaint_id", "student_id", "title", "description", "status", "created_at", "resolved_at",
			"first_name", "last_name", "email",
		}).AddRow(int64(1), int64(3), "Leaking tap", "Bathroom", model.ComplaintPending, created, nil, nil, nil, nil))

	complaints, err := store.ListComplaints(context.Background(), 3, 100)
	require.NoError(t, err)
	require.Len(t, complaints, 1)
	assert.Equal(t, "Leaking tap", complaints[0].Title)
	assert.Equal(t, created, complaints[0].CreatedAt)
	assert.Nil(t, complaints[0].ResolvedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateComplaintStatusMissing(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectExec(`UPDATE complaints`).
		WithArgs(model.ComplaintResolved, int64(8)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateComplaintStatus(context.Background(), 8, model.ComplaintResolved)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardCounts(t *testing.T) {
	mock, store := newMockRepo(t)
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM students\)`).
		WillReturnRows(pgxmock.NewRows([]string{"students", "rooms", "paid", "pending", "open"}).
			AddRow(int64(40), int64(12), int64(30), int64(5), int64(2)))

	d, err := store.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Dashboard{Students: 40, Rooms: 12, PaymentsPaid: 30, PaymentsPending: 5, ComplaintsOpen: 2}, d)
	assert.NoError(t, mock.ExpectationsWereMet())
}
