package operations

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel/api/internal/db"
	"hostel/api/internal/model"
)

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("HOSTEL_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("HOSTEL_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	if err := db.Migrate(context.Background(), pool); err != nil {
		pool.Close()
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func insertRoom(t *testing.T, pool *pgxpool.Pool, capacity int) int64 {
	t.Helper()
	var roomID int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO rooms (room_number, capacity, occupied, status) VALUES ($1, $2, 0, 'Available') RETURNING room_id`,
		"T-"+uuid.NewString()[:8], capacity,
	).Scan(&roomID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM rooms WHERE room_id = $1`, roomID)
	})
	return roomID
}

func insertStudent(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	var studentID int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO students (first_name, last_name, email, password) VALUES ('Test', 'Student', $1, 'x') RETURNING student_id`,
		fmt.Sprintf("student.%s@example.local", uuid.NewString()),
	).Scan(&studentID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM students WHERE student_id = $1`, studentID)
	})
	return studentID
}

func roomState(t *testing.T, pool *pgxpool.Pool, roomID int64) (int, int, string) {
	t.Helper()
	var capacity, occupied int
	var status string
	err := pool.QueryRow(context.Background(),
		`SELECT capacity, occupied, status FROM rooms WHERE room_id = $1`, roomID,
	).Scan(&capacity, &occupied, &status)
	require.NoError(t, err)
	return capacity, occupied, status
}

func TestConcurrentBookingsNeverExceedCapacity(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}

	const capacity, attempts = 3, 10
	store := db.NewStore(pool, 5*time.Second)
	roomID := insertRoom(t, pool, capacity)
	students := make([]int64, attempts)
	for i := range students {
		students[i] = insertStudent(t, pool)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
		others    []error
	)
	start := make(chan struct{})
	for _, studentID := range students {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			<-start
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_, err := BookRoom(ctx, store, roomID, studentID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case KindOf(err) == KindConflict:
				conflicts++
			default:
				others = append(others, err)
			}
		}(studentID)
	}
	close(start)
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, capacity, successes)
	assert.Equal(t, attempts-capacity, conflicts)

	gotCapacity, occupied, status := roomState(t, pool, roomID)
	assert.Equal(t, gotCapacity, occupied)
	assert.Equal(t, model.RoomFull, status)

	var housed int
	err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM students WHERE room_id = $1`, roomID).Scan(&housed)
	require.NoError(t, err)
	assert.Equal(t, capacity, housed)
}

func TestBookingScenarioAgainstDatabase(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}

	store := db.NewStore(pool, 5*time.Second)
	ctx := context.Background()
	roomID := insertRoom(t, pool, 2)
	first := insertStudent(t, pool)
	second := insertStudent(t, pool)
	third := insertStudent(t, pool)

	result, err := BookRoom(ctx, store, roomID, first)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Occupied)
	assert.Equal(t, model.RoomAvailable, result.Status)

	_, err = BookRoom(ctx, store, roomID, first)
	assert.Equal(t, KindInvalidState, KindOf(err))

	_, err = BookRoom(ctx, store, roomID, second)
	require.NoError(t, err)

	_, err = BookRoom(ctx, store, roomID, third)
	assert.Equal(t, KindConflict, KindOf(err))
	_, occupied, status := roomState(t, pool, roomID)
	assert.Equal(t, 2, occupied)
	assert.Equal(t, model.RoomFull, status)

	_, err = BookRoom(ctx, store, roomID+1_000_000, third)
	assert.Equal(t, KindNotFound, KindOf(err))
	var thirdRoom *int64
	require.NoError(t, pool.QueryRow(ctx, `SELECT room_id FROM students WHERE student_id = $1`, third).Scan(&thirdRoom))
	assert.Nil(t, thirdRoom)

	released, err := ReleaseRoom(ctx, store, roomID, first)
	require.NoError(t, err)
	assert.Equal(t, 1, released.Occupied)
	assert.Equal(t, model.RoomAvailable, released.Status)

	_, err = BookRoom(ctx, store, roomID, third)
	require.NoError(t, err)
}
