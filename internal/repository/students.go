package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"hostel/api/internal/model"
)

const studentColumns = `student_id, first_name, last_name, gender, phone, email, password, room_id, date_of_joining`

type StudentUpdate struct {
	FirstName    *string
	LastName     *string
	Phone        *string
	Gender       *string
	PasswordHash *string
}

func (u StudentUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil && u.Gender == nil && u.PasswordHash == nil
}

func scanStudent(row pgx.Row) (model.Student, error) {
	var student model.Student
	err := row.Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Gender,
		&student.Phone,
		&student.Email,
		&student.PasswordHash,
		&student.RoomID,
		&student.DateOfJoining,
	)
	return student, err
}

// CreateStudent inserts a student without a room; rooms are only assigned
// through the booking transaction.
func (s *Store) CreateStudent(ctx context.Context, student model.Student) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
    INSERT INTO students (first_name, last_name, gender, phone, email, password, date_of_joining)
    VALUES ($1, $2, $3, $4, $5, $6, CURRENT_DATE)
    RETURNING student_id
  `, student.FirstName, student.LastName, student.Gender, student.Phone, student.Email, student.PasswordHash).Scan(&id)
	return id, err
}

func (s *Store) GetStudentByEmail(ctx context.Context, email string) (model.Student, error) {
	return scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE email = $1`, email))
}

func (s *Store) GetStudentByID(ctx context.Context, studentID int64) (model.Student, error) {
	return scanStudent(s.pool.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = $1`, studentID))
}

func (s *Store) UpdateStudentProfile(ctx context.Context, studentID int64, update StudentUpdate) (model.Student, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if update.FirstName != nil {
		add("first_name", *update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", *update.LastName)
	}
	if update.Phone != nil {
		add("phone", *update.Phone)
	}
	if update.Gender != nil {
		add("gender", *update.Gender)
	}
	if update.PasswordHash != nil {
		add("password", *update.PasswordHash)
	}
	if len(sets) == 0 {
		return s.GetStudentByID(ctx, studentID)
	}
	args = append(args, studentID)
	query := fmt.Sprintf(`UPDATE students SET %s WHERE student_id = $%d RETURNING %s`, strings.Join(sets, ", "), len(args), studentColumns)
	return scanStudent(s.pool.QueryRow(ctx, query, args...))
}

func (s *Store) ListStudents(ctx context.Context, search string, limit, offset int) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var args []any
	if search = strings.TrimSpace(search); search != "" {
		args = append(args, "%"+search+"%")
		query += ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1`
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY student_id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

// GetStudentRoom returns the room the student lives in, or
// ErrNoRoomAssigned.
func (s *Store) GetStudentRoom(ctx context.Context, studentID int64) (model.Room, error) {
	student, err := s.GetStudentByID(ctx, studentID)
	if err != nil {
		return model.Room{}, err
	}
	if student.RoomID == nil {
		return model.Room{}, ErrNoRoomAssigned
	}
	room, err := s.GetRoom(ctx, *student.RoomID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Room{}, ErrNoRoomAssigned
	}
	return room, err
}
