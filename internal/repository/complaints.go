package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hostel/api/internal/model"
)

func (s *Store) CreateComplaint(ctx context.Context, studentID int64, title, description string) (model.Complaint, error) {
	var c model.Complaint
	err := s.pool.QueryRow(ctx, `
    INSERT INTO complaints (student_id, title, description, status)
    VALUES ($1, $2, $3, $4)
    RETURNING complaint_id, student_id, title, description, status, created_at, resolved_at
  `, studentID, title, description, model.ComplaintPending).Scan(
		&c.ID, &c.StudentID, &c.Title, &c.Description, &c.Status, &c.CreatedAt, &c.ResolvedAt,
	)
	return c, err
}

// ListComplaints returns all complaints, or only the student's when
// studentID is non-zero.
func (s *Store) ListComplaints(ctx context.Context, studentID int64, limit int) ([]model.Complaint, error) {
	query := `
    SELECT c.complaint_id, c.student_id, c.title, c.description, c.status, c.created_at, c.resolved_at,
           s.first_name, s.last_name, s.email
    FROM complaints c
    LEFT JOIN students s ON s.student_id = c.student_id`
	args := []any{limit}
	if studentID > 0 {
		query += ` WHERE c.student_id = $2`
		args = append(args, studentID)
	}
	query += ` ORDER BY c.created_at DESC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	complaints := []model.Complaint{}
	for rows.Next() {
		var c model.Complaint
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Title, &c.Description, &c.Status, &c.CreatedAt, &c.ResolvedAt,
			&c.FirstName, &c.LastName, &c.Email); err != nil {
			return nil, err
		}
		complaints = append(complaints, c)
	}
	return complaints, rows.Err()
}

// UpdateComplaintStatus sets status; resolved_at follows the Resolved
// state.
func (s *Store) UpdateComplaintStatus(ctx context.Context, complaintID int64, status string) error {
	tag, err := s.pool.Exec(ctx, `
    UPDATE complaints
    SET status = $1,
        resolved_at = CASE WHEN $1 = 'Resolved' THEN COALESCE(resolved_at, NOW()) ELSE NULL END
    WHERE complaint_id = $2
  `, status, complaintID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
