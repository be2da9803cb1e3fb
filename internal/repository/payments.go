package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hostel/api/internal/model"
)

const paymentColumns = `p.payment_id, p.student_id, p.amount, p.month, p.status, p.payment_method, p.payment_date`

func scanPayment(row pgx.Row, withStudent bool) (model.Payment, error) {
	var p model.Payment
	dest := []any{&p.ID, &p.StudentID, &p.Amount, &p.Month, &p.Status, &p.PaymentMethod, &p.PaymentDate}
	if withStudent {
		dest = append(dest, &p.FirstName, &p.LastName, &p.Email)
	}
	err := row.Scan(dest...)
	return p, err
}

func (s *Store) CreatePayment(ctx context.Context, payment model.Payment) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
    INSERT INTO payments (student_id, amount, month, status, payment_method, payment_date)
    VALUES ($1, $2, $3, $4, $5, NOW())
    RETURNING payment_id
  `, payment.StudentID, payment.Amount, payment.Month, payment.Status, payment.PaymentMethod).Scan(&id)
	return id, err
}

func (s *Store) PaidPaymentExists(ctx context.Context, studentID int64, month string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM payments WHERE student_id = $1 AND month = $2 AND status = $3
    )
  `, studentID, month, model.PaymentPaid).Scan(&exists)
	return exists, err
}

// StudentRent returns the price of the student's room, nil when the
// student has no room or the room has no price.
func (s *Store) StudentRent(ctx context.Context, studentID int64) (*float64, error) {
	var price *float64
	err := s.pool.QueryRow(ctx, `
    SELECT r.price
    FROM students s
    LEFT JOIN rooms r ON r.room_id = s.room_id
    WHERE s.student_id = $1
  `, studentID).Scan(&price)
	return price, err
}

func (s *Store) ListPayments(ctx context.Context, limit int) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+paymentColumns+`, s.first_name, s.last_name, s.email
    FROM payments p
    LEFT JOIN students s ON s.student_id = p.student_id
    ORDER BY p.payment_date DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows, true)
}

func (s *Store) ListStudentPayments(ctx context.Context, studentID int64, limit int) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx, `
    SELECT `+paymentColumns+`
    FROM payments p
    WHERE p.student_id = $1
    ORDER BY p.payment_date DESC, p.payment_id DESC
    LIMIT $2
  `, studentID, limit)
	if err != nil {
		return nil, err
	}
	return collectPayments(rows, false)
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, paymentID int64, status string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE payments SET status = $1 WHERE payment_id = $2`, status, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *Store) DeletePayment(ctx context.Context, paymentID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM payments WHERE payment_id = $1`, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func collectPayments(rows pgx.Rows, withStudent bool) ([]model.Payment, error) {
	defer rows.Close()
	payments := []model.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows, withStudent)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
