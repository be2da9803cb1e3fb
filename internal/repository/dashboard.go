package repository

import (
	"context"

	"hostel/api/internal/model"
)

func (s *Store) Dashboard(ctx context.Context) (model.Dashboard, error) {
	var d model.Dashboard
	err := s.pool.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(*) FROM students),
      (SELECT COUNT(*) FROM rooms),
      (SELECT COUNT(*) FROM payments WHERE status = 'Paid'),
      (SELECT COUNT(*) FROM payments WHERE status <> 'Paid'),
      (SELECT COUNT(*) FROM complaints WHERE status <> 'Resolved')
  `).Scan(&d.Students, &d.Rooms, &d.PaymentsPaid, &d.PaymentsPending, &d.ComplaintsOpen)
	return d, err
}
