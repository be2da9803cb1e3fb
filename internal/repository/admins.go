package repository

import (
	"context"

	"hostel/api/internal/model"
)

func (s *Store) CreateAdmin(ctx context.Context, name, email, passwordHash string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
    INSERT INTO admins (name, email, password)
    VALUES ($1, $2, $3)
    RETURNING admin_id
  `, name, email, passwordHash).Scan(&id)
	return id, err
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
    SELECT admin_id, name, email, password, created_at
    FROM admins
    WHERE email = $1
  `, email)
	err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	return admin, err
}

func (s *Store) GetAdminByID(ctx context.Context, adminID int64) (model.Admin, error) {
	var admin model.Admin
	row := s.pool.QueryRow(ctx, `
    SELECT admin_id, name, email, password, created_at
    FROM admins
    WHERE admin_id = $1
  `, adminID)
	err := row.Scan(&admin.ID, &admin.Name, &admin.Email, &admin.PasswordHash, &admin.CreatedAt)
	return admin, err
}
