// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/danielhkuo/school-vote/models"
)

const adminColumns = `id, username, name, password_hash, role, created_at`

func scanAdmin(row scanner) (models.Admin, error) {
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.Name, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		return models.Admin{}, err
	}
	if a.Role != models.RoleSuper && a.Role != models.RoleAdmin {
		return models.Admin{}, fmt.Errorf("%w: admin %s has role %q", ErrMalformedRecord, a.ID, a.Role)
	}
	return a, nil
}

// CreateAdmin stores a new account. PasswordHash must already be hashed.
func (s *Store) CreateAdmin(ctx context.Context, a models.Admin) (models.Admin, error) {
	a.ID = newID()
	a.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin (id, username, name, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.Username, a.Name, a.PasswordHash, a.Role, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Admin{}, fmt.Errorf("%w: username %s", ErrDuplicate, a.Username)
		}
		return models.Admin{}, fmt.Errorf("failed to insert admin: %w", err)
	}
	return a, nil
}

func (s *Store) GetAdmin(ctx context.Context, id string) (models.Admin, error) {
	return s.getAdmin(ctx, `SELECT `+adminColumns+` FROM admin WHERE id = $1`, id)
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (models.Admin, error) {
	return s.getAdmin(ctx, `SELECT `+adminColumns+` FROM admin WHERE username = $1`, username)
}

func (s *Store) getAdmin(ctx context.Context, query string, arg string) (models.Admin, error) {
	a, err := scanAdmin(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Admin{}, ErrNotFound
	}
	if err != nil {
		return models.Admin{}, fmt.Errorf("failed to get admin: %w", err)
	}
	return a, nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+adminColumns+` FROM admin ORDER BY created_at, username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}
	defer rows.Close()

	admins := []models.Admin{}
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admin`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteAdmin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admin WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
