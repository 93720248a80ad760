package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads roles, grants and users written by Seed and the identity
// service.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// RolePolicy is one (role, permission) grant.
type RolePolicy struct {
	RoleID     string
	Permission string
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var granted bool
	err := s.DB.QueryRow(ctx, `
    SELECT EXISTS (
      SELECT 1 FROM role_permissions rp
      JOIN permissions p ON p.id = rp.permission_id
      WHERE rp.role_id = $1 AND p.key = $2
    )
  `, roleID, permission).Scan(&granted)
	return granted, err
}

func (s *Store) RolePolicies(ctx context.Context) ([]RolePolicy, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT rp.role_id::text, p.key
    FROM role_permissions rp
    JOIN permissions p ON p.id = rp.permission_id
    ORDER BY 1, 2
  `)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[RolePolicy])
}

// UserEmail returns the login email of an active user within a tenant, or ""
// when there is none.
func (s *Store) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `
    SELECT email FROM users
    WHERE tenant_id = $1 AND id = $2 AND status = 'active'
  `, tenantID, userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return email, err
}
