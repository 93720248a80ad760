package db

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Seed makes sure the configured tenant, the permission catalogue, the default
// roles and the bootstrap admin exist, plus any staff fixtures. Everything is
// written in one transaction and it is safe to run on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if err := checkRoleCatalogue(auth.RolePermissions, auth.DefaultPermissions); err != nil {
		return err
	}
	var fixtures Fixtures
	if cfg.SeedFixturesPath != "" {
		loaded, err := LoadFixtures(cfg.SeedFixturesPath)
		if err != nil {
			return err
		}
		fixtures = loaded
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var tenantID string
		if err := tx.QueryRow(ctx, `
      INSERT INTO tenants (name) VALUES ($1)
      ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
      RETURNING id
    `, cfg.SeedTenantName).Scan(&tenantID); err != nil {
			return fmt.Errorf("seed tenant: %w", err)
		}

		if _, err := tx.Exec(ctx, `
      INSERT INTO permissions (key) SELECT unnest($1::text[])
      ON CONFLICT (key) DO NOTHING
    `, auth.DefaultPermissions); err != nil {
			return fmt.Errorf("seed permissions: %w", err)
		}

		roleIDs := make(map[string]string, len(auth.RolePermissions))
		for _, role := range sortedRoles(auth.RolePermissions) {
			id, err := grantRole(ctx, tx, tenantID, role, auth.RolePermissions[role])
			if err != nil {
				return fmt.Errorf("seed role %s: %w", role, err)
			}
			roleIDs[role] = id
		}

		if err := ensureAdminUser(ctx, tx, tenantID, roleIDs[auth.RoleSuperAdmin], cfg.SeedAdminEmail, cfg.SeedAdminPassword); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
		if err := ensureStaffFixtures(ctx, tx, tenantID, fixtures.Staff); err != nil {
			return fmt.Errorf("seed staff fixtures: %w", err)
		}
		slog.Info("seed complete", "tenant", cfg.SeedTenantName, "roles", len(roleIDs), "staffFixtures", len(fixtures.Staff))
		return nil
	})
}

// grantRole upserts a tenant role and links it to its permission keys.
func grantRole(ctx context.Context, q querier, tenantID, role string, perms []string) (string, error) {
	var roleID string
	if err := q.QueryRow(ctx, `
    INSERT INTO roles (tenant_id, name) VALUES ($1, $2)
    ON CONFLICT (tenant_id, name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, tenantID, role).Scan(&roleID); err != nil {
		return "", err
	}
	_, err := q.Exec(ctx, `
    INSERT INTO role_permissions (role_id, permission_id)
    SELECT $1, id FROM permissions WHERE key = ANY($2::text[])
    ON CONFLICT DO NOTHING
  `, roleID, perms)
	return roleID, err
}

func ensureAdminUser(ctx context.Context, q querier, tenantID, roleID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id = $1 AND email = $2)", tenantID, email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx, "INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4)", tenantID, email, hash, roleID)
	return err
}

// checkRoleCatalogue fails when a role grants a permission missing from the
// catalogue, which would otherwise be dropped silently by grantRole.
func checkRoleCatalogue(roles map[string][]string, catalogue []string) error {
	known := make(map[string]bool, len(catalogue))
	for _, p := range catalogue {
		known[p] = true
	}
	for _, role := range sortedRoles(roles) {
		for _, p := range roles[role] {
			if !known[p] {
				return fmt.Errorf("role %s grants unknown permission %q", role, p)
			}
		}
	}
	return nil
}

func sortedRoles(roles map[string][]string) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
