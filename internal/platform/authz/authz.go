package authz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"hrms/internal/domain/auth"
	"hrms/internal/platform/config"
)

// Role ids are tenant-scoped UUIDs, so a (role, permission) pair is enough to
// keep grants from leaking across tenants.
const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj
`

type PolicySource interface {
	RolePolicies(ctx context.Context) ([]auth.RolePolicy, error)
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// Enforcer answers permission checks from an in-memory casbin policy that is
// loaded from the role_permissions table.
type Enforcer struct {
	mode   string
	source PolicySource

	mu       sync.Mutex
	enforcer *casbin.SyncedEnforcer
	known    map[string]bool
}

func New(mode string, source PolicySource) (*Enforcer, error) {
	switch mode {
	case config.AuthzEnforce, config.AuthzShadow, config.AuthzDisabled:
	default:
		return nil, fmt.Errorf("unknown authz mode %q", mode)
	}
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	return &Enforcer{mode: mode, source: source, enforcer: e, known: map[string]bool{}}, nil
}

func (e *Enforcer) Mode() string {
	return e.mode
}

// Load replaces the policy with the current grants.
func (e *Enforcer) Load(ctx context.Context) error {
	policies, err := e.source.RolePolicies(ctx)
	if err != nil {
		return fmt.Errorf("load role policies: %w", err)
	}
	return e.replace(policies)
}

func (e *Enforcer) replace(policies []auth.RolePolicy) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rules := make([][]string, 0, len(policies))
	known := make(map[string]bool, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{p.RoleID, p.Permission})
		known[p.RoleID] = true
	}
	e.enforcer.ClearPolicy()
	if len(rules) > 0 {
		if _, err := e.enforcer.AddPolicies(rules); err != nil {
			return err
		}
	}
	e.known = known
	return nil
}

func (e *Enforcer) roleKnown(roleID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.known[roleID]
}

// HasPermission satisfies middleware.PermissionStore.
func (e *Enforcer) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	if e.mode == config.AuthzDisabled {
		return e.source.HasPermission(ctx, roleID, permission)
	}

	// roles created after startup are picked up with a single reload
	if !e.roleKnown(roleID) {
		if err := e.Load(ctx); err != nil {
			return false, err
		}
	}

	allowed, err := e.enforcer.Enforce(roleID, permission)
	if err != nil {
		return false, err
	}
	if !allowed && e.mode == config.AuthzShadow {
		slog.Warn("authz shadow deny", "roleId", roleID, "permission", permission)
		return true, nil
	}
	return allowed, nil
}
