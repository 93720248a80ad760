package staff

import (
	"context"
	"errors"
	"strings"
)

type Lookup interface {
	FindByEmail(ctx context.Context, tenantID, email string) (*Record, error)
	SearchActiveByName(ctx context.Context, tenantID, first, rest string) ([]Record, error)
}

// Resolver finds the pre-registered staff record a payroll row belongs to.
// Email wins over name. A name that matches more than one active staff
// member is rejected with ErrAmbiguous.
type Resolver struct {
	lookup Lookup
}

func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

func (r *Resolver) Resolve(ctx context.Context, tenantID, name, email string) (*Record, error) {
	email = strings.TrimSpace(email)
	if email != "" {
		record, err := r.lookup.FindByEmail(ctx, tenantID, email)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	first, rest, ok := SplitName(name)
	if !ok {
		return nil, ErrNotFound
	}
	matches, err := r.lookup.SearchActiveByName(ctx, tenantID, first, rest)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, ErrAmbiguous
	}
}

// SplitName returns the first token and the remaining tokens of name. A single
// token is used for both parts.
func SplitName(name string) (first, rest string, ok bool) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", "", false
	}
	if len(parts) == 1 {
		return parts[0], parts[0], true
	}
	return parts[0], strings.Join(parts[1:], " "), true
}
