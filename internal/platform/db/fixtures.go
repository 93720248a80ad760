package db

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML document accepted by SEED_FIXTURES_PATH.
//
//	staff:
//	  - staffId: EMP001
//	    email: ada@example.com
//	    firstName: Ada
//	    lastName: Obi
//	    department: Finance
//	    position: Analyst
type Fixtures struct {
	Staff []StaffFixture `yaml:"staff"`
}

type StaffFixture struct {
	StaffID    string `yaml:"staffId"`
	Email      string `yaml:"email"`
	FirstName  string `yaml:"firstName"`
	LastName   string `yaml:"lastName"`
	Department string `yaml:"department"`
	Position   string `yaml:"position"`
	Inactive   bool   `yaml:"inactive"`
}

func LoadFixtures(path string) (Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixtures{}, err
	}
	return ParseFixtures(raw)
}

func ParseFixtures(raw []byte) (Fixtures, error) {
	var fixtures Fixtures
	if err := yaml.Unmarshal(raw, &fixtures); err != nil {
		return Fixtures{}, fmt.Errorf("parse seed fixtures: %w", err)
	}
	for i, staff := range fixtures.Staff {
		if strings.TrimSpace(staff.StaffID) == "" || strings.TrimSpace(staff.Email) == "" {
			return Fixtures{}, fmt.Errorf("seed fixture staff[%d]: staffId and email are required", i)
		}
	}
	return fixtures, nil
}

func ensureStaffFixtures(ctx context.Context, q querier, tenantID string, staff []StaffFixture) error {
	for _, s := range staff {
		_, err := q.Exec(ctx, `
      INSERT INTO staff_records (tenant_id, staff_id, email, first_name, last_name, department, position, is_active)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      ON CONFLICT DO NOTHING
    `, tenantID, strings.TrimSpace(s.StaffID), strings.ToLower(strings.TrimSpace(s.Email)),
			strings.TrimSpace(s.FirstName), strings.TrimSpace(s.LastName), s.Department, s.Position, !s.Inactive)
		if err != nil {
			return err
		}
	}
	return nil
}
