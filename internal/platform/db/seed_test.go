package db

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"hrms/internal/domain/auth"
)

func TestShippedRoleCatalogueIsConsistent(t *testing.T) {
	qt.New(t).Assert(checkRoleCatalogue(auth.RolePermissions, auth.DefaultPermissions), qt.IsNil)
}

func TestCheckRoleCatalogueRejectsUnknownPermission(t *testing.T) {
	c := qt.New(t)
	roles := map[string][]string{
		"HR":    {"payroll:upload"},
		"STAFF": {"payslips:read", "payroll:delete"},
	}
	err := checkRoleCatalogue(roles, []string{"payroll:upload", "payslips:read"})
	c.Assert(err, qt.ErrorMatches, `role STAFF grants unknown permission "payroll:delete"`)
}

func TestSortedRoles(t *testing.T) {
	got := sortedRoles(map[string][]string{"STAFF": nil, "HR": nil, "SUPER_ADMIN": nil})
	qt.New(t).Assert(got, qt.DeepEquals, []string{"HR", "STAFF", "SUPER_ADMIN"})
}
