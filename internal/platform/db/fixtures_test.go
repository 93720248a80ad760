package db

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestParseFixtures(t *testing.T) {
	c := qt.New(t)
	raw := []byte(`
staff:
  - staffId: EMP001
    email: Ada@Example.com
    firstName: Ada
    lastName: Obi
    department: Finance
    position: Analyst
  - staffId: EMP002
    email: bola@example.com
    firstName: Bola
    lastName: Ade
    inactive: true
`)
	fixtures, err := ParseFixtures(raw)
	c.Assert(err, qt.IsNil)
	c.Assert(fixtures.Staff, qt.HasLen, 2)
	c.Assert(fixtures.Staff[0].StaffID, qt.Equals, "EMP001")
	c.Assert(fixtures.Staff[1].Inactive, qt.IsTrue)
}

func TestParseFixturesRequiresIdentity(t *testing.T) {
	c := qt.New(t)
	_, err := ParseFixtures([]byte("staff:\n  - firstName: Ada\n"))
	c.Assert(err, qt.ErrorMatches, `seed fixture staff\[0\]: staffId and email are required`)
}
