package spreadsheet

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader collapses whitespace runs, trims and case-folds a header
// cell so that spelling variants compare equal.
func NormalizeHeader(raw string) string {
	collapsed := strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
	return cases.Fold().String(collapsed)
}

// HeaderMap maps header spellings to canonical column names.
type HeaderMap struct {
	canon map[string]string
}

func NewHeaderMap(canonical ...string) *HeaderMap {
	m := &HeaderMap{canon: make(map[string]string, len(canonical))}
	for _, name := range canonical {
		m.canon[NormalizeHeader(name)] = name
	}
	return m
}

// Alias registers extra spellings for a canonical name.
func (m *HeaderMap) Alias(canonical string, aliases ...string) *HeaderMap {
	m.canon[NormalizeHeader(canonical)] = canonical
	for _, alias := range aliases {
		m.canon[NormalizeHeader(alias)] = canonical
	}
	return m
}

// Canonical returns the canonical name for raw. Unknown headers come back
// trimmed with inner whitespace collapsed.
func (m *HeaderMap) Canonical(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if m == nil {
		return collapsed
	}
	if name, ok := m.canon[NormalizeHeader(collapsed)]; ok {
		return name
	}
	return collapsed
}
