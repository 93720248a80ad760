package staff

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound  = errors.New("staff record not found")
	ErrAmbiguous = errors.New("staff name matches multiple staff records")
)

// MissingColumnsError rejects an import file before any row is read.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("Missing required columns: %s. Found columns: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}
