package payroll

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUploadNotFound   = errors.New("payroll upload not found")
	ErrNoFailedExport   = errors.New("payroll upload has no failed records export")
	ErrPayslipNotFound  = errors.New("payslip not found")
	ErrPayslipForbidden = errors.New("payslip belongs to another staff member")
)

// RowError rejects one upload row. Message is what ends up in the batch error
// list and in the failed-records export.
type RowError struct {
	Row     int
	Message string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

func rowErrorf(row int, format string, args ...any) *RowError {
	return &RowError{Row: row, Message: fmt.Sprintf(format, args...)}
}

func missingColumnsError(row int, missing []RequiredColumn) *RowError {
	names := make([]string, len(missing))
	for i, col := range missing {
		names[i] = string(col)
	}
	return rowErrorf(row, "Missing required column values: %s", strings.Join(names, ", "))
}
