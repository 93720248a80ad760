package payroll

import (
	"fmt"
	"time"

	"hrms/internal/platform/spreadsheet"
)

// FailureReport collects rejected rows for the failed-records workbook.
type FailureReport struct {
	records []FailedRecord
	columns []string
	seen    map[string]bool
}

func NewFailureReport() *FailureReport {
	return &FailureReport{seen: map[string]bool{}}
}

func (f *FailureReport) Add(src spreadsheet.Row, message string) {
	record := FailedRecord(src.Record())
	record[ErrorColumn] = message
	for _, key := range src.Keys {
		if key != ErrorColumn && !f.seen[key] {
			f.seen[key] = true
			f.columns = append(f.columns, key)
		}
	}
	f.records = append(f.records, record)
}

func (f *FailureReport) Len() int {
	return len(f.records)
}

func (f *FailureReport) Records() []FailedRecord {
	return f.records
}

// Columns is every key seen so far in first-seen order, then the error column.
func (f *FailureReport) Columns() []string {
	out := make([]string, 0, len(f.columns)+1)
	out = append(out, f.columns...)
	return append(out, ErrorColumn)
}

func (f *FailureReport) Render() ([]byte, error) {
	rows := make([]map[string]string, len(f.records))
	for i, r := range f.records {
		rows[i] = r
	}
	return spreadsheet.WriteReport(FailedRecordsSheet, f.Columns(), rows)
}

func FailedExportName(now time.Time) string {
	return fmt.Sprintf("failed-records-%d.xlsx", now.UnixMilli())
}
