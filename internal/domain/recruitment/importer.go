package recruitment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hrms/internal/platform/spreadsheet"
)

const (
	ColTitle          = "title"
	ColDescription    = "description"
	ColDepartment     = "department"
	ColPosition       = "position"
	ColExpirationDate = "expirationDate"
)

var jobHeaders = spreadsheet.NewHeaderMap(ColTitle, ColDescription, ColDepartment, ColPosition).
	Alias(ColExpirationDate, "Expiration Date", "expiration_date", "Expires")

type JobCreator interface {
	CreateJob(ctx context.Context, tenantID, actorID string, job NewJob) (*Job, error)
}

// ImportJobs creates one OPEN posting per valid row. Rows that fail are
// listed as "Row n: ..." with every problem of the row joined by "; ".
func ImportJobs(ctx context.Context, store JobCreator, tenantID, actorID, fileName, contentType string, data []byte) (*ImportResult, error) {
	table, err := spreadsheet.Read(data, fileName, contentType, jobHeaders)
	if errors.Is(err, spreadsheet.ErrNoRows) {
		return nil, ErrNoJobRows
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Summary: ImportSummary{Total: len(table.Rows)}, Errors: []string{}}
	for _, row := range table.Rows {
		displayRow := row.Index + 2
		job, problems := parseJobRow(row)
		if len(problems) > 0 {
			result.Summary.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", displayRow, strings.Join(problems, "; ")))
			continue
		}
		if _, err := store.CreateJob(ctx, tenantID, actorID, job); err != nil {
			result.Summary.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", displayRow, err))
			continue
		}
		result.Summary.Successful++
	}
	return result, nil
}

func parseJobRow(row spreadsheet.Row) (NewJob, []string) {
	job := NewJob{
		Title:       row.Get(ColTitle),
		Description: row.Get(ColDescription),
		Department:  row.Get(ColDepartment),
		Position:    row.Get(ColPosition),
	}
	var problems []string
	if job.Title == "" {
		problems = append(problems, "Missing title")
	}
	if job.Description == "" {
		problems = append(problems, "Missing description")
	}
	if job.Department == "" {
		problems = append(problems, "Missing department")
	}
	if job.Position == "" {
		problems = append(problems, "Missing position")
	}
	expires, ok := ParseExpirationDate(row.Get(ColExpirationDate))
	if !ok {
		problems = append(problems, "Invalid or missing expirationDate")
	}
	job.ExpirationDate = expires
	return job, problems
}
