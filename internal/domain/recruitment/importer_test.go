package recruitment

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"hrms/internal/platform/spreadsheet"
)

type jobRecorder struct {
	jobs []NewJob
	fail string
}

func (r *jobRecorder) CreateJob(ctx context.Context, tenantID, actorID string, job NewJob) (*Job, error) {
	if job.Title == r.fail {
		return nil, errors.New("insert failed")
	}
	r.jobs = append(r.jobs, job)
	return &Job{TenantID: tenantID, Title: job.Title, Status: JobStatusOpen}, nil
}

func TestImportJobs(t *testing.T) {
	c := qt.New(t)
	csvData := "title,description,department,position,Expiration Date\n" +
		"Backend Engineer,\"Build APIs, own services\",Engineering,Engineer,2026-03-01\n" +
		",,Finance,Analyst,someday\n" +
		"Accountant,Books and ledgers,Finance,Accountant,45657\n" +
		"Broken,Will fail on insert,Ops,Lead,01/02/2026\n"
	store := &jobRecorder{fail: "Broken"}

	result, err := ImportJobs(context.Background(), store, "t1", "u1", "jobs.csv", "text/csv", []byte(csvData))
	c.Assert(err, qt.IsNil)
	c.Assert(result.Summary, qt.Equals, ImportSummary{Total: 4, Successful: 2, Failed: 2})
	c.Assert(result.Errors, qt.DeepEquals, []string{
		"Row 3: Missing title; Missing description; Invalid or missing expirationDate",
		"Row 5: insert failed",
	})
	c.Assert(store.jobs, qt.HasLen, 2)
	c.Assert(store.jobs[0].Description, qt.Equals, "Build APIs, own services")
	c.Assert(store.jobs[1].ExpirationDate.Format("2006-01-02"), qt.Equals, "2024-12-31")
}

func TestImportJobsEmptyFile(t *testing.T) {
	c := qt.New(t)
	_, err := ImportJobs(context.Background(), &jobRecorder{}, "t1", "u1", "jobs.csv", "", []byte("title,description\n"))
	c.Assert(err, qt.Equals, ErrNoJobRows)

	_, err = ImportJobs(context.Background(), &jobRecorder{}, "t1", "u1", "jobs.json", "", []byte("{}"))
	c.Assert(err, qt.ErrorIs, spreadsheet.ErrUnsupportedFormat)
}
