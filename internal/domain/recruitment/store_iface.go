package recruitment

import (
	"context"
	"time"
)

type StoreAPI interface {
	CreateJob(ctx context.Context, tenantID, actorID string, job NewJob) (*Job, error)
	GetJob(ctx context.Context, tenantID, jobID string) (*Job, error)
	ListJobs(ctx context.Context, tenantID string, filter JobFilter) ([]Job, int, error)
	CreateApplication(ctx context.Context, app Application) (*Application, error)
	ListApplications(ctx context.Context, tenantID, jobID string) ([]Application, error)
	ExpireJobs(ctx context.Context, tenantID string, now time.Time) (int64, error)
}
