package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"hrms/internal/platform/config"
)

const (
	JobExpirePostings        = "expire_job_postings"
	JobFailedExportRetention = "failed_export_retention"
)

type PostingExpirer interface {
	ExpirePostings(ctx context.Context, tenantID string) (int64, error)
}

type ExportPurger interface {
	PurgeFailedExports(ctx context.Context, cutoff time.Time) (int, error)
}

// KeyPurger drops idempotency keys past their replay window.
type KeyPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service runs background jobs one at a time from a queue and records every
// run in job_runs. Cron schedules feed the queue.
type Service struct {
	DB       *pgxpool.Pool
	Cfg      config.Config
	Postings PostingExpirer
	Exports  ExportPurger
	Keys     KeyPurger
	Now      func() time.Time

	queue chan job
	cron  *cron.Cron
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

var scheduleParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedules checks the cron expressions in cfg. Empty expressions
// turn a schedule off.
func ValidateSchedules(cfg config.Config) error {
	for name, spec := range map[string]string{
		"JOB_EXPIRY_CRON":            cfg.JobExpiryCron,
		"FAILED_EXPORT_CLEANUP_CRON": cfg.FailedExportCleanupCron,
	} {
		if spec == "" {
			continue
		}
		if _, err := scheduleParser.Parse(spec); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func New(db *pgxpool.Pool, cfg config.Config, postings PostingExpirer, exports ExportPurger) *Service {
	return &Service{
		DB:       db,
		Cfg:      cfg,
		Postings: postings,
		Exports:  exports,
		Now:      time.Now,
		queue:    make(chan job, 128),
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start launches the worker and the cron scheduler. Both stop when ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	c := cron.New(cron.WithParser(scheduleParser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if s.Cfg.JobExpiryCron != "" && s.Postings != nil {
		if _, err := c.AddFunc(s.Cfg.JobExpiryCron, func() { s.enqueueExpiry(ctx) }); err != nil {
			return fmt.Errorf("schedule %s: %w", JobExpirePostings, err)
		}
	}
	if s.Cfg.FailedExportCleanupCron != "" && s.Exports != nil && s.Cfg.FailedExportRetention > 0 {
		if _, err := c.AddFunc(s.Cfg.FailedExportCleanupCron, func() { s.enqueueRetention() }); err != nil {
			return fmt.Errorf("schedule %s: %w", JobFailedExportRetention, err)
		}
	}
	s.cron = c

	go s.worker(ctx)
	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if s.DB != nil {
		if err := s.DB.QueryRow(ctx, `
      INSERT INTO job_runs (tenant_id, job_type, status)
      VALUES ($1,$2,$3)
      RETURNING id
    `, nullIfEmpty(j.TenantID), j.Type, "running").Scan(&runID); err != nil {
			slog.Warn("job run insert failed", "err", err)
		}
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) enqueueExpiry(ctx context.Context) {
	tenants, err := s.listTenants(ctx)
	if err != nil {
		slog.Warn("expiry scheduler tenant lookup failed", "err", err)
		return
	}
	for _, tenantID := range tenants {
		tenant := tenantID
		s.Enqueue(JobExpirePostings, tenant, func(ctx context.Context) (any, error) {
			return s.expirePostings(ctx, tenant)
		})
	}
}

func (s *Service) expirePostings(ctx context.Context, tenantID string) (any, error) {
	closed, err := s.Postings.ExpirePostings(ctx, tenantID)
	return map[string]any{"closed": closed}, err
}

func (s *Service) enqueueRetention() {
	s.Enqueue(JobFailedExportRetention, "", s.purgeFailedExports)
}

// purgeFailedExports also sweeps expired idempotency keys, which share the
// nightly retention slot.
func (s *Service) purgeFailedExports(ctx context.Context) (any, error) {
	cutoff := s.now().Add(-s.Cfg.FailedExportRetention)
	purged, err := s.Exports.PurgeFailedExports(ctx, cutoff)
	details := map[string]any{"cutoff": cutoff, "purged": purged}
	if err != nil || s.Keys == nil || s.Cfg.IdempotencyWindow <= 0 {
		return details, err
	}
	keys, err := s.Keys.PurgeExpired(ctx, s.now().Add(-s.Cfg.IdempotencyWindow))
	details["idempotencyKeys"] = keys
	return details, err
}

func (s *Service) listTenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
