package recruitment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const jobColumns = `id, tenant_id, title, description, department, position, expiration_date, status, COALESCE(created_by::text, ''), created_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	if err := row.Scan(&j.ID, &j.TenantID, &j.Title, &j.Description, &j.Department, &j.Position,
		&j.ExpirationDate, &j.Status, &j.CreatedBy, &j.CreatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) CreateJob(ctx context.Context, tenantID, actorID string, job NewJob) (*Job, error) {
	return scanJob(s.DB.QueryRow(ctx, `
    INSERT INTO jobs (tenant_id, title, description, department, position, expiration_date, status, created_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING `+jobColumns,
		tenantID, job.Title, job.Description, job.Department, job.Position, job.ExpirationDate,
		JobStatusOpen, nullIfEmpty(actorID)))
}

func (s *Store) GetJob(ctx context.Context, tenantID, jobID string) (*Job, error) {
	job, err := scanJob(s.DB.QueryRow(ctx, `
    SELECT `+jobColumns+`
    FROM jobs
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, jobID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	return job, err
}

func (s *Store) ListJobs(ctx context.Context, tenantID string, filter JobFilter) ([]Job, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM jobs
    WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
  `, tenantID, filter.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+jobColumns+`
    FROM jobs
    WHERE tenant_id = $1 AND ($2 = '' OR status = $2)
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, tenantID, filter.Status, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *job)
	}
	return out, total, rows.Err()
}

const applicationColumns = `id, tenant_id, job_id, COALESCE(user_id::text, ''), first_name, last_name, email, cv_path, parsed_cv_content, status, created_at`

func scanApplication(row pgx.Row) (*Application, error) {
	var a Application
	if err := row.Scan(&a.ID, &a.TenantID, &a.JobID, &a.UserID, &a.FirstName, &a.LastName, &a.Email,
		&a.CVPath, &a.ParsedCVContent, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) CreateApplication(ctx context.Context, app Application) (*Application, error) {
	return scanApplication(s.DB.QueryRow(ctx, `
    INSERT INTO job_applications (tenant_id, job_id, user_id, first_name, last_name, email, cv_path, parsed_cv_content, status)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING `+applicationColumns,
		app.TenantID, app.JobID, nullIfEmpty(app.UserID), app.FirstName, app.LastName, app.Email,
		app.CVPath, app.ParsedCVContent, app.Status))
}

func (s *Store) ListApplications(ctx context.Context, tenantID, jobID string) ([]Application, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+applicationColumns+`
    FROM job_applications
    WHERE tenant_id = $1 AND job_id = $2
    ORDER BY created_at, id
  `, tenantID, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *app)
	}
	return out, rows.Err()
}

// ExpireJobs closes the tenant's open postings whose expiration has passed.
func (s *Store) ExpireJobs(ctx context.Context, tenantID string, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE jobs SET status = $3
    WHERE tenant_id = $1 AND status = $4 AND expiration_date < $2
  `, tenantID, now, JobStatusClosed, JobStatusOpen)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
