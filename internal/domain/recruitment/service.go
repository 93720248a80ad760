package recruitment

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hrms/internal/domain/staff"
)

type StaffLookup interface {
	FindByEmail(ctx context.Context, tenantID, email string) (*staff.Record, error)
}

type FileStore interface {
	Save(dir, name string, data []byte) (string, error)
}

type Service struct {
	store    StoreAPI
	staff    StaffLookup
	cvs      FileStore
	validate *validator.Validate
	Now      func() time.Time
}

func NewService(store StoreAPI, staffLookup StaffLookup, cvs FileStore) *Service {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{store: store, staff: staffLookup, cvs: cvs, validate: validate, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) ImportJobs(ctx context.Context, tenantID, actorID, fileName, contentType string, data []byte) (*ImportResult, error) {
	return ImportJobs(ctx, s.store, tenantID, actorID, fileName, contentType, data)
}

func (s *Service) ListJobs(ctx context.Context, tenantID string, filter JobFilter) (*JobPage, error) {
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	jobs, total, err := s.store.ListJobs(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	return &JobPage{Total: total, Limit: filter.Limit, Offset: filter.Offset, Jobs: jobs}, nil
}

// Apply files an application for the staff member behind req.UserEmail.
// Validation failures come back as validator.ValidationErrors.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*Application, error) {
	req.JobID = strings.TrimSpace(req.JobID)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.CVFileName != "" || len(req.CVData) > 0 {
		switch strings.ToLower(filepath.Ext(req.CVFileName)) {
		case ".pdf", ".docx", ".txt":
		default:
			return nil, ErrUnsupportedCV
		}
	}

	job, err := s.store.GetJob(ctx, req.TenantID, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status == JobStatusClosed || job.ExpirationDate.Before(s.now()) {
		return nil, ErrJobExpired
	}

	member, err := s.staff.FindByEmail(ctx, req.TenantID, req.UserEmail)
	if errors.Is(err, staff.ErrNotFound) {
		return nil, ErrApplicantNotStaff
	}
	if err != nil {
		return nil, err
	}

	app := Application{
		TenantID:  req.TenantID,
		JobID:     job.ID,
		UserID:    req.UserID,
		FirstName: member.FirstName,
		LastName:  member.LastName,
		Email:     member.Email,
		Status:    ApplicationPending,
	}
	if len(req.CVData) > 0 {
		path, err := s.cvs.Save(req.TenantID, req.CVFileName, req.CVData)
		if err != nil {
			return nil, err
		}
		app.CVPath = path
		text, err := ExtractCVText(req.CVFileName, req.CVData)
		if err != nil {
			slog.Warn("cv text extraction failed", "tenantId", req.TenantID, "jobId", job.ID, "err", err)
		}
		app.ParsedCVContent = text
	}
	return s.store.CreateApplication(ctx, app)
}

// Rank orders a job's applicants by keyword matches against its description.
func (s *Service) Rank(ctx context.Context, tenantID string, req SelectionRequest) ([]RankedApplicant, error) {
	req.JobID = strings.TrimSpace(req.JobID)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(ctx, tenantID, req.JobID)
	if err != nil {
		return nil, err
	}
	apps, err := s.store.ListApplications(ctx, tenantID, job.ID)
	if err != nil {
		return nil, err
	}
	return Rank(job.Description, apps), nil
}

// ExpirePostings closes every open posting of the tenant that is past its
// expiration date.
func (s *Service) ExpirePostings(ctx context.Context, tenantID string) (int64, error) {
	return s.store.ExpireJobs(ctx, tenantID, s.now())
}
