package recruitmenthandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/recruitment"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type RecruitmentService interface {
	ImportJobs(ctx context.Context, tenantID, actorID, fileName, contentType string, data []byte) (*recruitment.ImportResult, error)
	ListJobs(ctx context.Context, tenantID string, filter recruitment.JobFilter) (*recruitment.JobPage, error)
	Apply(ctx context.Context, req recruitment.ApplyRequest) (*recruitment.Application, error)
	Rank(ctx context.Context, tenantID string, req recruitment.SelectionRequest) ([]recruitment.RankedApplicant, error)
}

type UserEmails interface {
	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
}

type Handler struct {
	Service RecruitmentService
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
	Users   UserEmails
}

func NewHandler(service RecruitmentService, perms middleware.PermissionStore, auditor shared.AuditRecorder, users UserEmails) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", h.handleListJobs)
		r.With(middleware.RequirePermission(auth.PermJobsImport, h.Perms)).Post("/upload", h.handleUploadJobs)
	})
	r.Route("/recruitment", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermRecruitmentApply, h.Perms)).Post("/apply", h.handleApply)
		r.With(middleware.RequirePermission(auth.PermRecruitmentRank, h.Perms)).Post("/selection", h.handleSelection)
	})
}

func (h *Handler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	status := r.URL.Query().Get("status")
	v := shared.NewValidator()
	v.Enum("status", status, []string{recruitment.JobStatusOpen, recruitment.JobStatusClosed}, "must be OPEN or CLOSED")
	if v.Reject(w, requestID) {
		return
	}
	page := shared.ParsePagination(r, 50, 200)
	jobs, err := h.Service.ListJobs(r.Context(), user.TenantID, recruitment.JobFilter{
		Status: status,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		slog.Error("list jobs failed", "tenantId", user.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "jobs_list_failed", "failed to list jobs", requestID)
		return
	}
	api.Success(w, jobs, requestID)
}

func (h *Handler) handleUploadJobs(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	file, err := shared.ReadUpload(r, "file")
	if err != nil {
		if !shared.FailUpload(w, err, requestID) {
			api.Fail(w, http.StatusBadRequest, "invalid_request", "could not read upload", requestID)
		}
		return
	}

	result, err := h.Service.ImportJobs(r.Context(), user.TenantID, user.UserID, file.Name, file.ContentType, file.Data)
	if err != nil {
		if errors.Is(err, recruitment.ErrNoJobRows) {
			api.Fail(w, http.StatusBadRequest, "no_rows", err.Error(), requestID)
			return
		}
		if shared.FailUpload(w, err, requestID) {
			return
		}
		slog.Error("job import failed", "tenantId", user.TenantID, "file", file.Name, "err", err)
		api.Fail(w, http.StatusInternalServerError, "jobs_import_failed", "Failed to import jobs", requestID)
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionJobImport,
		EntityType: "job",
		RequestID:  requestID,
		IP:         middleware.ClientIP(r),
		After:      result.Summary,
	})
	api.Success(w, result, requestID)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	cv, err := shared.ReadUpload(r, "cv")
	if err != nil && !errors.Is(err, shared.ErrMissingFile) {
		if !shared.FailUpload(w, err, requestID) {
			api.Fail(w, http.StatusBadRequest, "invalid_request", "could not read upload", requestID)
		}
		return
	}

	email := user.Email
	if email == "" && h.Users != nil {
		email, err = h.Users.UserEmail(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "application_failed", "failed to resolve caller", requestID)
			return
		}
	}
	if email == "" {
		api.Fail(w, http.StatusForbidden, "forbidden", "only registered staff can apply", requestID)
		return
	}

	req := recruitment.ApplyRequest{
		TenantID:  user.TenantID,
		UserID:    user.UserID,
		UserEmail: email,
		JobID:     r.FormValue("jobId"),
	}
	if cv != nil {
		req.CVFileName = cv.Name
		req.CVData = cv.Data
	}

	app, err := h.Service.Apply(r.Context(), req)
	if err != nil {
		h.failRecruitment(w, err, requestID)
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionJobApplication,
		EntityType: "job_application",
		EntityID:   app.ID,
		RequestID:  requestID,
		IP:         middleware.ClientIP(r),
		After:      map[string]string{"jobId": app.JobID, "status": app.Status},
	})
	api.Created(w, app, requestID)
}

func (h *Handler) handleSelection(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	var payload recruitment.SelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	ranked, err := h.Service.Rank(r.Context(), user.TenantID, payload)
	if err != nil {
		h.failRecruitment(w, err, requestID)
		return
	}
	if ranked == nil {
		ranked = []recruitment.RankedApplicant{}
	}

	shared.RecordAudit(r.Context(), h.Audit, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionApplicantRanked,
		EntityType: "job",
		EntityID:   payload.JobID,
		RequestID:  requestID,
		IP:         middleware.ClientIP(r),
		After:      map[string]int{"applicants": len(ranked)},
	})
	api.Success(w, ranked, requestID)
}

func (h *Handler) failRecruitment(w http.ResponseWriter, err error, requestID string) {
	if issues, ok := shared.IssuesFrom(err); ok {
		shared.FailValidation(w, requestID, issues)
		return
	}
	switch {
	case errors.Is(err, recruitment.ErrJobNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Job not found", requestID)
	case errors.Is(err, recruitment.ErrJobExpired):
		api.Fail(w, http.StatusBadRequest, "job_expired", "This job posting has expired", requestID)
	case errors.Is(err, recruitment.ErrUnsupportedCV):
		api.Fail(w, http.StatusBadRequest, "unsupported_format", err.Error(), requestID)
	case errors.Is(err, recruitment.ErrApplicantNotStaff):
		api.Fail(w, http.StatusForbidden, "forbidden", "only registered staff can apply", requestID)
	default:
		slog.Error("recruitment request failed", "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "recruitment_failed", "recruitment request failed", requestID)
	}
}
