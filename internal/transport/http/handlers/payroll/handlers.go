package payrollhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
	uploadEndpoint  = "payroll.upload"
)

type PayrollService interface {
	Upload(ctx context.Context, up payroll.Upload) (*payroll.UploadResponse, error)
	GetUpload(ctx context.Context, tenantID, uploadID string) (*payroll.UploadBatch, error)
	FailedExport(ctx context.Context, tenantID, uploadID string) (string, []byte, error)
	PayslipFile(ctx context.Context, who payroll.PayslipRequester, payslipID string) (string, []byte, error)
}

type IdempotencyStore interface {
	Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

// UserEmails resolves the login email of callers whose token carries none.
type UserEmails interface {
	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
}

type Handler struct {
	Service PayrollService
	Perms   middleware.PermissionStore
	Audit   shared.AuditRecorder
	Idem    IdempotencyStore
	Users   UserEmails
}

func NewHandler(service PayrollService, perms middleware.PermissionStore, auditor shared.AuditRecorder, idem IdempotencyStore, users UserEmails) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Idem: idem, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermPayrollUpload, h.Perms)).Post("/upload", h.handleUpload)
		r.With(middleware.RequirePermission(auth.PermPayrollUpload, h.Perms)).Get("/uploads/{uploadID}", h.handleGetUpload)
		r.With(middleware.RequirePermission(auth.PermPayrollExport, h.Perms)).Get("/download-failed/{uploadID}", h.handleDownloadFailed)
	})
	r.With(middleware.RequirePermission(auth.PermPayslipRead, h.Perms)).Get("/payslips/{payslipID}/download", h.handleDownloadPayslip)
}

type uploadView struct {
	ID                string    `json:"id"`
	FileName          string    `json:"fileName"`
	TotalRecords      int       `json:"totalRecords"`
	Successful        int       `json:"successful"`
	Failed            int       `json:"failed"`
	Errors            []string  `json:"errors"`
	HasFailedExport   bool      `json:"hasFailedExport"`
	UploadedBy        string    `json:"uploadedBy,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	FailedRecordsLink string    `json:"failedRecordsDownload,omitempty"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
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
	sendEmails := shared.FormBool(r, "sendEmails")

	idemKey := r.Header.Get("Idempotency-Key")
	requestHash := middleware.RequestHash(file.Data, []byte(file.Name+"|"+strconv.FormatBool(sendEmails)))
	if idemKey != "" && h.Idem != nil {
		stored, found, err := h.Idem.Check(r.Context(), user.TenantID, user.UserID, uploadEndpoint, idemKey, requestHash)
		if err != nil {
			if errors.Is(err, middleware.ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with different payload", requestID)
				return
			}
			api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "failed to check idempotency", requestID)
			return
		}
		if found {
			api.Success(w, json.RawMessage(stored), requestID)
			return
		}
	}

	resp, err := h.Service.Upload(r.Context(), payroll.Upload{
		TenantID:    user.TenantID,
		ActorID:     user.UserID,
		FileName:    file.Name,
		ContentType: file.ContentType,
		Data:        file.Data,
		SendEmails:  sendEmails,
	})
	if err != nil {
		if shared.FailUpload(w, err, requestID) {
			return
		}
		slog.Error("payroll upload failed", "tenantId", user.TenantID, "file", file.Name, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payroll_upload_failed", "Failed to process payroll upload", requestID)
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionPayrollUpload,
		EntityType: "payroll_upload",
		EntityID:   resp.UploadID,
		RequestID:  requestID,
		IP:         middleware.ClientIP(r),
		After:      resp.Summary,
	})

	if idemKey != "" && h.Idem != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.Idem.Save(r.Context(), user.TenantID, user.UserID, uploadEndpoint, idemKey, requestHash, payload); err != nil {
				slog.Warn("idempotency save failed", "uploadId", resp.UploadID, "err", err)
			}
		}
	}
	api.Success(w, resp, requestID)
}

func (h *Handler) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	uploadID := chi.URLParam(r, "uploadID")
	if !shared.ValidID(uploadID) {
		api.Fail(w, http.StatusNotFound, "not_found", "Upload record not found", requestID)
		return
	}
	batch, err := h.Service.GetUpload(r.Context(), user.TenantID, uploadID)
	if errors.Is(err, payroll.ErrUploadNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "Upload record not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_upload_lookup_failed", "failed to load upload", requestID)
		return
	}
	view := uploadView{
		ID:              batch.ID,
		FileName:        batch.FileName,
		TotalRecords:    batch.TotalRecords,
		Successful:      batch.Successful,
		Failed:          batch.Failed,
		Errors:          batch.Errors,
		HasFailedExport: batch.ProcessedFilePath != "",
		UploadedBy:      batch.UploadedBy,
		CreatedAt:       batch.CreatedAt,
	}
	if view.Errors == nil {
		view.Errors = []string{}
	}
	if view.HasFailedExport {
		view.FailedRecordsLink = "/api/v1/payroll/download-failed/" + batch.ID
	}
	api.Success(w, view, requestID)
}

func (h *Handler) handleDownloadFailed(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	uploadID := chi.URLParam(r, "uploadID")
	if !shared.ValidID(uploadID) {
		api.Fail(w, http.StatusNotFound, "not_found", "Upload record not found", requestID)
		return
	}
	name, data, err := h.Service.FailedExport(r.Context(), user.TenantID, uploadID)
	switch {
	case errors.Is(err, payroll.ErrUploadNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Upload record not found", requestID)
		return
	case errors.Is(err, payroll.ErrNoFailedExport):
		api.Fail(w, http.StatusNotFound, "not_found", "No failed records file available for this upload", requestID)
		return
	case err != nil:
		slog.Error("failed export download failed", "tenantId", user.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "download_failed", "Failed to download file", requestID)
		return
	}
	api.Attachment(w, xlsxContentType, name, data)
}

func (h *Handler) handleDownloadPayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}

	payslipID := chi.URLParam(r, "payslipID")
	if !shared.ValidID(payslipID) {
		api.Fail(w, http.StatusNotFound, "not_found", "Payslip not found", requestID)
		return
	}

	who := payroll.PayslipRequester{
		TenantID: user.TenantID,
		Email:    user.Email,
		Admin:    auth.IsPayrollAdmin(user.RoleName),
	}
	if who.Email == "" && !who.Admin && h.Users != nil {
		email, err := h.Users.UserEmail(r.Context(), user.TenantID, user.UserID)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "payslip_download_failed", "failed to resolve caller", requestID)
			return
		}
		who.Email = email
	}

	name, data, err := h.Service.PayslipFile(r.Context(), who, payslipID)
	switch {
	case errors.Is(err, payroll.ErrPayslipNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "Payslip not found", requestID)
		return
	case errors.Is(err, payroll.ErrPayslipForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", "you may only download your own payslips", requestID)
		return
	case err != nil:
		slog.Error("payslip download failed", "tenantId", user.TenantID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "payslip_download_failed", "Failed to download payslip", requestID)
		return
	}
	api.Attachment(w, pdfContentType, name, data)
}
