package staffhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/staff"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Importer interface {
	Import(ctx context.Context, tenantID, actorID, fileName, contentType string, data []byte) (*staff.ImportResult, error)
}

type Handler struct {
	Importer Importer
	Perms    middleware.PermissionStore
	Audit    shared.AuditRecorder
}

func NewHandler(importer Importer, perms middleware.PermissionStore, auditor shared.AuditRecorder) *Handler {
	return &Handler{Importer: importer, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermStaffImport, h.Perms)).Post("/staff/upload", h.handleUpload)
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

	result, err := h.Importer.Import(r.Context(), user.TenantID, user.UserID, file.Name, file.ContentType, file.Data)
	if err != nil {
		var missing *staff.MissingColumnsError
		if errors.As(err, &missing) {
			api.FailWithDetails(w, http.StatusBadRequest, "missing_columns", missing.Error(),
				map[string]any{"missing": missing.Missing, "found": missing.Found}, requestID)
			return
		}
		if shared.FailUpload(w, err, requestID) {
			return
		}
		slog.Error("staff import failed", "tenantId", user.TenantID, "file", file.Name, "err", err)
		api.Fail(w, http.StatusInternalServerError, "staff_import_failed", "Failed to import staff records", requestID)
		return
	}

	shared.RecordAudit(r.Context(), h.Audit, audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    user.UserID,
		Action:     audit.ActionStaffImport,
		EntityType: "staff_upload",
		EntityID:   result.UploadID,
		RequestID:  requestID,
		IP:         middleware.ClientIP(r),
		After: map[string]int{
			"total":      result.TotalRecords,
			"successful": result.Successful,
			"failed":     result.Failed,
		},
	})
	api.Success(w, result, requestID)
}
