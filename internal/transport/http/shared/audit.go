package shared

import (
	"context"
	"log/slog"

	"hrms/internal/domain/audit"
)

type AuditRecorder interface {
	Record(ctx context.Context, entry audit.Entry) error
}

// RecordAudit writes an audit entry. A failed write is logged and never fails
// the request.
func RecordAudit(ctx context.Context, recorder AuditRecorder, entry audit.Entry) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(ctx, entry); err != nil {
		slog.Warn("audit log failed", "action", entry.Action, "tenantId", entry.TenantID, "err", err)
	}
}
