package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	UpsertRecord(ctx context.Context, rec Record) (string, error)
	PayslipExists(ctx context.Context, tenantID, staffRecordID, month string, year int) (bool, error)
	CreatePayslip(ctx context.Context, p Payslip) (string, error)
	GetPayslip(ctx context.Context, tenantID, payslipID string) (*Payslip, error)
	CreateUpload(ctx context.Context, batch UploadBatch) (string, error)
	GetUpload(ctx context.Context, tenantID, uploadID string) (*UploadBatch, error)
	ExpiredFailedExports(ctx context.Context, cutoff time.Time) ([]UploadBatch, error)
	ClearFailedExport(ctx context.Context, tenantID, uploadID string) error
	TenantName(ctx context.Context, tenantID string) (string, error)
}
