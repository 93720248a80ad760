package payroll

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"hrms/internal/domain/staff"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/storage"
)

type StaffLookup interface {
	FindByEmail(ctx context.Context, tenantID, email string) (*staff.Record, error)
}

type Service struct {
	store     StoreAPI
	processor *Processor
	staff     StaffLookup
	crypto    *cryptoutil.Service
	uploads   *storage.Local
	payslips  *storage.Local
}

func NewService(store StoreAPI, processor *Processor, staffLookup StaffLookup, crypto *cryptoutil.Service, uploads, payslips *storage.Local) *Service {
	return &Service{
		store:     store,
		processor: processor,
		staff:     staffLookup,
		crypto:    crypto,
		uploads:   uploads,
		payslips:  payslips,
	}
}

func (s *Service) Upload(ctx context.Context, up Upload) (*UploadResponse, error) {
	return s.processor.Process(ctx, up)
}

func (s *Service) GetUpload(ctx context.Context, tenantID, uploadID string) (*UploadBatch, error) {
	return s.store.GetUpload(ctx, tenantID, uploadID)
}

// FailedExport returns the failed-records workbook of a batch.
func (s *Service) FailedExport(ctx context.Context, tenantID, uploadID string) (string, []byte, error) {
	batch, err := s.store.GetUpload(ctx, tenantID, uploadID)
	if err != nil {
		return "", nil, err
	}
	if batch.ProcessedFilePath == "" {
		return "", nil, ErrNoFailedExport
	}
	path, err := s.uploads.Resolve(batch.ProcessedFilePath)
	if err != nil {
		return "", nil, err
	}
	if !s.uploads.Exists(path) {
		return "", nil, ErrNoFailedExport
	}
	data, err := s.crypto.OpenFile(path)
	if err != nil {
		return "", nil, err
	}
	name := batch.ProcessedFileName
	if name == "" {
		name = filepath.Base(path)
	}
	return name, data, nil
}

// PayslipRequester is who asks for a payslip. Admins see every payslip in the
// tenant. Everyone else only sees the payslips of the staff record that
// carries their email.
type PayslipRequester struct {
	TenantID string
	Email    string
	Admin    bool
}

// PayslipFile returns the decrypted PDF and a download name.
func (s *Service) PayslipFile(ctx context.Context, who PayslipRequester, payslipID string) (string, []byte, error) {
	payslip, err := s.store.GetPayslip(ctx, who.TenantID, payslipID)
	if err != nil {
		return "", nil, err
	}
	if !who.Admin {
		if who.Email == "" {
			return "", nil, ErrPayslipForbidden
		}
		member, err := s.staff.FindByEmail(ctx, who.TenantID, who.Email)
		if errors.Is(err, staff.ErrNotFound) {
			return "", nil, ErrPayslipForbidden
		}
		if err != nil {
			return "", nil, err
		}
		if member.ID != payslip.StaffRecordID {
			return "", nil, ErrPayslipForbidden
		}
	}

	path, err := s.payslips.Resolve(payslip.FilePath)
	if err != nil {
		return "", nil, err
	}
	data, err := s.crypto.OpenFile(path)
	if err != nil {
		return "", nil, err
	}
	name := payslip.FileName
	if ext := filepath.Ext(name); ext == cryptoutil.EncryptedSuffix {
		name = name[:len(name)-len(ext)]
	}
	return name, data, nil
}

// PurgeFailedExports deletes failed-records workbooks created before cutoff
// and clears them from their batches. It returns how many were purged.
func (s *Service) PurgeFailedExports(ctx context.Context, cutoff time.Time) (int, error) {
	batches, err := s.store.ExpiredFailedExports(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	purged := 0
	for _, b := range batches {
		if err := s.uploads.Remove(b.ProcessedFilePath); err != nil {
			slog.Warn("failed export removal failed", "uploadId", b.ID, "path", b.ProcessedFilePath, "err", err)
			continue
		}
		if err := s.store.ClearFailedExport(ctx, b.TenantID, b.ID); err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}
