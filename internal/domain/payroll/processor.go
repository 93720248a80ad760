package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"hrms/internal/domain/notifications"
	"hrms/internal/domain/staff"
	"hrms/internal/platform/spreadsheet"
)

type StaffResolver interface {
	Resolve(ctx context.Context, tenantID, name, email string) (*staff.Record, error)
}

type Notifier interface {
	SendPayslip(ctx context.Context, n notifications.PayslipNotice) error
}

type FileStore interface {
	Save(dir, name string, data []byte) (string, error)
}

type Sealer interface {
	SealFile(name string, data []byte) (string, []byte, error)
}

type UploadRecorder interface {
	RecordUpload(successful, failed, payslips, emails int)
}

// Processor runs the upload pipeline: read, validate, resolve, upsert,
// payslip, notify, report. Rows run one after another and a failed row never
// stops the batch.
type Processor struct {
	Store         StoreAPI
	Staff         StaffResolver
	Notifier      Notifier
	Uploads       FileStore
	Payslips      FileStore
	Sealer        Sealer
	Metrics       UploadRecorder
	PeriodKeyMode string
	Now           func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

type batch struct {
	upload   Upload
	company  string
	now      time.Time
	results  Results
	failures *FailureReport
}

// Process returns an error only for file-level problems or when the batch
// summary cannot be stored. Row problems are reported in the results.
func (p *Processor) Process(ctx context.Context, up Upload) (*UploadResponse, error) {
	table, err := spreadsheet.Read(up.Data, up.FileName, up.ContentType, Headers)
	if err != nil {
		return nil, err
	}
	table.DropPercentageRow(PercentageColumns...)

	b := &batch{
		upload:   up,
		now:      p.now(),
		failures: NewFailureReport(),
		results: Results{
			ProcessedRecords: []ProcessedRecord{},
			FailedRecords:    []FailedRecord{},
			Errors:           []string{},
			Warnings:         []string{},
		},
	}
	if name, err := p.Store.TenantName(ctx, up.TenantID); err == nil {
		b.company = name
	} else {
		slog.Warn("tenant name lookup failed", "tenantId", up.TenantID, "err", err)
	}

	for _, src := range table.Rows {
		if rerr := p.processRow(ctx, b, src); rerr != nil {
			b.results.Failed++
			b.results.Errors = append(b.results.Errors, rerr.Error())
			b.failures.Add(src, rerr.Message)
		}
	}
	b.results.FailedRecords = b.failures.Records()
	if b.results.FailedRecords == nil {
		b.results.FailedRecords = []FailedRecord{}
	}

	record := UploadBatch{
		TenantID:     up.TenantID,
		FileName:     up.FileName,
		TotalRecords: len(table.Rows),
		Successful:   b.results.Successful,
		Failed:       b.results.Failed,
		Errors:       b.results.Errors,
		UploadedBy:   up.ActorID,
	}
	if b.failures.Len() > 0 {
		path, name, err := p.writeFailedExport(b)
		if err != nil {
			slog.Warn("failed records export not written", "tenantId", up.TenantID, "err", err)
		} else {
			record.ProcessedFilePath = path
			record.ProcessedFileName = name
		}
	}
	if path, err := p.Uploads.Save("", up.FileName, up.Data); err != nil {
		slog.Warn("original upload not stored", "tenantId", up.TenantID, "file", up.FileName, "err", err)
	} else {
		record.FilePath = path
	}

	uploadID, err := p.Store.CreateUpload(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("record payroll upload: %w", err)
	}
	if p.Metrics != nil {
		p.Metrics.RecordUpload(b.results.Successful, b.results.Failed, b.results.PayslipsGenerated, b.results.EmailsSent)
	}

	resp := &UploadResponse{
		Results:  b.results,
		UploadID: uploadID,
		Summary: Summary{
			TotalProcessed:    len(table.Rows),
			Successful:        b.results.Successful,
			Failed:            b.results.Failed,
			PayslipsGenerated: b.results.PayslipsGenerated,
			EmailsSent:        b.results.EmailsSent,
		},
	}
	if record.ProcessedFilePath != "" {
		resp.FailedRecordsDownload = "/api/v1/payroll/download-failed/" + uploadID
	}
	return resp, nil
}

func (p *Processor) processRow(ctx context.Context, b *batch, src spreadsheet.Row) *RowError {
	row, rerr := ParseRow(src, ParseOptions{Now: b.now, PeriodKeyMode: p.PeriodKeyMode})
	if rerr != nil {
		return rerr
	}

	member, err := p.Staff.Resolve(ctx, b.upload.TenantID, row.Name, row.Email)
	switch {
	case errors.Is(err, staff.ErrNotFound):
		return rowErrorf(row.Number, "Staff record not found for %s. Staff must be pre-registered.", row.Identity())
	case errors.Is(err, staff.ErrAmbiguous):
		return rowErrorf(row.Number, "Staff name %s matches multiple staff records. Use EMAIL to disambiguate.", row.Name)
	case err != nil:
		return rowErrorf(row.Number, "%v", err)
	}

	payrollID, err := p.Store.UpsertRecord(ctx, recordFromRow(b.upload.TenantID, member.ID, b.upload.ActorID, row))
	if err != nil {
		return rowErrorf(row.Number, "%v", err)
	}

	if rerr := p.ensurePayslip(ctx, b, row, member, payrollID); rerr != nil {
		return rerr
	}

	if b.upload.SendEmails && p.Notifier != nil {
		err := p.Notifier.SendPayslip(ctx, notifications.PayslipNotice{
			TenantID:      b.upload.TenantID,
			StaffRecordID: member.ID,
			StaffName:     member.FullName(),
			Email:         member.Email,
			Month:         row.Period.Label,
			Year:          row.Period.Period.Year,
			NetSalary:     FormatNaira(row.NetSalary),
		})
		if err != nil {
			warning := rowErrorf(row.Number, "Email sending failed - %v", err).Error()
			b.results.Errors = append(b.results.Errors, warning)
			b.results.Warnings = append(b.results.Warnings, warning)
		} else {
			b.results.EmailsSent++
		}
	}

	b.results.Successful++
	processed := ProcessedRecord{}
	for k, v := range src.Values {
		processed[k] = v
	}
	processed["staffId"] = member.StaffID
	processed["staffName"] = member.FullName()
	processed["netSalary"] = row.NetSalary.InexactFloat64()
	processed["status"] = StatusProcessed
	b.results.ProcessedRecords = append(b.results.ProcessedRecords, processed)
	return nil
}

// ensurePayslip creates the payslip for a period the first time it is seen.
// Later uploads for the same period leave the existing payslip alone.
func (p *Processor) ensurePayslip(ctx context.Context, b *batch, row *Row, member *staff.Record, payrollID string) *RowError {
	tenantID := b.upload.TenantID
	exists, err := p.Store.PayslipExists(ctx, tenantID, member.ID, row.Period.Label, row.Period.Period.Year)
	if err != nil {
		return rowErrorf(row.Number, "Payslip DB record error - %v", err)
	}
	if exists {
		return nil
	}

	pdf, err := RenderPayslip(PayslipDocument{
		CompanyName: b.company,
		StaffName:   member.FullName(),
		StaffID:     member.StaffID,
		Email:       member.Email,
		Department:  member.Department,
		Designation: member.Position,
		Row:         row,
		GeneratedAt: b.now,
	})
	if err != nil {
		return rowErrorf(row.Number, "Failed to generate payslip PDF - %v", err)
	}
	name, data := PayslipFileName(member.StaffID, row.Period.Period), pdf
	if p.Sealer != nil {
		if name, data, err = p.Sealer.SealFile(name, data); err != nil {
			return rowErrorf(row.Number, "Failed to generate payslip PDF - %v", err)
		}
	}
	path, err := p.Payslips.Save("", name, data)
	if err != nil {
		return rowErrorf(row.Number, "Failed to generate payslip PDF - %v", err)
	}

	_, err = p.Store.CreatePayslip(ctx, Payslip{
		TenantID:      tenantID,
		PayrollID:     payrollID,
		StaffRecordID: member.ID,
		Month:         row.Period.Label,
		Year:          row.Period.Period.Year,
		FilePath:      path,
		FileName:      filepath.Base(path),
		GrossPay:      row.GrossPay,
		NetPay:        row.NetSalary,
	})
	if err != nil {
		return rowErrorf(row.Number, "Payslip DB record error - %v", err)
	}
	b.results.PayslipsGenerated++
	return nil
}

func (p *Processor) writeFailedExport(b *batch) (string, string, error) {
	data, err := b.failures.Render()
	if err != nil {
		return "", "", err
	}
	path, err := p.Uploads.Save("", FailedExportName(b.now), data)
	if err != nil {
		return "", "", err
	}
	return path, filepath.Base(path), nil
}
