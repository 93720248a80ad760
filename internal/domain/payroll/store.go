package payroll

import (
	"context"
	"encoding/json"
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

// UpsertRecord writes one payroll record per (tenant, staff, month, year),
// overwriting the amounts of an earlier upload for the same period.
func (s *Store) UpsertRecord(ctx context.Context, rec Record) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_records (
      tenant_id, staff_record_id, month, period_month, year,
      gross_pay, prorated_gross_pay, basic_salary, housing, transport, dressing,
      leave_allowance, entertainment, utility, bonus_kpi, deductions, payee,
      pension_deduction, medical_contribution, net_salary, final_gross,
      days_in_month, days_worked, status, uploaded_by
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
    ON CONFLICT (tenant_id, staff_record_id, month, year) DO UPDATE SET
      period_month = EXCLUDED.period_month,
      gross_pay = EXCLUDED.gross_pay,
      prorated_gross_pay = EXCLUDED.prorated_gross_pay,
      basic_salary = EXCLUDED.basic_salary,
      housing = EXCLUDED.housing,
      transport = EXCLUDED.transport,
      dressing = EXCLUDED.dressing,
      leave_allowance = EXCLUDED.leave_allowance,
      entertainment = EXCLUDED.entertainment,
      utility = EXCLUDED.utility,
      bonus_kpi = EXCLUDED.bonus_kpi,
      deductions = EXCLUDED.deductions,
      payee = EXCLUDED.payee,
      pension_deduction = EXCLUDED.pension_deduction,
      medical_contribution = EXCLUDED.medical_contribution,
      net_salary = EXCLUDED.net_salary,
      final_gross = EXCLUDED.final_gross,
      days_in_month = EXCLUDED.days_in_month,
      days_worked = EXCLUDED.days_worked,
      status = EXCLUDED.status,
      uploaded_by = EXCLUDED.uploaded_by,
      updated_at = now()
    RETURNING id
  `, rec.TenantID, rec.StaffRecordID, rec.Month, rec.PeriodMonth, rec.Year,
		rec.GrossPay, rec.ProratedGrossPay, rec.Basic, rec.Housing, rec.Transport, rec.Dressing,
		rec.LeaveAllowance, rec.Entertainment, rec.Utility, rec.BonusKPI, rec.Deductions, rec.Payee,
		rec.Pension, rec.MedicalContribution, rec.NetSalary, rec.FinalGross,
		rec.DaysInMonth, rec.DaysWorked, rec.Status, nullIfEmpty(rec.UploadedBy)).Scan(&id)
	return id, err
}

func (s *Store) PayslipExists(ctx context.Context, tenantID, staffRecordID, month string, year int) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM payslips
    WHERE tenant_id = $1 AND staff_record_id = $2 AND month = $3 AND year = $4
  `, tenantID, staffRecordID, month, year).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreatePayslip(ctx context.Context, p Payslip) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payslips (tenant_id, payroll_id, staff_record_id, month, year, file_path, file_name, gross_pay, net_pay)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, p.TenantID, p.PayrollID, p.StaffRecordID, p.Month, p.Year, p.FilePath, p.FileName, p.GrossPay, p.NetPay).Scan(&id)
	return id, err
}

func (s *Store) GetPayslip(ctx context.Context, tenantID, payslipID string) (*Payslip, error) {
	var p Payslip
	err := s.DB.QueryRow(ctx, `
    SELECT id, tenant_id, payroll_id, staff_record_id, month, year, file_path, file_name, gross_pay, net_pay, created_at
    FROM payslips
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, payslipID).Scan(&p.ID, &p.TenantID, &p.PayrollID, &p.StaffRecordID, &p.Month, &p.Year,
		&p.FilePath, &p.FileName, &p.GrossPay, &p.NetPay, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPayslipNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateUpload(ctx context.Context, batch UploadBatch) (string, error) {
	errs := batch.Errors
	if errs == nil {
		errs = []string{}
	}
	errorsJSON, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO payroll_uploads (tenant_id, file_name, file_path, processed_file_path, processed_file_name,
                                 total_records, successful, failed, errors, uploaded_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, batch.TenantID, batch.FileName, batch.FilePath, nullIfEmpty(batch.ProcessedFilePath), nullIfEmpty(batch.ProcessedFileName),
		batch.TotalRecords, batch.Successful, batch.Failed, errorsJSON, nullIfEmpty(batch.UploadedBy)).Scan(&id)
	return id, err
}

const uploadColumns = `id, tenant_id, file_name, file_path, COALESCE(processed_file_path, ''), COALESCE(processed_file_name, ''),
           total_records, successful, failed, errors, COALESCE(uploaded_by::text, ''), created_at`

func scanUpload(row pgx.Row) (*UploadBatch, error) {
	var b UploadBatch
	var errorsJSON []byte
	if err := row.Scan(&b.ID, &b.TenantID, &b.FileName, &b.FilePath, &b.ProcessedFilePath, &b.ProcessedFileName,
		&b.TotalRecords, &b.Successful, &b.Failed, &errorsJSON, &b.UploadedBy, &b.CreatedAt); err != nil {
		return nil, err
	}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &b.Errors); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func (s *Store) GetUpload(ctx context.Context, tenantID, uploadID string) (*UploadBatch, error) {
	batch, err := scanUpload(s.DB.QueryRow(ctx, `
    SELECT `+uploadColumns+`
    FROM payroll_uploads
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, uploadID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUploadNotFound
	}
	return batch, err
}

// ExpiredFailedExports lists batches across all tenants whose failed-records
// export is older than cutoff.
func (s *Store) ExpiredFailedExports(ctx context.Context, cutoff time.Time) ([]UploadBatch, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+uploadColumns+`
    FROM payroll_uploads
    WHERE processed_file_path IS NOT NULL AND created_at < $1
    ORDER BY created_at
  `, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UploadBatch
	for rows.Next() {
		batch, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *batch)
	}
	return out, rows.Err()
}

func (s *Store) ClearFailedExport(ctx context.Context, tenantID, uploadID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE payroll_uploads
    SET processed_file_path = NULL, processed_file_name = NULL
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, uploadID)
	return err
}

func (s *Store) TenantName(ctx context.Context, tenantID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT name FROM tenants WHERE id = $1", tenantID).Scan(&name)
	return name, err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
