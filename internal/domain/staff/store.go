package staff

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cryptoutil "hrms/internal/platform/crypto"
)

type Store struct {
	DB     *pgxpool.Pool
	Crypto *cryptoutil.Service
}

func NewStore(db *pgxpool.Pool, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

// Associated-data labels for the encrypted bank columns.
const (
	labelAccountNumber = "staff.account_number"
	labelBVN           = "staff.bvn"
)

const recordColumns = `id, tenant_id, staff_id, email, first_name, last_name, department, position, is_active, bank_name, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var r Record
	if err := row.Scan(&r.ID, &r.TenantID, &r.StaffID, &r.Email, &r.FirstName, &r.LastName,
		&r.Department, &r.Position, &r.IsActive, &r.BankName, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// FindByEmail matches case-insensitively and includes inactive staff.
func (s *Store) FindByEmail(ctx context.Context, tenantID, email string) (*Record, error) {
	record, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM staff_records
    WHERE tenant_id = $1 AND lower(email) = lower($2)
  `, tenantID, strings.TrimSpace(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return record, err
}

func (s *Store) Get(ctx context.Context, tenantID, id string) (*Record, error) {
	record, err := scanRecord(s.DB.QueryRow(ctx, `
    SELECT `+recordColumns+`
    FROM staff_records
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return record, err
}

// SearchActiveByName returns active staff whose first and last names contain
// the two name parts, in either order.
func (s *Store) SearchActiveByName(ctx context.Context, tenantID, first, rest string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+recordColumns+`
    FROM staff_records
    WHERE tenant_id = $1
      AND is_active = true
      AND ((first_name ILIKE $2 AND last_name ILIKE $3)
        OR (first_name ILIKE $3 AND last_name ILIKE $2))
    ORDER BY created_at, id
    LIMIT 10
  `, tenantID, containsPattern(first), containsPattern(rest))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *record)
	}
	return out, rows.Err()
}

func (s *Store) Exists(ctx context.Context, tenantID, staffID, email string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM staff_records
    WHERE tenant_id = $1 AND (staff_id = $2 OR lower(email) = lower($3))
  `, tenantID, staffID, email).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) Create(ctx context.Context, tenantID, actorID string, rec NewRecord) (*Record, error) {
	accountEnc, err := s.Crypto.EncryptString(labelAccountNumber, rec.AccountNumber)
	if err != nil {
		return nil, err
	}
	bvnEnc, err := s.Crypto.EncryptString(labelBVN, rec.BVN)
	if err != nil {
		return nil, err
	}
	return scanRecord(s.DB.QueryRow(ctx, `
    INSERT INTO staff_records (tenant_id, staff_id, email, first_name, last_name, department, position,
                               bank_name, account_number_enc, bvn_enc, created_by)
    VALUES ($1,$2,lower($3),$4,$5,$6,$7,$8,$9,$10,$11)
    RETURNING `+recordColumns,
		tenantID, rec.StaffID, rec.Email, rec.FirstName, rec.LastName, rec.Department, rec.Position,
		rec.BankName, accountEnc, bvnEnc, nullIfEmpty(actorID)))
}

func (s *Store) CreateUpload(ctx context.Context, summary UploadSummary) (string, error) {
	errorsJSON, err := json.Marshal(summary.Errors)
	if err != nil {
		return "", err
	}
	if summary.Errors == nil {
		errorsJSON = []byte("[]")
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO staff_uploads (tenant_id, file_name, total_records, successful, failed, errors, uploaded_by)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING id
  `, summary.TenantID, summary.FileName, summary.TotalRecords, summary.Successful, summary.Failed,
		errorsJSON, nullIfEmpty(summary.UploadedBy)).Scan(&id)
	return id, err
}

func containsPattern(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(strings.TrimSpace(value)) + "%"
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
