package staff

import (
	"context"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"hrms/internal/platform/spreadsheet"
)

const (
	ColStaffID       = "staffId"
	ColEmail         = "email"
	ColFirstName     = "firstName"
	ColLastName      = "lastName"
	ColDepartment    = "department"
	ColPosition      = "position"
	ColBankName      = "bankName"
	ColAccountNumber = "accountNumber"
	ColBVN           = "bvn"
)

var requiredImportColumns = []string{ColStaffID, ColEmail, ColFirstName, ColLastName, ColDepartment, ColPosition}

var importHeaders = spreadsheet.NewHeaderMap(ColBankName, ColBVN).
	Alias(ColStaffID, "StaffID", "Staff ID", "Staff Id").
	Alias(ColEmail, "Email", "Email Address").
	Alias(ColFirstName, "First Name").
	Alias(ColLastName, "Last Name").
	Alias(ColDepartment, "Department").
	Alias(ColPosition, "Position", "Designation").
	Alias(ColBankName, "Bank Name", "Bank").
	Alias(ColAccountNumber, "Account Number", "Account No").
	Alias(ColBVN, "BVN")

var staffIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)

type ImportStore interface {
	Exists(ctx context.Context, tenantID, staffID, email string) (bool, error)
	Create(ctx context.Context, tenantID, actorID string, rec NewRecord) (*Record, error)
	CreateUpload(ctx context.Context, summary UploadSummary) (string, error)
}

// Importer registers staff in bulk from a spreadsheet. Rows are independent:
// a bad row is reported and the rest continue.
type Importer struct {
	store    ImportStore
	validate *validator.Validate
}

func NewImporter(store ImportStore) *Importer {
	return &Importer{store: store, validate: validator.New()}
}

func (im *Importer) Import(ctx context.Context, tenantID, actorID, fileName, contentType string, data []byte) (*ImportResult, error) {
	table, err := spreadsheet.Read(data, fileName, contentType, importHeaders)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(table.Headers))
	for _, h := range table.Headers {
		present[h] = true
	}
	var missing []string
	for _, col := range requiredImportColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing, Found: table.Headers}
	}

	result := &ImportResult{TotalRecords: len(table.Rows), Errors: []RowError{}, CreatedStaff: []Record{}}
	for _, row := range table.Rows {
		displayRow := row.Index + 2
		rec := NewRecord{
			StaffID:       row.Get(ColStaffID),
			Email:         row.Get(ColEmail),
			FirstName:     row.Get(ColFirstName),
			LastName:      row.Get(ColLastName),
			Department:    row.Get(ColDepartment),
			Position:      row.Get(ColPosition),
			BankName:      row.Get(ColBankName),
			AccountNumber: row.Get(ColAccountNumber),
			BVN:           row.Get(ColBVN),
		}
		created, msg, err := im.importRow(ctx, tenantID, actorID, rec)
		if err != nil {
			return nil, err
		}
		if msg != "" {
			result.Failed++
			result.Errors = append(result.Errors, RowError{Row: displayRow, Error: msg})
			continue
		}
		result.Successful++
		result.CreatedStaff = append(result.CreatedStaff, *created)
	}

	uploadID, err := im.store.CreateUpload(ctx, UploadSummary{
		TenantID:     tenantID,
		FileName:     fileName,
		TotalRecords: result.TotalRecords,
		Successful:   result.Successful,
		Failed:       result.Failed,
		Errors:       result.Errors,
		UploadedBy:   actorID,
	})
	if err != nil {
		return nil, fmt.Errorf("record staff upload: %w", err)
	}
	result.UploadID = uploadID
	return result, nil
}

// importRow returns a row-level message for rejected rows and an error only
// when the store is unusable.
func (im *Importer) importRow(ctx context.Context, tenantID, actorID string, rec NewRecord) (*Record, string, error) {
	for _, value := range []string{rec.StaffID, rec.Email, rec.FirstName, rec.LastName, rec.Department, rec.Position} {
		if value == "" {
			return nil, "Missing required fields", nil
		}
	}
	if err := im.validate.Var(rec.Email, "email"); err != nil {
		return nil, fmt.Sprintf("Invalid email format: %s", rec.Email), nil
	}
	if !staffIDPattern.MatchString(rec.StaffID) {
		return nil, "Staff ID must be 3-20 alphanumeric characters", nil
	}

	exists, err := im.store.Exists(ctx, tenantID, rec.StaffID, rec.Email)
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, fmt.Sprintf("Staff with ID %s or email %s already exists", rec.StaffID, rec.Email), nil
	}

	created, err := im.store.Create(ctx, tenantID, actorID, rec)
	if err != nil {
		return nil, fmt.Sprintf("Failed to create staff record: %v", err), nil
	}
	return created, "", nil
}
