package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is the persisted form of a payroll row.
type Record struct {
	ID                  string
	TenantID            string
	StaffRecordID       string
	Month               string
	PeriodMonth         int
	Year                int
	GrossPay            decimal.Decimal
	ProratedGrossPay    decimal.Decimal
	Basic               decimal.Decimal
	Housing             decimal.Decimal
	Transport           decimal.Decimal
	Dressing            decimal.Decimal
	LeaveAllowance      decimal.Decimal
	Entertainment       decimal.Decimal
	Utility             decimal.Decimal
	BonusKPI            decimal.Decimal
	Deductions          decimal.Decimal
	Payee               decimal.Decimal
	Pension             decimal.Decimal
	MedicalContribution decimal.Decimal
	NetSalary           decimal.Decimal
	FinalGross          decimal.Decimal
	DaysInMonth         decimal.Decimal
	DaysWorked          decimal.Decimal
	Status              string
	UploadedBy          string
}

func recordFromRow(tenantID, staffRecordID, actorID string, row *Row) Record {
	return Record{
		TenantID:            tenantID,
		StaffRecordID:       staffRecordID,
		Month:               row.Period.Label,
		PeriodMonth:         int(row.Period.Period.Month),
		Year:                row.Period.Period.Year,
		GrossPay:            row.GrossPay,
		ProratedGrossPay:    row.ProratedGrossPay,
		Basic:               row.Basic,
		Housing:             row.Housing,
		Transport:           row.Transport,
		Dressing:            row.Dressing,
		LeaveAllowance:      row.LeaveAllowance,
		Entertainment:       row.Entertainment,
		Utility:             row.Utility,
		BonusKPI:            row.BonusKPI,
		Deductions:          row.Deduction,
		Payee:               row.Payee,
		Pension:             row.Pension,
		MedicalContribution: row.MedicalContribution,
		NetSalary:           row.NetSalary,
		FinalGross:          row.FinalGross,
		DaysInMonth:         row.DaysInMonth,
		DaysWorked:          row.DaysWorked,
		Status:              StatusProcessed,
		UploadedBy:          actorID,
	}
}

type Payslip struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenantId"`
	PayrollID     string          `json:"payrollId"`
	StaffRecordID string          `json:"staffRecordId"`
	Month         string          `json:"month"`
	Year          int             `json:"year"`
	FilePath      string          `json:"-"`
	FileName      string          `json:"fileName"`
	GrossPay      decimal.Decimal `json:"grossPay"`
	NetPay        decimal.Decimal `json:"netPay"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// UploadBatch is the summary row written once per upload.
type UploadBatch struct {
	ID                string
	TenantID          string
	FileName          string
	FilePath          string
	ProcessedFilePath string
	ProcessedFileName string
	TotalRecords      int
	Successful        int
	Failed            int
	Errors            []string
	UploadedBy        string
	CreatedAt         time.Time
}

// ProcessedRecord is an accepted row as echoed back to the uploader.
type ProcessedRecord map[string]any

// FailedRecord is the original row plus the error column.
type FailedRecord map[string]string

type Results struct {
	Successful        int               `json:"successful"`
	Failed            int               `json:"failed"`
	PayslipsGenerated int               `json:"payslipsGenerated"`
	EmailsSent        int               `json:"emailsSent"`
	ProcessedRecords  []ProcessedRecord `json:"processedRecords"`
	FailedRecords     []FailedRecord    `json:"failedRecords"`
	Errors            []string          `json:"errors"`
	Warnings          []string          `json:"warnings"`
}

type Summary struct {
	TotalProcessed    int `json:"totalProcessed"`
	Successful        int `json:"successful"`
	Failed            int `json:"failed"`
	PayslipsGenerated int `json:"payslipsGenerated"`
	EmailsSent        int `json:"emailsSent"`
}

type UploadResponse struct {
	Results               Results `json:"results"`
	UploadID              string  `json:"uploadId"`
	Summary               Summary `json:"summary"`
	FailedRecordsDownload string  `json:"failedRecordsDownload,omitempty"`
}

// Upload is one file submission.
type Upload struct {
	TenantID    string
	ActorID     string
	FileName    string
	ContentType string
	Data        []byte
	SendEmails  bool
}
