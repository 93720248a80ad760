package staff

import (
	"strings"
	"time"
)

type Record struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenantId"`
	StaffID    string    `json:"staffId"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	IsActive   bool      `json:"isActive"`
	BankName   string    `json:"bankName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// NewRecord is a staff member read from an import file.
type NewRecord struct {
	StaffID       string `validate:"required,alphanum,min=3,max=20"`
	Email         string `validate:"required,email"`
	FirstName     string `validate:"required"`
	LastName      string `validate:"required"`
	Department    string `validate:"required"`
	Position      string `validate:"required"`
	BankName      string
	AccountNumber string
	BVN           string
}

type RowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type ImportResult struct {
	UploadID     string     `json:"uploadId"`
	TotalRecords int        `json:"totalRecords"`
	Successful   int        `json:"successful"`
	Failed       int        `json:"failed"`
	Errors       []RowError `json:"errors"`
	CreatedStaff []Record   `json:"createdStaff"`
}

type UploadSummary struct {
	TenantID     string
	FileName     string
	TotalRecords int
	Successful   int
	Failed       int
	Errors       []RowError
	UploadedBy   string
}
