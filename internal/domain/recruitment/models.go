package recruitment

import "time"

const (
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"

	ApplicationPending = "PENDING"
)

type Job struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Department     string    `json:"department"`
	Position       string    `json:"position"`
	ExpirationDate time.Time `json:"expirationDate"`
	Status         string    `json:"status"`
	CreatedBy      string    `json:"createdBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewJob is a validated posting ready to insert.
type NewJob struct {
	Title          string
	Description    string
	Department     string
	Position       string
	ExpirationDate time.Time
}

type Application struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenantId"`
	JobID           string    `json:"jobId"`
	UserID          string    `json:"userId,omitempty"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	CVPath          string    `json:"-"`
	ParsedCVContent string    `json:"parsedCvContent"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
}

type RankedApplicant struct {
	Application
	MatchCount int `json:"matchCount"`
}

type ImportSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type ImportResult struct {
	Summary ImportSummary `json:"summary"`
	Errors  []string      `json:"errors"`
}

// ApplyRequest is one application. CV is optional.
type ApplyRequest struct {
	TenantID   string `json:"tenantId" validate:"required"`
	UserID     string `json:"userId" validate:"required"`
	UserEmail  string `json:"email" validate:"required,email"`
	JobID      string `json:"jobId" validate:"required,uuid"`
	CVFileName string `json:"cvFileName"`
	CVData     []byte `json:"-"`
}

type SelectionRequest struct {
	JobID string `json:"jobId" validate:"required,uuid"`
}

type JobFilter struct {
	Status string
	Limit  int
	Offset int
}

type JobPage struct {
	Total  int   `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Jobs   []Job `json:"jobs"`
}
