package handlers_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"hrms/internal/app/server"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/payroll"
	"hrms/internal/platform/config"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type journey struct {
	t        *testing.T
	app      *server.App
	ts       *httptest.Server
	tenantID string
	hrToken  string
	suffix   string
}

func newJourney(t *testing.T) *journey {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	dir := t.TempDir()
	cfg := config.Config{
		DatabaseURL:          dbURL,
		JWTSecret:            "test-secret",
		DataEncryptionKey:    "0123456789abcdef0123456789abcdef",
		Environment:          "test",
		SeedTenantName:       "Test Tenant",
		SeedAdminEmail:       "admin@test.local",
		SeedAdminPassword:    "ChangeMe123!",
		EmailFrom:            "no-reply@test.local",
		RunMigrations:        true,
		RunSeed:              true,
		MigrationsDir:        "../../../../migrations",
		MaxBodyBytes:         1048576,
		MaxUploadBytes:       10 << 20,
		RateLimitPerMinute:   1000,
		UploadDir:            dir + "/uploads",
		PayslipDir:           dir + "/payslips",
		CVDir:                dir + "/cvs",
		PublicBaseURL:        "http://localhost:8080",
		PayrollPeriodKeyMode: config.PeriodKeyLegacy,
		AuthzMode:            config.AuthzEnforce,
		MetricsEnabled:       true,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)
	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)

	j := &journey{t: t, app: app, ts: ts, suffix: fmt.Sprint(time.Now().UnixNano() % 1_000_000_000)}
	ctx := context.Background()
	if err := app.DB.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", cfg.SeedTenantName).Scan(&j.tenantID); err != nil {
		t.Fatalf("failed to load tenant: %v", err)
	}
	var adminID, roleID string
	err = app.DB.QueryRow(ctx, `
    SELECT u.id, u.role_id FROM users u WHERE u.tenant_id = $1 AND u.email = $2
  `, j.tenantID, cfg.SeedAdminEmail).Scan(&adminID, &roleID)
	if err != nil {
		t.Fatalf("failed to load admin: %v", err)
	}
	j.hrToken = j.token(auth.Claims{UserID: adminID, TenantID: j.tenantID, RoleID: roleID, RoleName: auth.RoleSuperAdmin, Email: cfg.SeedAdminEmail})
	return j
}

func (j *journey) token(claims auth.Claims) string {
	j.t.Helper()
	token, err := auth.GenerateToken("test-secret", claims, time.Hour)
	if err != nil {
		j.t.Fatalf("token: %v", err)
	}
	return token
}

// staffUser creates a STAFF login for email and returns its token.
func (j *journey) staffUser(email string) string {
	j.t.Helper()
	ctx := context.Background()
	var roleID, userID string
	if err := j.app.DB.QueryRow(ctx, "SELECT id FROM roles WHERE tenant_id = $1 AND name = $2", j.tenantID, auth.RoleStaff).Scan(&roleID); err != nil {
		j.t.Fatalf("failed to load staff role: %v", err)
	}
	hash, err := auth.HashPassword("Staff123!")
	if err != nil {
		j.t.Fatalf("hash: %v", err)
	}
	if err := j.app.DB.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role_id) VALUES ($1, $2, $3, $4) RETURNING id
  `, j.tenantID, email, hash, roleID).Scan(&userID); err != nil {
		j.t.Fatalf("failed to create staff user: %v", err)
	}
	return j.token(auth.Claims{UserID: userID, TenantID: j.tenantID, RoleID: roleID, RoleName: auth.RoleStaff})
}

func (j *journey) upload(path, token, field, fileName string, data []byte, fields map[string]string) (*http.Response, envelope) {
	j.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			j.t.Fatalf("form file: %v", err)
		}
		part.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	req, err := http.NewRequest(http.MethodPost, j.ts.URL+path, &body)
	if err != nil {
		j.t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return j.do(req, token)
}

func (j *journey) do(req *http.Request, token string) (*http.Response, envelope) {
	j.t.Helper()
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := j.ts.Client().Do(req)
	if err != nil {
		j.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &env); err != nil {
			j.t.Fatalf("decode %s: %v (%s)", req.URL.Path, err, raw)
		}
	} else {
		env.Data = raw
	}
	return resp, env
}

func csvBytes(rows ...[]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.WriteAll(rows)
	return buf.Bytes()
}

func payrollRow(name, email string) []string {
	values := map[string]string{
		payroll.ColName:                name,
		payroll.ColEmail:               email,
		payroll.ColWorkingDaysInMonth:  "22",
		payroll.ColDaysWorked:          "22",
		payroll.ColGrossPay:            "500000",
		payroll.ColBasic:               "75000",
		payroll.ColHousing:             "50000",
		payroll.ColTransport:           "50000",
		payroll.ColDressing:            "75000",
		payroll.ColLeaveAllowance:      "75000",
		payroll.ColEntertainment:       "100000",
		payroll.ColUtility:             "75000",
		payroll.ColPayee:               "40000",
		payroll.ColPension:             "30000",
		payroll.ColDeduction:           "0",
		payroll.ColBonusKPI:            "0",
		payroll.ColNetSalary:           "430000",
		payroll.ColFinalGross:          "500000",
		payroll.ColMedicalContribution: "5000",
		payroll.ColMonth:               "March",
		payroll.ColYear:                "2025",
	}
	header := append(append([]string{}, payroll.TemplateColumns...), payroll.ColMonth, payroll.ColYear)
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[col]
	}
	return row
}

func TestPayrollUploadJourney(t *testing.T) {
	j := newJourney(t)
	ctx := context.Background()

	staffID := "J" + j.suffix
	staffEmail := fmt.Sprintf("ada-%s@example.com", j.suffix)
	resp, env := j.upload("/api/v1/staff/upload", j.hrToken, "file", "staff.csv", csvBytes(
		[]string{"Staff ID", "Email", "First Name", "Last Name", "Department", "Position"},
		[]string{staffID, staffEmail, "Ada", "Journey" + j.suffix, "Finance", "Analyst"},
		[]string{"", "broken", "", "", "", ""},
	), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff upload: %d %+v", resp.StatusCode, env.Error)
	}
	var staffResult struct {
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	}
	if err := json.Unmarshal(env.Data, &staffResult); err != nil {
		t.Fatalf("decode staff result: %v", err)
	}
	if staffResult.Successful != 1 || staffResult.Failed != 1 {
		t.Fatalf("unexpected staff import result %+v", staffResult)
	}

	header := append(append([]string{}, payroll.TemplateColumns...), payroll.ColMonth, payroll.ColYear)
	data := csvBytes(header,
		payrollRow("Ada Journey"+j.suffix, staffEmail),
		payrollRow("Nobody Known", "nobody-"+j.suffix+"@example.com"),
	)
	resp, env = j.upload("/api/v1/payroll/upload", j.hrToken, "file", "march.csv", data, map[string]string{"sendEmails": "false"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("payroll upload: %d %+v", resp.StatusCode, env.Error)
	}
	var result payroll.UploadResponse
	if err := json.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("decode payroll result: %v", err)
	}
	if result.Summary.Successful != 1 || result.Summary.Failed != 1 || result.Summary.PayslipsGenerated != 1 {
		t.Fatalf("unexpected payroll summary %+v", result.Summary)
	}
	if !strings.HasPrefix(result.Results.Errors[0], "Row 4: Staff record not found") {
		t.Fatalf("expected the unknown staff row to be reported as row 4, got %v", result.Results.Errors)
	}
	if result.FailedRecordsDownload == "" {
		t.Fatal("expected failed records download link")
	}

	req, _ := http.NewRequest(http.MethodGet, j.ts.URL+result.FailedRecordsDownload, nil)
	resp, env = j.do(req, j.hrToken)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(env.Data, []byte("PK")) {
		t.Fatalf("failed export download: %d", resp.StatusCode)
	}

	var payslipID string
	if err := j.app.DB.QueryRow(ctx, `
    SELECT p.id FROM payslips p JOIN staff_records s ON s.id = p.staff_record_id
    WHERE p.tenant_id = $1 AND s.staff_id = $2
  `, j.tenantID, staffID).Scan(&payslipID); err != nil {
		t.Fatalf("payslip lookup: %v", err)
	}

	staffToken := j.staffUser(staffEmail)
	req, _ = http.NewRequest(http.MethodGet, j.ts.URL+"/api/v1/payslips/"+payslipID+"/download", nil)
	resp, env = j.do(req, staffToken)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/pdf" || !bytes.HasPrefix(env.Data, []byte("%PDF")) {
		t.Fatalf("own payslip download: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	otherToken := j.staffUser(fmt.Sprintf("other-%s@example.com", j.suffix))
	req, _ = http.NewRequest(http.MethodGet, j.ts.URL+"/api/v1/payslips/"+payslipID+"/download", nil)
	resp, _ = j.do(req, otherToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another staff member, got %d", resp.StatusCode)
	}

	// Re-uploading the same period keeps one payroll record per staff member.
	resp, _ = j.upload("/api/v1/payroll/upload", j.hrToken, "file", "march.csv", data, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second payroll upload: %d", resp.StatusCode)
	}
	var records int
	if err := j.app.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM payroll_records p JOIN staff_records s ON s.id = p.staff_record_id
    WHERE p.tenant_id = $1 AND s.staff_id = $2
  `, j.tenantID, staffID).Scan(&records); err != nil {
		t.Fatalf("count payroll records: %v", err)
	}
	if records != 1 {
		t.Fatalf("expected 1 payroll record after re-upload, got %d", records)
	}
}

func TestRecruitmentJourney(t *testing.T) {
	j := newJourney(t)

	staffEmail := fmt.Sprintf("dev-%s@example.com", j.suffix)
	resp, env := j.upload("/api/v1/staff/upload", j.hrToken, "file", "staff.csv", csvBytes(
		[]string{"staffId", "email", "firstName", "lastName", "department", "position"},
		[]string{"R" + j.suffix, staffEmail, "Dev", "Applicant", "Engineering", "Engineer"},
	), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("staff upload: %d %+v", resp.StatusCode, env.Error)
	}

	title := "Backend Engineer " + j.suffix
	expires := time.Now().AddDate(0, 1, 0).Format("2006-01-02")
	resp, env = j.upload("/api/v1/jobs/upload", j.hrToken, "file", "jobs.csv", csvBytes(
		[]string{"Title", "Description", "Department", "Position", "Expiration Date"},
		[]string{title, "Golang services with PostgreSQL and Redis", "Engineering", "Engineer", expires},
		[]string{"", "", "", "", ""},
	), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("jobs upload: %d %+v", resp.StatusCode, env.Error)
	}

	var jobID string
	if err := j.app.DB.QueryRow(context.Background(), "SELECT id FROM jobs WHERE tenant_id = $1 AND title = $2", j.tenantID, title).Scan(&jobID); err != nil {
		t.Fatalf("job lookup: %v", err)
	}

	staffToken := j.staffUser(staffEmail)
	resp, env = j.upload("/api/v1/recruitment/apply", staffToken, "cv", "cv.txt",
		[]byte("Five years of Golang and PostgreSQL"), map[string]string{"jobId": jobID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("apply: %d %+v", resp.StatusCode, env.Error)
	}

	outsider := j.staffUser(fmt.Sprintf("outsider-%s@example.com", j.suffix))
	resp, _ = j.upload("/api/v1/recruitment/apply", outsider, "cv", "", nil, map[string]string{"jobId": jobID})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for applicant without staff record, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, j.ts.URL+"/api/v1/recruitment/selection", strings.NewReader(`{"jobId":"`+jobID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, env = j.do(req, j.hrToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("selection: %d %+v", resp.StatusCode, env.Error)
	}
	var ranked []struct {
		Email      string `json:"email"`
		MatchCount int    `json:"matchCount"`
	}
	if err := json.Unmarshal(env.Data, &ranked); err != nil {
		t.Fatalf("decode ranking: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Email != staffEmail || ranked[0].MatchCount < 2 {
		t.Fatalf("unexpected ranking %+v", ranked)
	}
}

func TestStaffCannotUploadPayroll(t *testing.T) {
	j := newJourney(t)
	token := j.staffUser(fmt.Sprintf("plain-%s@example.com", j.suffix))
	resp, _ := j.upload("/api/v1/payroll/upload", token, "file", "march.csv", []byte("Name\n"), nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
