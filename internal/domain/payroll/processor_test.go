package payroll

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/xuri/excelize/v2"

	"hrms/internal/domain/notifications"
	"hrms/internal/domain/staff"
	"hrms/internal/platform/config"
	cryptoutil "hrms/internal/platform/crypto"
	"hrms/internal/platform/spreadsheet"
	"hrms/internal/platform/storage"
)

type memoryStore struct {
	records  map[string]Record
	payslips []Payslip
	uploads  []UploadBatch
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]Record{}}
}

func recordKey(tenantID, staffRecordID, month string, year int) string {
	return fmt.Sprintf("%s|%s|%s|%d", tenantID, staffRecordID, month, year)
}

func (m *memoryStore) UpsertRecord(ctx context.Context, rec Record) (string, error) {
	key := recordKey(rec.TenantID, rec.StaffRecordID, rec.Month, rec.Year)
	if existing, ok := m.records[key]; ok {
		rec.ID = existing.ID
	} else {
		rec.ID = "payroll-" + key
	}
	m.records[key] = rec
	return rec.ID, nil
}

func (m *memoryStore) PayslipExists(ctx context.Context, tenantID, staffRecordID, month string, year int) (bool, error) {
	for _, p := range m.payslips {
		if p.TenantID == tenantID && p.StaffRecordID == staffRecordID && p.Month == month && p.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) CreatePayslip(ctx context.Context, p Payslip) (string, error) {
	p.ID = "payslip-" + p.StaffRecordID
	m.payslips = append(m.payslips, p)
	return p.ID, nil
}

func (m *memoryStore) GetPayslip(ctx context.Context, tenantID, payslipID string) (*Payslip, error) {
	for _, p := range m.payslips {
		if p.TenantID == tenantID && p.ID == payslipID {
			found := p
			return &found, nil
		}
	}
	return nil, ErrPayslipNotFound
}

func (m *memoryStore) CreateUpload(ctx context.Context, batch UploadBatch) (string, error) {
	batch.ID = fmt.Sprintf("upload-%d", len(m.uploads)+1)
	batch.CreatedAt = time.Now()
	m.uploads = append(m.uploads, batch)
	return batch.ID, nil
}

func (m *memoryStore) GetUpload(ctx context.Context, tenantID, uploadID string) (*UploadBatch, error) {
	for _, b := range m.uploads {
		if b.TenantID == tenantID && b.ID == uploadID {
			found := b
			return &found, nil
		}
	}
	return nil, ErrUploadNotFound
}

func (m *memoryStore) ExpiredFailedExports(ctx context.Context, cutoff time.Time) ([]UploadBatch, error) {
	var out []UploadBatch
	for _, b := range m.uploads {
		if b.ProcessedFilePath != "" && b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memoryStore) ClearFailedExport(ctx context.Context, tenantID, uploadID string) error {
	for i := range m.uploads {
		if m.uploads[i].TenantID == tenantID && m.uploads[i].ID == uploadID {
			m.uploads[i].ProcessedFilePath = ""
			m.uploads[i].ProcessedFileName = ""
		}
	}
	return nil
}

func (m *memoryStore) TenantName(ctx context.Context, tenantID string) (string, error) {
	return "Acme Nigeria Ltd", nil
}

type staticResolver struct {
	records []staff.Record
}

func (r staticResolver) Resolve(ctx context.Context, tenantID, name, email string) (*staff.Record, error) {
	var matches []staff.Record
	for _, rec := range r.records {
		if rec.TenantID != tenantID {
			continue
		}
		if email != "" && strings.EqualFold(rec.Email, email) {
			found := rec
			return &found, nil
		}
		if name != "" && strings.Contains(strings.ToLower(rec.FullName()), strings.ToLower(name)) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return nil, staff.ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, staff.ErrAmbiguous
	}
}

type recordingNotifier struct {
	err     error
	notices []notifications.PayslipNotice
}

func (n *recordingNotifier) SendPayslip(ctx context.Context, notice notifications.PayslipNotice) error {
	if n.err != nil {
		return n.err
	}
	n.notices = append(n.notices, notice)
	return nil
}

var processNow = time.Date(2025, time.March, 31, 12, 0, 0, 0, time.UTC)

func newTestProcessor(t *testing.T, store *memoryStore) (*Processor, *storage.Local, *storage.Local) {
	t.Helper()
	uploads := storage.NewLocal(t.TempDir())
	payslips := storage.NewLocal(t.TempDir())
	p := &Processor{
		Store: store,
		Staff: staticResolver{records: []staff.Record{
			{ID: "s1", TenantID: "t1", StaffID: "EMP001", Email: "ada@acme.test", FirstName: "Ada", LastName: "Obi", Department: "Finance", Position: "Analyst", IsActive: true},
			{ID: "s2", TenantID: "t1", StaffID: "EMP002", Email: "john@acme.test", FirstName: "John", LastName: "Bello", IsActive: true},
			{ID: "s3", TenantID: "t1", StaffID: "EMP003", Email: "johnny@acme.test", FirstName: "Johnny", LastName: "Bello", IsActive: true},
			{ID: "s9", TenantID: "t2", StaffID: "EMP009", Email: "musa@other.test", FirstName: "Musa", LastName: "Sani", IsActive: true},
		}},
		Uploads:       uploads,
		Payslips:      payslips,
		PeriodKeyMode: config.PeriodKeyLegacy,
		Now:           func() time.Time { return processNow },
	}
	return p, uploads, payslips
}

func payrollCSV(t *testing.T, withPercentRow bool, rows ...map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := append(append([]string{}, TemplateColumns...), ColMonth, ColYear)
	if err := w.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if withPercentRow {
		pct := make([]string, len(header))
		for i, col := range header {
			for _, p := range PercentageColumns {
				if p == col {
					pct[i] = "15%"
				}
			}
		}
		_ = w.Write(pct)
	}
	for _, values := range rows {
		line := make([]string, len(header))
		for i, col := range header {
			line[i] = values[col]
		}
		_ = w.Write(line)
	}
	w.Flush()
	return buf.Bytes()
}

func upload(data []byte, sendEmails bool) Upload {
	return Upload{TenantID: "t1", ActorID: "actor-1", FileName: "march.csv", Data: data, SendEmails: sendEmails}
}

func TestProcessEndToEnd(t *testing.T) {
	c := qt.New(t)
	store := newMemoryStore()
	p, uploads, _ := newTestProcessor(t, store)

	missing := validValues()
	missing[ColName] = "John Bello"
	missing[ColEmail] = ""
	delete(missing, ColPension)
	delete(missing, ColUtility)

	ghost := validValues()
	ghost[ColName] = "Ghost Worker"
	ghost[ColEmail] = "ghost@acme.test"

	data := payrollCSV(t, true, validValues(), missing, ghost)
	resp, err := p.Process(context.Background(), upload(data, false))
	c.Assert(err, qt.IsNil)

	c.Assert(resp.Summary, qt.Equals, Summary{TotalProcessed: 3, Successful: 1, Failed: 2, PayslipsGenerated: 1, EmailsSent: 0})
	c.Assert(resp.Results.Errors, qt.DeepEquals, []string{
		"Row 4: Missing required column values: Utility, Pension",
		"Row 5: Staff record not found for Ghost Worker. Staff must be pre-registered.",
	})
	c.Assert(resp.UploadID, qt.Equals, "upload-1")
	c.Assert(resp.FailedRecordsDownload, qt.Equals, "/api/v1/payroll/download-failed/upload-1")

	processed := resp.Results.ProcessedRecords[0]
	c.Assert(processed["staffId"], qt.Equals, "EMP001")
	c.Assert(processed["staffName"], qt.Equals, "Ada Obi")
	c.Assert(processed["status"], qt.Equals, StatusProcessed)
	c.Assert(resp.Results.FailedRecords[1][ErrorColumn], qt.Equals, "Staff record not found for Ghost Worker. Staff must be pre-registered.")

	c.Assert(store.records, qt.HasLen, 1)
	rec := store.records[recordKey("t1", "s1", "March", 2025)]
	c.Assert(rec.NetSalary.String(), qt.Equals, "430000.5")
	c.Assert(rec.Status, qt.Equals, StatusProcessed)
	c.Assert(rec.UploadedBy, qt.Equals, "actor-1")

	c.Assert(store.payslips, qt.HasLen, 1)
	c.Assert(store.payslips[0].FileName, qt.Equals, "payslip-EMP001-03-2025.pdf")
	pdf, err := os.ReadFile(store.payslips[0].FilePath)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.HasPrefix(pdf, []byte("%PDF")), qt.IsTrue)

	c.Assert(store.uploads, qt.HasLen, 1)
	batch := store.uploads[0]
	c.Assert(batch.TotalRecords, qt.Equals, 3)
	c.Assert(batch.Failed, qt.Equals, 2)
	c.Assert(uploads.Exists(batch.FilePath), qt.IsTrue)
	c.Assert(strings.HasPrefix(batch.ProcessedFileName, "failed-records-"), qt.IsTrue)

	f, err := excelize.OpenFile(batch.ProcessedFilePath)
	c.Assert(err, qt.IsNil)
	defer f.Close()
	rows, err := f.GetRows(FailedRecordsSheet)
	c.Assert(err, qt.IsNil)
	c.Assert(rows, qt.HasLen, 3)
	c.Assert(rows[0][len(rows[0])-1], qt.Equals, ErrorColumn)
}

func TestProcessReuploadKeepsFirstPayslip(t *testing.T) {
	c := qt.New(t)
	store := newMemoryStore()
	p, _, _ := newTestProcessor(t, store)

	first := validValues()
	_, err := p.Process(context.Background(), upload(payrollCSV(t, true, first), false))
	c.Assert(err, qt.IsNil)

	second := validValues()
	second[ColNetSalary] = "440000"
	resp, err := p.Process(context.Background(), upload(payrollCSV(t, true, second), false))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.Successful, qt.Equals, 1)
	c.Assert(resp.Summary.PayslipsGenerated, qt.Equals, 0)
	c.Assert(resp.FailedRecordsDownload, qt.Equals, "")

	c.Assert(store.records, qt.HasLen, 1)
	c.Assert(store.records[recordKey("t1", "s1", "March", 2025)].NetSalary.String(), qt.Equals, "440000")
	c.Assert(store.payslips, qt.HasLen, 1)
}

func TestProcessSealedPayslipsWithSameFileNameAreKept(t *testing.T) {
	c := qt.New(t)
	store := newMemoryStore()
	p, _, _ := newTestProcessor(t, store)
	crypto, err := cryptoutil.New(strings.Repeat("ab", 32))
	c.Assert(err, qt.IsNil)
	p.Sealer = crypto

	upper := validValues()
	upper[ColMonth] = "March"
	upper[ColYear] = "2025"
	lower := validValues()
	lower[ColMonth] = "march"
	lower[ColYear] = "2025"
	lower[ColNetSalary] = "410000"

	resp, err := p.Process(context.Background(), upload(payrollCSV(t, true, upper, lower), false))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.PayslipsGenerated, qt.Equals, 2)

	c.Assert(store.payslips, qt.HasLen, 2)
	first, second := store.payslips[0], store.payslips[1]
	c.Assert(first.FilePath, qt.Not(qt.Equals), second.FilePath)
	c.Assert(first.FileName, qt.Equals, "payslip-EMP001-03-2025.pdf.enc")
	c.Assert(strings.HasSuffix(second.FileName, ".pdf.enc"), qt.IsTrue)

	firstPDF, err := crypto.OpenFile(first.FilePath)
	c.Assert(err, qt.IsNil)
	secondPDF, err := crypto.OpenFile(second.FilePath)
	c.Assert(err, qt.IsNil)
	c.Assert(bytes.HasPrefix(firstPDF, []byte("%PDF")), qt.IsTrue)
	c.Assert(bytes.HasPrefix(secondPDF, []byte("%PDF")), qt.IsTrue)
	c.Assert(bytes.Equal(firstPDF, secondPDF), qt.IsFalse)
}

func TestProcessWithoutPercentageRowStillNumbersFromThree(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestProcessor(t, newMemoryStore())

	bad := validValues()
	bad[ColNetSalary] = "-10"
	resp, err := p.Process(context.Background(), upload(payrollCSV(t, false, validValues(), bad), false))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.TotalProcessed, qt.Equals, 2)
	c.Assert(resp.Results.Errors, qt.DeepEquals, []string{"Row 4: Net Salary cannot be negative. Check payroll values."})
}

func TestProcessAmbiguousAndCrossTenantNames(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestProcessor(t, newMemoryStore())

	ambiguous := validValues()
	ambiguous[ColName] = "Bello"
	ambiguous[ColEmail] = ""
	foreign := validValues()
	foreign[ColName] = "Musa Sani"
	foreign[ColEmail] = "musa@other.test"

	resp, err := p.Process(context.Background(), upload(payrollCSV(t, true, ambiguous, foreign), false))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.Failed, qt.Equals, 2)
	c.Assert(resp.Results.Errors, qt.DeepEquals, []string{
		"Row 3: Staff name Bello matches multiple staff records. Use EMAIL to disambiguate.",
		"Row 4: Staff record not found for Musa Sani. Staff must be pre-registered.",
	})
}

func TestProcessEmailFailureIsWarning(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestProcessor(t, newMemoryStore())
	p.Notifier = &recordingNotifier{err: errors.New("smtp unavailable")}

	resp, err := p.Process(context.Background(), upload(payrollCSV(t, true, validValues()), true))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.Successful, qt.Equals, 1)
	c.Assert(resp.Summary.Failed, qt.Equals, 0)
	c.Assert(resp.Summary.EmailsSent, qt.Equals, 0)
	c.Assert(resp.Results.Warnings, qt.DeepEquals, []string{"Row 3: Email sending failed - smtp unavailable"})
	c.Assert(resp.Results.Errors, qt.DeepEquals, resp.Results.Warnings)
}

func TestProcessSendsPayslipEmail(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestProcessor(t, newMemoryStore())
	notifier := &recordingNotifier{}
	p.Notifier = notifier

	resp, err := p.Process(context.Background(), upload(payrollCSV(t, true, validValues()), true))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.EmailsSent, qt.Equals, 1)
	c.Assert(notifier.notices, qt.HasLen, 1)
	c.Assert(notifier.notices[0].Month, qt.Equals, "March")
	c.Assert(notifier.notices[0].Year, qt.Equals, 2025)
	c.Assert(notifier.notices[0].NetSalary, qt.Equals, "₦430,000.50")
}

func TestProcessRejectsBadFiles(t *testing.T) {
	c := qt.New(t)
	p, _, _ := newTestProcessor(t, newMemoryStore())

	_, err := p.Process(context.Background(), Upload{TenantID: "t1", FileName: "march.pdf", Data: []byte("%PDF")})
	c.Assert(err, qt.ErrorIs, spreadsheet.ErrUnsupportedFormat)

	_, err = p.Process(context.Background(), Upload{TenantID: "t1", FileName: "march.csv", Data: []byte("Name,EMAIL\n")})
	c.Assert(err, qt.ErrorIs, spreadsheet.ErrNoRows)
}
