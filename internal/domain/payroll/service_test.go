package payroll

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"hrms/internal/domain/staff"
	cryptoutil "hrms/internal/platform/crypto"
)

type emailLookup map[string]staff.Record

func (l emailLookup) FindByEmail(ctx context.Context, tenantID, email string) (*staff.Record, error) {
	rec, ok := l[strings.ToLower(email)]
	if !ok || rec.TenantID != tenantID {
		return nil, staff.ErrNotFound
	}
	return &rec, nil
}

func newTestService(t *testing.T, key string) (*Service, *memoryStore) {
	t.Helper()
	crypto, err := cryptoutil.New(key)
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	store := newMemoryStore()
	p, uploads, payslips := newTestProcessor(t, store)
	p.Sealer = crypto
	lookup := emailLookup{
		"ada@acme.test":  {ID: "s1", TenantID: "t1", Email: "ada@acme.test"},
		"john@acme.test": {ID: "s2", TenantID: "t1", Email: "john@acme.test"},
	}
	return NewService(store, p, lookup, crypto, uploads, payslips), store
}

func TestPayslipFileOwnership(t *testing.T) {
	c := qt.New(t)
	svc, store := newTestService(t, strings.Repeat("ab", 32))
	ctx := context.Background()

	_, err := svc.Upload(ctx, upload(payrollCSV(t, true, validValues()), false))
	c.Assert(err, qt.IsNil)
	c.Assert(store.payslips, qt.HasLen, 1)
	id := store.payslips[0].ID
	c.Assert(strings.HasSuffix(store.payslips[0].FilePath, cryptoutil.EncryptedSuffix), qt.IsTrue)

	name, data, err := svc.PayslipFile(ctx, PayslipRequester{TenantID: "t1", Email: "ADA@acme.test"}, id)
	c.Assert(err, qt.IsNil)
	c.Assert(name, qt.Equals, "payslip-EMP001-03-2025.pdf")
	c.Assert(bytes.HasPrefix(data, []byte("%PDF")), qt.IsTrue)

	_, _, err = svc.PayslipFile(ctx, PayslipRequester{TenantID: "t1", Email: "john@acme.test"}, id)
	c.Assert(err, qt.Equals, ErrPayslipForbidden)

	_, _, err = svc.PayslipFile(ctx, PayslipRequester{TenantID: "t1", Email: "nobody@acme.test"}, id)
	c.Assert(err, qt.Equals, ErrPayslipForbidden)

	_, _, err = svc.PayslipFile(ctx, PayslipRequester{TenantID: "t1", Admin: true}, id)
	c.Assert(err, qt.IsNil)

	_, _, err = svc.PayslipFile(ctx, PayslipRequester{TenantID: "t2", Admin: true}, id)
	c.Assert(err, qt.Equals, ErrPayslipNotFound)
}

func TestFailedExportDownloadAndPurge(t *testing.T) {
	c := qt.New(t)
	svc, store := newTestService(t, "")
	ctx := context.Background()

	ghost := validValues()
	ghost[ColName] = "Ghost Worker"
	ghost[ColEmail] = ""
	resp, err := svc.Upload(ctx, upload(payrollCSV(t, true, validValues(), ghost), false))
	c.Assert(err, qt.IsNil)
	c.Assert(resp.Summary.Failed, qt.Equals, 1)

	name, data, err := svc.FailedExport(ctx, "t1", resp.UploadID)
	c.Assert(err, qt.IsNil)
	c.Assert(strings.HasPrefix(name, "failed-records-"), qt.IsTrue)
	c.Assert(bytes.HasPrefix(data, []byte("PK")), qt.IsTrue)

	_, _, err = svc.FailedExport(ctx, "t2", resp.UploadID)
	c.Assert(err, qt.Equals, ErrUploadNotFound)

	purged, err := svc.PurgeFailedExports(ctx, time.Now().Add(-time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(purged, qt.Equals, 0)

	purged, err = svc.PurgeFailedExports(ctx, time.Now().Add(time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(purged, qt.Equals, 1)
	c.Assert(store.uploads[0].ProcessedFilePath, qt.Equals, "")

	_, _, err = svc.FailedExport(ctx, "t1", resp.UploadID)
	c.Assert(err, qt.Equals, ErrNoFailedExport)
}

func TestFailedExportMissingForCleanBatch(t *testing.T) {
	c := qt.New(t)
	svc, _ := newTestService(t, "")
	resp, err := svc.Upload(context.Background(), upload(payrollCSV(t, true, validValues()), false))
	c.Assert(err, qt.IsNil)

	_, _, err = svc.FailedExport(context.Background(), "t1", resp.UploadID)
	c.Assert(err, qt.Equals, ErrNoFailedExport)
}
