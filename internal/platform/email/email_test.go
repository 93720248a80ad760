package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"hrms/internal/platform/config"
)

func TestBuildMessageIsHTML(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	msg := string(buildMessage("payroll@acme.test", "ada@acme.test", "Your Payslip for March 2025", "<p>Hello</p>", now))

	for _, want := range []string{
		"From: payroll@acme.test\r\n",
		"To: ada@acme.test\r\n",
		"Subject: Your Payslip for March 2025\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n",
		"@acme.test>\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected message to contain %q, got %q", want, msg)
		}
	}
	if !strings.HasSuffix(msg, "\r\n\r\n<p>Hello</p>") {
		t.Fatalf("expected body after blank line, got %q", msg)
	}
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.acme.test"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
	if err := mailer.Send(context.Background(), "a@acme.test", "b@acme.test", "s", "b"); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}
