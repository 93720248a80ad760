package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
)

var ErrNoRecipient = errors.New("staff record has no email address")

type Mailer interface {
	Send(ctx context.Context, from, to, subject, htmlBody string) error
}

type Notification struct {
	TenantID      string
	StaffRecordID string
	Recipient     string
	Type          string
	Title         string
	Body          string
}

// PayslipNotice carries what the payslip email shows. NetSalary is already
// formatted for display.
type PayslipNotice struct {
	TenantID      string
	StaffRecordID string
	StaffName     string
	Email         string
	Month         string
	Year          int
	NetSalary     string
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	BaseURL     string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@example.com"}
}

var payslipTemplate = template.Must(template.New("payslip").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #1e3a5f;">Your payslip is ready</h2>
  <p>Dear {{.StaffName}},</p>
  <p>Your payslip for <strong>{{.Month}} {{.Year}}</strong> has been generated.</p>
  <p>Net salary: <strong>{{.NetSalary}}</strong></p>
  <p>You can view and download it from your profile: <a href="{{.ProfileURL}}">{{.ProfileURL}}</a></p>
  <p style="font-size: 12px; color: #6b7280;">This is an automated message. Please do not reply.</p>
</body>
</html>`))

func PayslipSubject(month string, year int) string {
	return fmt.Sprintf("Your Payslip for %s %d", month, year)
}

func (s *Service) RenderPayslipEmail(n PayslipNotice) (string, error) {
	var buf bytes.Buffer
	err := payslipTemplate.Execute(&buf, struct {
		PayslipNotice
		ProfileURL string
	}{n, strings.TrimRight(s.BaseURL, "/") + "/profile"})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendPayslip emails the staff member and records the notification. A send
// failure is returned to the caller. A failure to record a sent email is only
// logged.
func (s *Service) SendPayslip(ctx context.Context, n PayslipNotice) error {
	if strings.TrimSpace(n.Email) == "" {
		return ErrNoRecipient
	}
	if s.Mailer == nil {
		return errors.New("mailer not configured")
	}
	body, err := s.RenderPayslipEmail(n)
	if err != nil {
		return err
	}
	subject := PayslipSubject(n.Month, n.Year)
	if err := s.Mailer.Send(ctx, s.DefaultFrom, n.Email, subject, body); err != nil {
		return err
	}
	if s.store == nil {
		return nil
	}
	if err := s.store.CreateNotification(ctx, Notification{
		TenantID:      n.TenantID,
		StaffRecordID: n.StaffRecordID,
		Recipient:     n.Email,
		Type:          TypePayslipPublished,
		Title:         subject,
		Body:          body,
	}); err != nil {
		slog.Warn("payslip notification record failed", "tenantId", n.TenantID, "staffRecordId", n.StaffRecordID, "err", err)
	}
	return nil
}
