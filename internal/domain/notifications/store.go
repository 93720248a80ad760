package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const TypePayslipPublished = "payslip_published"

type StoreAPI interface {
	CreateNotification(ctx context.Context, n Notification) error
}

// Store keeps an in-app copy of every notice sent, whether or not the email
// went out.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, n Notification) error {
	var staffRecordID any
	if n.StaffRecordID != "" {
		staffRecordID = n.StaffRecordID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (tenant_id, staff_record_id, recipient, type, title, body)
    VALUES ($1,$2,$3,$4,$5,$6)
  `, n.TenantID, staffRecordID, n.Recipient, n.Type, n.Title, n.Body)
	return err
}
