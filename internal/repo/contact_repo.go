package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qrtrace/server/internal/model"
)

// ContactRepo is the append-only log of visitor contact submissions.
type ContactRepo interface {
	Insert(ctx context.Context, c *model.ContactSubmission) error
	ListRecent(ctx context.Context, qrCodeID *int64, limit int) ([]model.ContactEntry, error)
}

type contactRepo struct {
	db *sql.DB
}

// NewContactRepo creates a new ContactRepo instance
func NewContactRepo(db *sql.DB) ContactRepo {
	return &contactRepo{db: db}
}

// Insert appends one contact submission. ScanID is stored as given; it is a
// weak reference and is never checked against scan_logs.
func (r *contactRepo) Insert(ctx context.Context, c *model.ContactSubmission) error {
	query := `
		INSERT INTO contact_submissions (qr_code_id, scan_id, name, phone, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.QRCodeID, c.ScanID, c.Name, c.Phone, c.Message,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// ListRecent returns the newest submissions, optionally restricted to one QR
// code, enriched with the parent's name and location.
func (r *contactRepo) ListRecent(ctx context.Context, qrCodeID *int64, limit int) ([]model.ContactEntry, error) {
	query := `
		SELECT c.id, c.qr_code_id, c.scan_id, q.name, q.location, c.name, c.phone, c.message, c.created_at
		FROM contact_submissions c
		LEFT JOIN qr_codes q ON q.id = c.qr_code_id
	`
	args := []any{}
	if qrCodeID != nil {
		query += " WHERE c.qr_code_id = $1"
		args = append(args, *qrCodeID)
	}
	query += fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := []model.ContactEntry{}
	for rows.Next() {
		var e model.ContactEntry
		err := rows.Scan(
			&e.ID, &e.QRCodeID, &e.ScanID, &e.QRName, &e.QRLocation,
			&e.Name, &e.Phone, &e.Message, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return out, nil
}
