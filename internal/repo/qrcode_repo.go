package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/qrtrace/server/internal/model"
)

// QRCodeRepo is the read surface over QR code rows the analytics core needs.
// Create exists for the CRUD layer and tests; everything else is read-only.
type QRCodeRepo interface {
	Create(ctx context.Context, qr *model.QRCode) error
	GetByID(ctx context.Context, id int64) (model.QRCode, error)
	GetActiveByID(ctx context.Context, id int64) (model.QRCode, error)
	CountAll(ctx context.Context) (int, error)
	DistinctLocations(ctx context.Context) ([]string, error)
}

type qrCodeRepo struct {
	db *sql.DB
}

// NewQRCodeRepo creates a new QRCodeRepo instance
func NewQRCodeRepo(db *sql.DB) QRCodeRepo {
	return &qrCodeRepo{db: db}
}

const qrCodeColumns = `id, name, location, company_name, phone_number, description, logo_path, is_active, created_at, updated_at, owner_id`

// Create inserts a QR code row and fills in id and timestamps.
func (r *qrCodeRepo) Create(ctx context.Context, qr *model.QRCode) error {
	query := `
		INSERT INTO qr_codes (name, location, company_name, phone_number, description, logo_path, is_active, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		qr.Name, qr.Location, qr.CompanyName, qr.PhoneNumber,
		qr.Description, qr.LogoPath, qr.IsActive, qr.OwnerID,
	).Scan(&qr.ID, &qr.CreatedAt, &qr.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert qr code: %w", err)
	}
	return nil
}

// GetByID retrieves a QR code by id regardless of its active flag.
func (r *qrCodeRepo) GetByID(ctx context.Context, id int64) (model.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetActiveByID retrieves a QR code by id only if it is active. An inactive
// code is reported exactly like a missing one so disabled codes do not leak.
func (r *qrCodeRepo) GetActiveByID(ctx context.Context, id int64) (model.QRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM qr_codes WHERE id = $1 AND is_active`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *qrCodeRepo) scanOne(row *sql.Row) (model.QRCode, error) {
	var qr model.QRCode
	err := row.Scan(
		&qr.ID, &qr.Name, &qr.Location, &qr.CompanyName, &qr.PhoneNumber,
		&qr.Description, &qr.LogoPath, &qr.IsActive, &qr.CreatedAt, &qr.UpdatedAt, &qr.OwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.QRCode{}, fmt.Errorf("qr code: %w", ErrNotFound)
		}
		return model.QRCode{}, fmt.Errorf("query qr code: %w", err)
	}
	return qr, nil
}

// CountAll returns the number of QR code rows, active or not.
func (r *qrCodeRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM qr_codes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count qr codes: %w", err)
	}
	return count, nil
}

// DistinctLocations returns all distinct non-empty locations, sorted so
// repeated calls yield identical lists.
func (r *qrCodeRepo) DistinctLocations(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT location FROM qr_codes
		WHERE location <> ''
		ORDER BY location
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	locations := []string{}
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return locations, nil
}
