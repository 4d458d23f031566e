package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/qrtrace/server/internal/model"
)

// ScanRepo is the append-only scan log plus the aggregation queries the
// analytics layer runs over it. Aggregation is pushed into SQL so long reads
// never block concurrent inserts.
type ScanRepo interface {
	Insert(ctx context.Context, scan *model.Scan) error
	CountFiltered(ctx context.Context, f model.ScanFilter) (int, error)
	CountByDate(ctx context.Context, since time.Time, qrCodeID *int64) ([]model.DateCount, error)
	CountByLocation(ctx context.Context, limit int) ([]model.LocationCount, error)
	CountByDevice(ctx context.Context) ([]model.DeviceCount, error)
	Recent(ctx context.Context, f model.ScanFilter, limit int) ([]model.ScanEntry, error)
	ListForQR(ctx context.Context, qrCodeID int64, limit int) ([]model.ScanEntry, error)
}

type scanRepo struct {
	db *sql.DB
}

// NewScanRepo creates a new ScanRepo instance
func NewScanRepo(db *sql.DB) ScanRepo {
	return &scanRepo{db: db}
}

// Insert appends one scan row. The timestamp is assigned by the database at
// insert time and written back, so the event is durable before we return.
func (r *scanRepo) Insert(ctx context.Context, scan *model.Scan) error {
	query := `
		INSERT INTO scan_logs (qr_code_id, ip_address, user_agent, device_type, browser, os, city, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, timestamp
	`
	err := r.db.QueryRowContext(ctx, query,
		scan.QRCodeID, scan.IPAddress, scan.UserAgent,
		scan.DeviceType, scan.Browser, scan.OS, scan.City, scan.Country,
	).Scan(&scan.ID, &scan.Timestamp)
	if err != nil {
		return fmt.Errorf("insert scan: %w", err)
	}
	return nil
}

// scanFilterSQL renders the optional filter set into AND-combined conditions
// on the scan_logs alias "s". Returns the WHERE clause (or "") and its args.
func scanFilterSQL(f model.ScanFilter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.QRCodeID != nil {
		conds = append(conds, "s.qr_code_id = "+arg(*f.QRCodeID))
	}
	if f.Start != nil {
		conds = append(conds, "s.timestamp >= "+arg(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "s.timestamp <= "+arg(*f.End))
	}
	if f.Location != "" {
		conds = append(conds, "s.qr_code_id IN (SELECT id FROM qr_codes WHERE location ILIKE '%' || "+arg(f.Location)+" || '%')")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// CountFiltered returns the number of scans matching the filter set.
func (r *scanRepo) CountFiltered(ctx context.Context, f model.ScanFilter) (int, error) {
	where, args := scanFilterSQL(f)
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM scan_logs s "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count scans: %w", err)
	}
	return count, nil
}

// CountByDate groups scans since the given instant by UTC calendar date,
// ascending. Only the qr filter applies here; days with no scans are omitted.
func (r *scanRepo) CountByDate(ctx context.Context, since time.Time, qrCodeID *int64) ([]model.DateCount, error) {
	query := `
		SELECT to_char(s.timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM scan_logs s
		WHERE s.timestamp >= $1
	`
	args := []any{since}
	if qrCodeID != nil {
		query += " AND s.qr_code_id = $2"
		args = append(args, *qrCodeID)
	}
	query += " GROUP BY day ORDER BY day"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count scans by date: %w", err)
	}
	defer rows.Close()

	out := []model.DateCount{}
	for rows.Next() {
		var dc model.DateCount
		if err := rows.Scan(&dc.Date, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan date bucket: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// CountByLocation joins scans to their parent QR code and returns the top
// locations by scan volume, descending. Equal counts tie-break on the
// location ascending so the order is stable.
func (r *scanRepo) CountByLocation(ctx context.Context, limit int) ([]model.LocationCount, error) {
	query := `
		SELECT q.location, COUNT(*) AS count
		FROM scan_logs s
		JOIN qr_codes q ON q.id = s.qr_code_id
		GROUP BY q.location
		ORDER BY count DESC, q.location ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("count scans by location: %w", err)
	}
	defer rows.Close()

	out := []model.LocationCount{}
	for rows.Next() {
		var lc model.LocationCount
		if err := rows.Scan(&lc.Location, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan location bucket: %w", err)
		}
		out = append(out, lc)
	}
	return out, rows.Err()
}

// CountByDevice groups all scans by device type, including rows where the
// type was never derived. Tie-break on device type ascending.
func (r *scanRepo) CountByDevice(ctx context.Context) ([]model.DeviceCount, error) {
	query := `
		SELECT COALESCE(s.device_type, ''), COUNT(*)
		FROM scan_logs s
		GROUP BY s.device_type
		ORDER BY s.device_type
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count scans by device: %w", err)
	}
	defer rows.Close()

	out := []model.DeviceCount{}
	for rows.Next() {
		var dc model.DeviceCount
		if err := rows.Scan(&dc.DeviceType, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan device bucket: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

const scanEntryColumns = `s.id, s.qr_code_id, q.name, q.location, s.timestamp, s.device_type, s.browser, s.os, s.city, s.country`

// Recent returns the newest scans matching the filter set, enriched with the
// parent QR code's name and location (nil when the parent is missing).
func (r *scanRepo) Recent(ctx context.Context, f model.ScanFilter, limit int) ([]model.ScanEntry, error) {
	where, args := scanFilterSQL(f)
	query := fmt.Sprintf(`
		SELECT %s
		FROM scan_logs s
		LEFT JOIN qr_codes q ON q.id = s.qr_code_id
		%s
		ORDER BY s.timestamp DESC
		LIMIT $%d
	`, scanEntryColumns, where, len(args)+1)
	args = append(args, limit)
	return r.queryEntries(ctx, query, args...)
}

// ListForQR returns the newest scans for one QR code.
func (r *scanRepo) ListForQR(ctx context.Context, qrCodeID int64, limit int) ([]model.ScanEntry, error) {
	query := `
		SELECT ` + scanEntryColumns + `
		FROM scan_logs s
		LEFT JOIN qr_codes q ON q.id = s.qr_code_id
		WHERE s.qr_code_id = $1
		ORDER BY s.timestamp DESC
		LIMIT $2
	`
	return r.queryEntries(ctx, query, qrCodeID, limit)
}

func (r *scanRepo) queryEntries(ctx context.Context, query string, args ...any) ([]model.ScanEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	out := []model.ScanEntry{}
	for rows.Next() {
		var e model.ScanEntry
		var deviceType, browser, osLabel sql.NullString
		err := rows.Scan(
			&e.ID, &e.QRCodeID, &e.QRName, &e.QRLocation, &e.Timestamp,
			&deviceType, &browser, &osLabel, &e.City, &e.Country,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.DeviceType = deviceType.String
		e.Browser = browser.String
		e.OS = osLabel.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scans: %w", err)
	}
	return out, nil
}
