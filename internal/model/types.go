package model

import "time"

// Device types derived from the raw user-agent string.
const (
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceDesktop = "desktop"
)

// QRCode represents a QR code profile. Rows are owned by the CRUD layer;
// the analytics core only reads them.
type QRCode struct {
	ID          int64
	Name        string
	Location    string
	CompanyName *string
	PhoneNumber *string
	Description *string
	LogoPath    *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     *int64
}

// PublicProfile is the subset of QRCode fields returned to unauthenticated
// scanners. Never includes owner id or the active flag.
type PublicProfile struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	CompanyName *string `json:"company_name"`
	PhoneNumber *string `json:"phone_number"`
	Description *string `json:"description"`
	LogoPath    *string `json:"logo_path"`
}

// PublicProfile returns the scanner-facing view of the QR code.
func (q QRCode) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:          q.ID,
		Name:        q.Name,
		Location:    q.Location,
		CompanyName: q.CompanyName,
		PhoneNumber: q.PhoneNumber,
		Description: q.Description,
		LogoPath:    q.LogoPath,
	}
}

// Scan is one recorded resolution of a QR code by a visitor.
// City and country are reserved; the recorder does not populate them.
type Scan struct {
	ID         int64
	QRCodeID   int64
	Timestamp  time.Time
	IPAddress  string
	UserAgent  string
	DeviceType string
	Browser    string
	OS         string
	City       *string
	Country    *string
}

// ScanEntry is the admin-facing scan shape, optionally enriched with the
// parent QR code's name and location (nil when the parent is not resolved).
type ScanEntry struct {
	ID         int64     `json:"id"`
	QRCodeID   int64     `json:"qr_code_id"`
	QRName     *string   `json:"qr_name"`
	QRLocation *string   `json:"qr_location"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceType string    `json:"device_type"`
	Browser    string    `json:"browser"`
	OS         string    `json:"os"`
	City       *string   `json:"city"`
	Country    *string   `json:"country"`
}

// ContactSubmission is a visitor contact request linked to a QR code.
// ScanID is a weak reference to the scan that led here and may dangle.
type ContactSubmission struct {
	ID        int64
	QRCodeID  int64
	ScanID    *int64
	Name      string
	Phone     string
	Message   *string
	CreatedAt time.Time
}

// ContactEntry is the admin-facing contact shape enriched with the parent
// QR code's name and location.
type ContactEntry struct {
	ID         int64     `json:"id"`
	QRCodeID   int64     `json:"qr_code_id"`
	ScanID     *int64    `json:"scan_id"`
	QRName     *string   `json:"qr_name"`
	QRLocation *string   `json:"qr_location"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Message    *string   `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// ScanFilter narrows scan queries. All fields are optional and AND-combined.
type ScanFilter struct {
	QRCodeID *int64
	Location string
	Start    *time.Time
	End      *time.Time
}

// DateCount is one bucket of the daily scan time series. Date is YYYY-MM-DD
// in UTC. Days without scans are omitted.
type DateCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// LocationCount is one bucket of the per-location breakdown.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// DeviceCount is one bucket of the per-device-type breakdown.
type DeviceCount struct {
	DeviceType string `json:"device_type"`
	Count      int    `json:"count"`
}

// AnalyticsReport is the dashboard payload. TotalScans and RecentScans honor
// the caller's filter; the three breakdowns and TotalQRCodes are global
// context widgets and ignore it (ScansByDate honors the qr filter only).
type AnalyticsReport struct {
	TotalScans      int             `json:"total_scans"`
	TotalQRCodes    int             `json:"total_qr_codes"`
	ScansByDate     []DateCount     `json:"scans_by_date"`
	ScansByLocation []LocationCount `json:"scans_by_location"`
	ScansByDevice   []DeviceCount   `json:"scans_by_device"`
	RecentScans     []ScanEntry     `json:"recent_scans"`
}
