package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qrtrace/server/internal/auth"
	"github.com/qrtrace/server/internal/model"
	"github.com/qrtrace/server/internal/repo"
)

const (
	timeSeriesDays = 30
	topLocations   = 10
	recentScans    = 20
	recentContacts = 50

	defaultScanLimit = 100
	maxScanLimit     = 500
)

// ErrLimitOutOfRange is returned when a per-QR scan list limit is not in
// (0, 500].
var ErrLimitOutOfRange = errors.New("limit out of range")

// Service computes the dashboard report and serves the admin read facade.
// Every operation takes the caller's principal explicitly and requires the
// admin capability.
type Service struct {
	qrs      repo.QRCodeRepo
	scans    repo.ScanRepo
	contacts repo.ContactRepo
	now      func() time.Time
}

// NewService creates a new analytics Service.
func NewService(qrs repo.QRCodeRepo, scans repo.ScanRepo, contacts repo.ContactRepo) *Service {
	return &Service{qrs: qrs, scans: scans, contacts: contacts, now: time.Now}
}

// Report builds the analytics dashboard payload.
//
// The filter set applies asymmetrically: total_scans and recent_scans are
// drill-down views and honor every filter; scans_by_date covers the trailing
// 30 days and honors only the qr filter; scans_by_location, scans_by_device
// and total_qr_codes are global context widgets and ignore the filter set
// entirely. Dashboard semantics depend on this split.
func (s *Service) Report(ctx context.Context, p auth.Principal, f model.ScanFilter) (model.AnalyticsReport, error) {
	if !p.IsAdmin {
		return model.AnalyticsReport{}, auth.ErrNotAdmin
	}

	totalScans, err := s.scans.CountFiltered(ctx, f)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("total scans: %w", err)
	}

	totalQRCodes, err := s.qrs.CountAll(ctx)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("total qr codes: %w", err)
	}

	since := s.now().UTC().AddDate(0, 0, -timeSeriesDays)
	byDate, err := s.scans.CountByDate(ctx, since, f.QRCodeID)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("scans by date: %w", err)
	}

	byLocation, err := s.scans.CountByLocation(ctx, topLocations)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("scans by location: %w", err)
	}
	for i := range byLocation {
		if byLocation[i].Location == "" {
			byLocation[i].Location = "Unknown"
		}
	}

	byDevice, err := s.scans.CountByDevice(ctx)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("scans by device: %w", err)
	}
	for i := range byDevice {
		if byDevice[i].DeviceType == "" {
			byDevice[i].DeviceType = "Unknown"
		}
	}

	recent, err := s.scans.Recent(ctx, f, recentScans)
	if err != nil {
		return model.AnalyticsReport{}, fmt.Errorf("recent scans: %w", err)
	}

	// empty panels serialize as [] rather than null
	if byDate == nil {
		byDate = []model.DateCount{}
	}
	if byLocation == nil {
		byLocation = []model.LocationCount{}
	}
	if byDevice == nil {
		byDevice = []model.DeviceCount{}
	}
	if recent == nil {
		recent = []model.ScanEntry{}
	}

	return model.AnalyticsReport{
		TotalScans:      totalScans,
		TotalQRCodes:    totalQRCodes,
		ScansByDate:     byDate,
		ScansByLocation: byLocation,
		ScansByDevice:   byDevice,
		RecentScans:     recent,
	}, nil
}

// ScansForQR lists the newest scans for one QR code, newest first. A zero
// limit means the default of 100; limits above 500 or negative are rejected.
func (s *Service) ScansForQR(ctx context.Context, p auth.Principal, qrID int64, limit int) ([]model.ScanEntry, error) {
	if !p.IsAdmin {
		return nil, auth.ErrNotAdmin
	}
	if limit == 0 {
		limit = defaultScanLimit
	}
	if limit < 0 || limit > maxScanLimit {
		return nil, ErrLimitOutOfRange
	}
	return s.scans.ListForQR(ctx, qrID, limit)
}

// Locations lists all distinct non-empty QR code locations.
func (s *Service) Locations(ctx context.Context, p auth.Principal) ([]string, error) {
	if !p.IsAdmin {
		return nil, auth.ErrNotAdmin
	}
	return s.qrs.DistinctLocations(ctx)
}

// Contacts lists the 50 newest contact submissions, optionally for one QR
// code, enriched with the parent's name and location.
func (s *Service) Contacts(ctx context.Context, p auth.Principal, qrID *int64) ([]model.ContactEntry, error) {
	if !p.IsAdmin {
		return nil, auth.ErrNotAdmin
	}
	return s.contacts.ListRecent(ctx, qrID, recentContacts)
}
