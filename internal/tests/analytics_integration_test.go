package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyticsReport mirrors the GET /api/analytics/ response
type analyticsReport struct {
	TotalScans   int `json:"total_scans"`
	TotalQRCodes int `json:"total_qr_codes"`
	ScansByDate  []struct {
		Date  string `json:"date"`
		Count int    `json:"count"`
	} `json:"scans_by_date"`
	ScansByLocation []struct {
		Location string `json:"location"`
		Count    int    `json:"count"`
	} `json:"scans_by_location"`
	ScansByDevice []struct {
		DeviceType string `json:"device_type"`
		Count      int    `json:"count"`
	} `json:"scans_by_device"`
	RecentScans []scanEntry `json:"recent_scans"`
}

// scanEntry mirrors one enriched scan in API responses
type scanEntry struct {
	ID         int64     `json:"id"`
	QRCodeID   int64     `json:"qr_code_id"`
	QRName     *string   `json:"qr_name"`
	QRLocation *string   `json:"qr_location"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceType string    `json:"device_type"`
}

// contactEntry mirrors one enriched contact in API responses
type contactEntry struct {
	ID       int64   `json:"id"`
	QRCodeID int64   `json:"qr_code_id"`
	ScanID   *int64  `json:"scan_id"`
	QRName   *string `json:"qr_name"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (s *testServer) fetchReport(t *testing.T, query, token string) analyticsReport {
	t.Helper()
	resp := s.Get(t, "/api/analytics/"+query, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report analyticsReport
	decodeJSON(t, resp, &report)
	return report
}

// TestAnalyticsIntegration exercises the aggregation pipeline and the admin
// query facade against a real database.
func TestAnalyticsIntegration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ts := newTestServer(t)
	admin := ts.AdminToken(t)

	t.Run("A_ReportCounts", func(t *testing.T) {
		ts.Truncate(t)
		lobby := ts.SeedQR(t, "Front Desk", "Lobby", true)
		entrance := ts.SeedQR(t, "Side Door", "Entrance", true)

		scanPath := func(id int64) string { return fmt.Sprintf("/api/scan/%d", id) }
		ts.Scan(t, scanPath(lobby), uaIPhone, http.StatusOK)
		ts.Scan(t, scanPath(lobby), uaChrome, http.StatusOK)
		ts.Scan(t, scanPath(lobby), "definitely not a browser", http.StatusOK)
		ts.Scan(t, scanPath(entrance), uaChrome, http.StatusOK)

		report := ts.fetchReport(t, "", admin)

		assert.Equal(t, 4, report.TotalScans)
		assert.Equal(t, 2, report.TotalQRCodes)

		// device buckets: unparseable agents degrade to desktop
		devices := map[string]int{}
		deviceSum := 0
		for _, d := range report.ScansByDevice {
			devices[d.DeviceType] = d.Count
			deviceSum += d.Count
		}
		assert.Equal(t, 1, devices["mobile"])
		assert.Equal(t, 3, devices["desktop"])
		assert.Equal(t, report.TotalScans, deviceSum, "device counts sum to the total")

		// top locations, descending by volume
		require.Len(t, report.ScansByLocation, 2)
		assert.Equal(t, "Lobby", report.ScansByLocation[0].Location)
		assert.Equal(t, 3, report.ScansByLocation[0].Count)
		assert.Equal(t, "Entrance", report.ScansByLocation[1].Location)
		for _, lc := range report.ScansByLocation {
			assert.LessOrEqual(t, lc.Count, report.TotalScans)
		}

		// the 30-day series covers today's scans
		dateSum := 0
		for _, dc := range report.ScansByDate {
			dateSum += dc.Count
			assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, dc.Date)
		}
		assert.Equal(t, 4, dateSum)

		// recent scans, newest first, enriched with the parent QR
		require.Len(t, report.RecentScans, 4)
		first := report.RecentScans[0]
		assert.Equal(t, entrance, first.QRCodeID, "last recorded scan comes first")
		require.NotNil(t, first.QRName)
		assert.Equal(t, "Side Door", *first.QRName)
		for i := 1; i < len(report.RecentScans); i++ {
			assert.False(t, report.RecentScans[i].Timestamp.After(report.RecentScans[i-1].Timestamp),
				"recent scans must be ordered newest first")
		}
	})

	t.Run("B_FilterAsymmetry", func(t *testing.T) {
		ts.Truncate(t)
		lobby := ts.SeedQR(t, "Front Desk", "Lobby", true)
		entrance := ts.SeedQR(t, "Side Door", "Entrance", true)

		for i := 0; i < 3; i++ {
			ts.Scan(t, fmt.Sprintf("/api/scan/%d", lobby), uaIPhone, http.StatusOK)
		}
		ts.Scan(t, fmt.Sprintf("/api/scan/%d", entrance), uaChrome, http.StatusOK)

		report := ts.fetchReport(t, fmt.Sprintf("?qr_id=%d", lobby), admin)

		assert.Equal(t, 3, report.TotalScans, "total honors the qr filter")
		assert.Equal(t, 2, report.TotalQRCodes, "qr count ignores the filter")
		require.Len(t, report.RecentScans, 3)
		for _, s := range report.RecentScans {
			assert.Equal(t, lobby, s.QRCodeID)
		}

		// breakdown panels stay global
		assert.Len(t, report.ScansByLocation, 2, "location panel ignores the filter")
		deviceSum := 0
		for _, d := range report.ScansByDevice {
			deviceSum += d.Count
		}
		assert.Equal(t, 4, deviceSum, "device panel ignores the filter")

		// the series keeps the qr filter
		dateSum := 0
		for _, dc := range report.ScansByDate {
			dateSum += dc.Count
		}
		assert.Equal(t, 3, dateSum)

		// substring location filter, case-insensitive
		report = ts.fetchReport(t, "?location=lob", admin)
		assert.Equal(t, 3, report.TotalScans)

		// a future window matches nothing
		tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
		report = ts.fetchReport(t, "?start_date="+tomorrow, admin)
		assert.Equal(t, 0, report.TotalScans)
		assert.Empty(t, report.RecentScans)
	})

	t.Run("C_EachScanIncrements", func(t *testing.T) {
		ts.Truncate(t)
		qrID := ts.SeedQR(t, "Front Desk", "Lobby", true)

		report := ts.fetchReport(t, "", admin)
		require.Equal(t, 0, report.TotalScans)

		ts.Scan(t, fmt.Sprintf("/api/scan/%d", qrID), uaChrome, http.StatusOK)

		report = ts.fetchReport(t, "", admin)
		assert.Equal(t, 1, report.TotalScans, "every recorded scan increments the total by one")
		assert.Len(t, report.RecentScans, 1)
	})

	t.Run("D_ScanListFacade", func(t *testing.T) {
		ts.Truncate(t)
		qrID := ts.SeedQR(t, "Front Desk", "Lobby", true)
		for i := 0; i < 3; i++ {
			ts.Scan(t, fmt.Sprintf("/api/scan/%d", qrID), uaChrome, http.StatusOK)
		}

		resp := ts.Get(t, fmt.Sprintf("/api/analytics/qr/%d/scans", qrID), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var scans []scanEntry
		decodeJSON(t, resp, &scans)
		require.Len(t, scans, 3)
		for i := 1; i < len(scans); i++ {
			assert.False(t, scans[i].Timestamp.After(scans[i-1].Timestamp))
		}

		resp = ts.Get(t, fmt.Sprintf("/api/analytics/qr/%d/scans?limit=2", qrID), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeJSON(t, resp, &scans)
		assert.Len(t, scans, 2, "limit caps the result")

		resp = ts.Get(t, fmt.Sprintf("/api/analytics/qr/%d/scans?limit=501", qrID), admin)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit above 500 is rejected")
	})

	t.Run("E_Locations", func(t *testing.T) {
		ts.Truncate(t)
		ts.SeedQR(t, "Front Desk", "Lobby", true)
		ts.SeedQR(t, "Side Door", "Entrance", true)
		ts.SeedQR(t, "Second Desk", "Lobby", false)

		fetch := func() []string {
			resp := ts.Get(t, "/api/analytics/locations", admin)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var locations []string
			decodeJSON(t, resp, &locations)
			return locations
		}

		locations := fetch()
		assert.Equal(t, []string{"Entrance", "Lobby"}, locations, "distinct locations, active or not")
		assert.Equal(t, locations, fetch(), "repeated calls yield identical sets")
	})

	t.Run("F_Contacts", func(t *testing.T) {
		ts.Truncate(t)
		lobby := ts.SeedQR(t, "Front Desk", "Lobby", true)
		entrance := ts.SeedQR(t, "Side Door", "Entrance", true)

		resp := ts.PostJSON(t, fmt.Sprintf("/api/scan/%d/contact", lobby), `{"name": "Jo", "phone": "555"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp = ts.PostJSON(t, fmt.Sprintf("/api/scan/%d/contact", entrance), `{"scan_id": 999, "name": "Max", "phone": "556", "message": "call me"}`)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = ts.Get(t, "/api/analytics/contacts", admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var contacts []contactEntry
		decodeJSON(t, resp, &contacts)
		require.Len(t, contacts, 2)
		assert.Equal(t, "Max", contacts[0].Name, "newest submission first")
		require.NotNil(t, contacts[0].QRName)
		assert.Equal(t, "Side Door", *contacts[0].QRName)
		assert.Nil(t, contacts[1].ScanID, "omitted scan_id serializes as null")

		resp = ts.Get(t, fmt.Sprintf("/api/analytics/contacts?qr_id=%d", lobby), admin)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeJSON(t, resp, &contacts)
		require.Len(t, contacts, 1)
		assert.Equal(t, "Jo", contacts[0].Name)
	})

	t.Run("G_AdminGating", func(t *testing.T) {
		viewer := ts.ViewerToken(t)

		resp := ts.Get(t, "/api/analytics/", "")
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "missing token")

		resp = ts.Get(t, "/api/analytics/", viewer)
		resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "valid token without admin")
	})
}
