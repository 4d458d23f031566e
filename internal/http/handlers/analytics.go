package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/qrtrace/server/internal/analytics"
	"github.com/qrtrace/server/internal/auth"
	"github.com/qrtrace/server/internal/middleware"
	"github.com/qrtrace/server/internal/model"
)

// AnalyticsHandler serves the admin-gated analytics and query endpoints.
type AnalyticsHandler struct {
	service *analytics.Service
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// parseFilter reads the optional qr_id, location, start_date and end_date
// query parameters. A malformed value fails the whole request before any
// aggregation runs.
func parseFilter(r *http.Request) (model.ScanFilter, error) {
	var f model.ScanFilter
	q := r.URL.Query()

	if raw := q.Get("qr_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errors.New("invalid qr_id")
		}
		f.QRCodeID = &id
	}
	f.Location = q.Get("location")

	if raw := q.Get("start_date"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return f, errors.New("invalid start_date")
		}
		f.Start = &t
	}
	if raw := q.Get("end_date"); raw != "" {
		t, err := parseTimestamp(raw)
		if err != nil {
			return f, errors.New("invalid end_date")
		}
		f.End = &t
	}
	return f, nil
}

// parseTimestamp accepts RFC 3339 or a bare YYYY-MM-DD date, UTC assumed.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

// principal pulls the authenticated principal off the context; RequireAuth
// guarantees it is there on these routes.
func principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}

func (h *AnalyticsHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrNotAdmin):
		respondWithError(w, http.StatusForbidden, "admin access required")
	case errors.Is(err, analytics.ErrLimitOutOfRange):
		respondWithError(w, http.StatusBadRequest, "limit out of range")
	default:
		respondWithError(w, http.StatusInternalServerError, "query failed")
	}
}

// HandleReport handles GET /api/analytics/.
func (h *AnalyticsHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.service.Report(r.Context(), p, filter)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// HandleQRScans handles GET /api/analytics/qr/{qrID}/scans.
func (h *AnalyticsHandler) HandleQRScans(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	qrID, err := strconv.ParseInt(chi.URLParam(r, "qrID"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	scans, err := h.service.ScansForQR(r.Context(), p, qrID, limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, scans)
}

// HandleLocations handles GET /api/analytics/locations.
func (h *AnalyticsHandler) HandleLocations(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	locations, err := h.service.Locations(r.Context(), p)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, locations)
}

// HandleContacts handles GET /api/analytics/contacts.
func (h *AnalyticsHandler) HandleContacts(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	var qrID *int64
	if raw := r.URL.Query().Get("qr_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid qr_id")
			return
		}
		qrID = &id
	}

	contacts, err := h.service.Contacts(r.Context(), p, qrID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, contacts)
}
