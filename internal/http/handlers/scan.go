package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/qrtrace/server/internal/repo"
	"github.com/qrtrace/server/internal/scan"
)

// ScanHandler serves the public scan flow: the landing endpoint, contact
// submissions, and the vCard download. None of these require authentication.
type ScanHandler struct {
	recorder *scan.Recorder
}

// NewScanHandler creates a new scan handler
func NewScanHandler(recorder *scan.Recorder) *ScanHandler {
	return &ScanHandler{recorder: recorder}
}

// qrIDParam parses the {qrID} URL parameter.
func qrIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "qrID"), 10, 64)
}

// HandleScan handles GET /api/scan/{qrID}. Records the visit and returns the
// QR code's public profile for the landing page.
func (h *ScanHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	qrID, err := qrIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}

	profile, err := h.recorder.RecordScan(
		r.Context(),
		qrID,
		r.UserAgent(),
		r.Header.Get("X-Forwarded-For"),
		r.RemoteAddr,
	)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "QR code not found or inactive")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to record scan")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// contactRequest is the request body for POST /api/scan/{qrID}/contact
type contactRequest struct {
	ScanID  *int64  `json:"scan_id"`
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Message *string `json:"message"`
}

// HandleContact handles POST /api/scan/{qrID}/contact.
func (h *ScanHandler) HandleContact(w http.ResponseWriter, r *http.Request) {
	qrID, err := qrIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.recorder.RecordContact(r.Context(), qrID, req.ScanID, req.Name, req.Phone, req.Message)
	switch {
	case errors.Is(err, scan.ErrInvalidContact):
		respondWithError(w, http.StatusBadRequest, "name and phone are required")
	case errors.Is(err, repo.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "QR code not found")
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, "failed to submit contact")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"message": "Contact submitted successfully"})
	}
}

// HandleVCard handles GET /api/scan/{qrID}/vcard. Serves a downloadable
// contact card built from the QR code profile, active or not.
func (h *ScanHandler) HandleVCard(w http.ResponseWriter, r *http.Request) {
	qrID, err := qrIDParam(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid qr code id")
		return
	}

	profile, err := h.recorder.Profile(r.Context(), qrID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "QR code not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load QR code")
		return
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	displayName := profile.Name
	if company := deref(profile.CompanyName); company != "" {
		displayName = company
	}

	vcard := fmt.Sprintf(`BEGIN:VCARD
VERSION:3.0
FN:%s
ORG:%s
TEL;TYPE=WORK,VOICE:%s
NOTE:%s - Location: %s
END:VCARD`,
		displayName,
		deref(profile.CompanyName),
		deref(profile.PhoneNumber),
		deref(profile.Description),
		profile.Location,
	)

	filename := strings.ReplaceAll(displayName, " ", "_") + ".vcf"
	w.Header().Set("Content-Type", "text/vcard")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(vcard))
}
