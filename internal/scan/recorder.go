package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qrtrace/server/internal/model"
	"github.com/qrtrace/server/internal/repo"
)

// ErrInvalidContact is returned when a contact submission is missing its
// required fields.
var ErrInvalidContact = errors.New("name and phone are required")

// Recorder handles the public scan flow: recording scan events against
// active QR codes and accepting contact submissions.
type Recorder struct {
	qrs      repo.QRCodeRepo
	scans    repo.ScanRepo
	contacts repo.ContactRepo
}

// NewRecorder creates a new Recorder.
func NewRecorder(qrs repo.QRCodeRepo, scans repo.ScanRepo, contacts repo.ContactRepo) *Recorder {
	return &Recorder{qrs: qrs, scans: scans, contacts: contacts}
}

// RecordScan looks up the QR code, classifies the visitor's device and
// resolves its IP, appends exactly one scan event, and returns the code's
// public profile. An inactive code behaves exactly like a missing one. The
// scan row is durable before this returns.
func (r *Recorder) RecordScan(ctx context.Context, qrID int64, rawUserAgent, forwardedFor, remoteAddr string) (model.PublicProfile, error) {
	qr, err := r.qrs.GetActiveByID(ctx, qrID)
	if err != nil {
		return model.PublicProfile{}, err
	}

	cls := Classify(rawUserAgent)
	event := model.Scan{
		QRCodeID:   qr.ID,
		IPAddress:  ClientIP(forwardedFor, remoteAddr),
		UserAgent:  rawUserAgent,
		DeviceType: cls.DeviceType,
		Browser:    cls.Browser,
		OS:         cls.OS,
	}
	if err := r.scans.Insert(ctx, &event); err != nil {
		return model.PublicProfile{}, fmt.Errorf("record scan: %w", err)
	}

	return qr.PublicProfile(), nil
}

// RecordContact appends a contact submission for the QR code. The code must
// exist but may be inactive. scanID is accepted unvalidated; a dangling
// reference is fine. Name and phone are required, message is optional.
func (r *Recorder) RecordContact(ctx context.Context, qrID int64, scanID *int64, name, phone string, message *string) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(phone) == "" {
		return ErrInvalidContact
	}

	if _, err := r.qrs.GetByID(ctx, qrID); err != nil {
		return err
	}

	submission := model.ContactSubmission{
		QRCodeID: qrID,
		ScanID:   scanID,
		Name:     name,
		Phone:    phone,
		Message:  message,
	}
	if err := r.contacts.Insert(ctx, &submission); err != nil {
		return fmt.Errorf("record contact: %w", err)
	}
	return nil
}

// Profile returns the QR code's public profile without recording anything.
// Used by the vCard endpoint, which serves active and inactive codes alike.
func (r *Recorder) Profile(ctx context.Context, qrID int64) (model.PublicProfile, error) {
	qr, err := r.qrs.GetByID(ctx, qrID)
	if err != nil {
		return model.PublicProfile{}, err
	}
	return qr.PublicProfile(), nil
}
