// Package booking turns finished conversations into persisted
// appointments: intent detection on assistant replies, keyword field
// extraction from the transcript, and a Postgres-backed store.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Appointment is one booked appointment row.
type Appointment struct {
	ID           string
	PatientName  string
	PatientPhone string
	ServiceType  string
	Date         time.Time
	Time         string
	Status       string
	Notes        string
	CreatedAt    time.Time
}

// Field defaults substituted at insert time when extraction found nothing.
const (
	DefaultName    = "Unknown"
	DefaultService = "General Consultation"
	DefaultTime    = "10:00 AM"
	DefaultStatus  = "confirmed"
)

// FillDefaults substitutes documented defaults for any empty field.
// Stores call this before persisting so a sparse extraction still
// produces a complete row.
func (a *Appointment) FillDefaults(now time.Time) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.PatientName == "" {
		a.PatientName = DefaultName
	}
	if a.ServiceType == "" {
		a.ServiceType = DefaultService
	}
	if a.Date.IsZero() {
		a.Date = now
	}
	if a.Time == "" {
		a.Time = DefaultTime
	}
	if a.Status == "" {
		a.Status = DefaultStatus
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}

// Store persists appointments.
type Store interface {
	Insert(ctx context.Context, a *Appointment) error
}
