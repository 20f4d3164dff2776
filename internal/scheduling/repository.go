package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotTaken is returned when the insert hits the partial unique
	// index on (doctor_id, scheduled_at) over non-cancelled rows. It is
	// the commit-time counterpart of the validation-time checks.
	ErrSlotTaken = errors.New("slot already has an active appointment")
)

// CreateAppointmentParams carries everything needed to persist a new
// booking in the scheduled state.
type CreateAppointmentParams struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	DisplayTime string
	Reason      string
	Notes       string
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// CreateDoctor persists the doctor together with the template rows
	// in one transaction; ReplaceTemplate swaps the whole template.
	CreateDoctor(ctx context.Context, d *Doctor, tmpl WorkingHoursTemplate) error
	GetTemplate(ctx context.Context, doctorID uuid.UUID) (WorkingHoursTemplate, error)
	ReplaceTemplate(ctx context.Context, doctorID uuid.UUID, tmpl WorkingHoursTemplate) error

	// BookedInstants returns the scheduled_at instants of non-cancelled
	// appointments for the doctor within [from, to).
	BookedInstants(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error)

	CreateAppointment(ctx context.Context, p CreateAppointmentParams) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateAppointmentStatus is a compare-and-swap: the row moves from
	// `from` to `to` only if it is still in `from`.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// RescheduleAppointment cancels the old appointment and inserts the
	// replacement in a single transaction, so a failure on either side
	// leaves the patient with the original booking.
	RescheduleAppointment(ctx context.Context, id uuid.UUID, p CreateAppointmentParams) (*Appointment, error)

	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)

	InsertEvent(ctx context.Context, ev EventLog) error
}
