package scheduling

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. Scheduled is the
// only non-terminal state; completed and cancelled admit no further
// transitions.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid appointment status")

// ParseStatus maps a client-supplied string onto a known Status.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether the lifecycle state machine permits
// moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	return s == StatusScheduled && (next == StatusCompleted || next == StatusCancelled)
}

// Role identifies the kind of actor driving a status change.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Actor is a pre-authenticated identity; authentication itself happens
// upstream of this service.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one booking. ScheduledAt is the authoritative instant
// used for all conflict and validation logic; DisplayTime is the label
// the user picked and is advisory only.
type Appointment struct {
	ID          uuid.UUID
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	DisplayTime string
	Status      Status
	Reason      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AuthorizedFor reports whether actor may act on this appointment:
// the owning patient, the assigned doctor, or an administrator.
func (a *Appointment) AuthorizedFor(actor Actor) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleDoctor:
		return actor.ID == a.DoctorID
	case RolePatient:
		return actor.ID == a.PatientID
	default:
		return false
	}
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
