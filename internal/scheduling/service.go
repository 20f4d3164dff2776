package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medgrid/hospital-scheduling/internal/clock"
	redisclient "github.com/medgrid/hospital-scheduling/internal/redis"
)

const (
	EventBookingCreated       = "BOOKING_CREATED"
	EventBookingCancelled     = "BOOKING_CANCELLED"
	EventBookingStatusChanged = "BOOKING_STATUS_CHANGED"
	EventBookingRescheduled   = "BOOKING_RESCHEDULED"
)

const (
	defaultReason    = "General consultation"
	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	// ErrBookingContended means another request holds the lock for the
	// same doctor and instant; the client should retry.
	ErrBookingContended = errors.New("slot is currently being booked, please retry")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("actor is not allowed to act on this appointment")
	ErrPastAppointment   = errors.New("cannot cancel past appointments")
)

// Service implements the scheduling core: slot generation, booking
// validation, and the appointment lifecycle.
type Service struct {
	repo         Repository
	locker       redisclient.Locker
	tc           clock.TimeContext
	slotDuration time.Duration
	log          zerolog.Logger
}

func NewService(repo Repository, locker redisclient.Locker, tc clock.TimeContext, slotDuration time.Duration, log zerolog.Logger) *Service {
	return &Service{
		repo:         repo,
		locker:       locker,
		tc:           tc,
		slotDuration: slotDuration,
		log:          log.With().Str("component", "scheduling").Logger(),
	}
}

// AvailableSlots returns the free bookable instants for a doctor on
// one calendar day. An empty result is valid data, not an error; the
// caller distinguishes "doctor not found" by the returned error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error) {
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	tmpl, err := s.repo.GetTemplate(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	// day names a calendar date; its year/month/day are taken as-is
	// and anchored in the clinic timezone. Converting the instant
	// instead would shift the date for clinics west of the value's
	// own zone.
	loc := s.tc.Location()
	y, m, d := day.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	booked, err := s.repo.BookedInstants(ctx, doctorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("load booked instants: %w", err)
	}

	return GenerateSlots(tmpl, NewBookedSet(booked), dayStart, s.slotDuration, s.tc.Now(), loc), nil
}

// CreateBookingParams is one booking request. Strict selects the full
// validation pass (working day + working hours); the simplified path
// only rejects past instants. Both run through the same code.
type CreateBookingParams struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	DisplayTime string
	Reason      string
	Notes       string
	Strict      bool
}

// CreateBooking validates the request and, inside a per-slot lock,
// persists the appointment in the scheduled state. A *Rejection error
// means the request failed validation; ErrSlotTaken means the atomic
// conflict constraint fired at commit time.
func (s *Service) CreateBooking(ctx context.Context, p CreateBookingParams) (*Appointment, error) {
	doctorExists := true
	if _, err := s.repo.GetDoctorByID(ctx, p.DoctorID); err != nil {
		if !errors.Is(err, ErrDoctorNotFound) {
			return nil, fmt.Errorf("load doctor: %w", err)
		}
		doctorExists = false
	}

	if _, err := s.repo.GetPatientByID(ctx, p.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	var tmpl WorkingHoursTemplate
	if doctorExists && p.Strict {
		var err error
		tmpl, err = s.repo.GetTemplate(ctx, p.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
	}

	if rej := Validate(doctorExists, tmpl, p.ScheduledAt, s.tc.Now(), s.tc.Location(), p.Strict); rej != nil {
		return nil, rej
	}

	if p.Reason == "" {
		p.Reason = defaultReason
	}

	var created *Appointment

	err := s.locker.WithBookingLock(ctx, p.DoctorID, p.ScheduledAt, func(lockCtx context.Context) error {
		appt, err := s.repo.CreateAppointment(lockCtx, CreateAppointmentParams{
			DoctorID:    p.DoctorID,
			PatientID:   p.PatientID,
			ScheduledAt: p.ScheduledAt,
			DisplayTime: p.DisplayTime,
			Reason:      p.Reason,
			Notes:       p.Notes,
		})
		if err != nil {
			return err
		}

		created = appt
		s.logEvent(lockCtx, appt.ID, EventBookingCreated, map[string]any{
			"doctor_id":    p.DoctorID.String(),
			"patient_id":   p.PatientID.String(),
			"scheduled_at": p.ScheduledAt,
			"strict":       p.Strict,
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingContended
		}
		return nil, err
	}

	return created, nil
}

// CancelBooking moves a scheduled future appointment to cancelled.
// Only the owning patient, the assigned doctor, or an administrator
// may cancel; past appointments cannot be cancelled. The freed instant
// is visible to AvailableSlots immediately, since slots are recomputed
// from storage on every call.
func (s *Service) CancelBooking(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.AuthorizedFor(actor) {
		return nil, ErrUnauthorized
	}
	if !appt.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}
	if !appt.ScheduledAt.After(s.tc.Now()) {
		return nil, ErrPastAppointment
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, StatusScheduled, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost the CAS race: the row left scheduled between our read
			// and the update.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingCancelled, map[string]any{
		"actor_id":   actor.ID.String(),
		"actor_role": string(actor.Role),
	})

	return updated, nil
}

// UpdateBookingStatus drives an arbitrary lifecycle transition, e.g.
// a doctor marking an appointment completed. Unknown status strings
// are rejected with ErrInvalidStatus, transitions out of a terminal
// state with ErrInvalidTransition.
func (s *Service) UpdateBookingStatus(ctx context.Context, id uuid.UUID, statusStr string, actor Actor) (*Appointment, error) {
	next, err := ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}

	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.AuthorizedFor(actor) {
		return nil, ErrUnauthorized
	}
	if !appt.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, next)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventBookingStatusChanged, map[string]any{
		"from":       string(appt.Status),
		"to":         string(next),
		"actor_id":   actor.ID.String(),
		"actor_role": string(actor.Role),
	})

	return updated, nil
}

// RescheduleBooking cancels the old appointment and books the new
// instant in one transaction, so a failure on the new booking leaves
// the original appointment untouched.
func (s *Service) RescheduleBooking(ctx context.Context, id uuid.UUID, newInstant time.Time, displayTime string, actor Actor, strict bool) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.AuthorizedFor(actor) {
		return nil, ErrUnauthorized
	}
	if !appt.Status.CanTransitionTo(StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	var tmpl WorkingHoursTemplate
	if strict {
		tmpl, err = s.repo.GetTemplate(ctx, appt.DoctorID)
		if err != nil {
			return nil, fmt.Errorf("load template: %w", err)
		}
	}
	if rej := Validate(true, tmpl, newInstant, s.tc.Now(), s.tc.Location(), strict); rej != nil {
		return nil, rej
	}

	var moved *Appointment

	err = s.locker.WithBookingLock(ctx, appt.DoctorID, newInstant, func(lockCtx context.Context) error {
		a, err := s.repo.RescheduleAppointment(lockCtx, appt.ID, CreateAppointmentParams{
			DoctorID:    appt.DoctorID,
			PatientID:   appt.PatientID,
			ScheduledAt: newInstant,
			DisplayTime: displayTime,
			Reason:      appt.Reason,
			Notes:       appt.Notes,
		})
		if err != nil {
			return err
		}

		moved = a
		s.logEvent(lockCtx, a.ID, EventBookingRescheduled, map[string]any{
			"previous_id":  appt.ID.String(),
			"scheduled_at": newInstant,
			"actor_id":     actor.ID.String(),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrBookingContended
		}
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}

	return moved, nil
}

// RegisterDoctor creates a doctor together with a persisted working
// hours template. When no template is supplied the default Mon-Fri
// 09:00-17:00 template is synthesized here, as an explicit factory
// step, so every doctor always has concrete template rows.
func (s *Service) RegisterDoctor(ctx context.Context, name string, specialty *string, tmpl WorkingHoursTemplate) (*Doctor, error) {
	if len(tmpl) == 0 {
		tmpl = DefaultTemplate()
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	d := &Doctor{
		ID:        uuid.New(),
		Name:      name,
		Specialty: specialty,
	}
	if err := s.repo.CreateDoctor(ctx, d, tmpl); err != nil {
		return nil, fmt.Errorf("register doctor: %w", err)
	}

	s.log.Info().Str("doctor_id", d.ID.String()).Int("template_entries", len(tmpl)).Msg("doctor registered")
	return d, nil
}

// ReplaceTemplate swaps a doctor's whole working-hours template.
func (s *Service) ReplaceTemplate(ctx context.Context, doctorID uuid.UUID, tmpl WorkingHoursTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return err
	}
	if err := s.repo.ReplaceTemplate(ctx, doctorID, tmpl); err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetAppointmentByID(ctx, id)
}

func (s *Service) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	appts, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appts, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event_type", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     s.tc.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", appointmentID.String()).
			Msg("insert event log")
	}
}
