package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medgrid/hospital-scheduling/internal/scheduling"
)

type CreateBookingRequest struct {
	DoctorID    string `json:"doctor_id"`
	PatientID   string `json:"patient_id"`
	ScheduledAt string `json:"scheduled_at"`
	DisplayTime string `json:"display_time,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Notes       string `json:"notes,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
}

type RescheduleRequest struct {
	ScheduledAt string `json:"scheduled_at"`
	DisplayTime string `json:"display_time,omitempty"`
	Strict      *bool  `json:"strict,omitempty"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ScheduleEntry struct {
	DayOfWeek int    `json:"day_of_week"` // 0 = Sunday .. 6 = Saturday
	Start     string `json:"start"`       // "09:00"
	End       string `json:"end"`         // "17:00"
}

type RegisterDoctorRequest struct {
	Name      string          `json:"name"`
	Specialty *string         `json:"specialty,omitempty"`
	Schedule  []ScheduleEntry `json:"schedule,omitempty"`
}

type ReplaceScheduleRequest struct {
	Schedule []ScheduleEntry `json:"schedule"`
}

type DoctorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Specialty *string   `json:"specialty,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	PatientID   uuid.UUID `json:"patient_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	DisplayTime string    `json:"display_time,omitempty"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		DoctorID:    a.DoctorID,
		PatientID:   a.PatientID,
		ScheduledAt: a.ScheduledAt,
		DisplayTime: a.DisplayTime,
		Status:      string(a.Status),
		Reason:      a.Reason,
		Notes:       a.Notes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

type SlotsResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     string    `json:"date"`
	Slots    []string  `json:"slots"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
