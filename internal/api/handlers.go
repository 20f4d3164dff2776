package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medgrid/hospital-scheduling/internal/scheduling"
)

// SchedulingService is the service surface the handlers need. The
// production implementation is *scheduling.Service.
type SchedulingService interface {
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]time.Time, error)
	CreateBooking(ctx context.Context, p scheduling.CreateBookingParams) (*scheduling.Appointment, error)
	CancelBooking(ctx context.Context, id uuid.UUID, actor scheduling.Actor) (*scheduling.Appointment, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status string, actor scheduling.Actor) (*scheduling.Appointment, error)
	RescheduleBooking(ctx context.Context, id uuid.UUID, newInstant time.Time, displayTime string, actor scheduling.Actor, strict bool) (*scheduling.Appointment, error)
	RegisterDoctor(ctx context.Context, name string, specialty *string, tmpl scheduling.WorkingHoursTemplate) (*scheduling.Doctor, error)
	ReplaceTemplate(ctx context.Context, doctorID uuid.UUID, tmpl scheduling.WorkingHoursTemplate) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]scheduling.Appointment, error)
	ListAppointmentsByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]scheduling.Appointment, error)
}

func availableSlotsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
			return
		}

		dateStr := r.URL.Query().Get("date")
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be formatted YYYY-MM-DD")
			return
		}

		slots, err := svc.AvailableSlots(r.Context(), doctorID, day)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := SlotsResponse{
			DoctorID: doctorID,
			Date:     dateStr,
			Slots:    make([]string, 0, len(slots)),
		}
		for _, s := range slots {
			resp.Slots = append(resp.Slots, s.Format(time.RFC3339))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func createBookingHandler(svc SchedulingService, strictDefault bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBookingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at must be RFC3339")
			return
		}

		strict := strictDefault
		if req.Strict != nil {
			strict = *req.Strict
		}

		appt, err := svc.CreateBooking(r.Context(), scheduling.CreateBookingParams{
			DoctorID:    doctorID,
			PatientID:   patientID,
			ScheduledAt: scheduledAt,
			DisplayTime: req.DisplayTime,
			Reason:      req.Reason,
			Notes:       req.Notes,
			Strict:      strict,
		})
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

// simplifiedBookingHandler is the lenient entry point: it runs the
// same code path as createBookingHandler with strict forced off.
func simplifiedBookingHandler(svc SchedulingService) http.HandlerFunc {
	return createBookingHandler(svc, false)
}

func cancelBookingHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		appt, err := svc.CancelBooking(r.Context(), id, actor)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func updateStatusHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateBookingStatus(r.Context(), id, req.Status, actor)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleHandler(svc SchedulingService, strictDefault bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		actor, ok := actorFromRequest(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_actor", "X-Actor-ID and X-Actor-Role headers are required")
			return
		}

		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_scheduled_at", "scheduled_at must be RFC3339")
			return
		}

		strict := strictDefault
		if req.Strict != nil {
			strict = *req.Strict
		}

		appt, err := svc.RescheduleBooking(r.Context(), id, scheduledAt, req.DisplayTime, actor, strict)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit := intQuery(q.Get("limit"), 0)
		offset := intQuery(q.Get("offset"), 0)

		var (
			appts []scheduling.Appointment
			err   error
		)

		switch {
		case q.Get("patient_id") != "":
			patientID, perr := uuid.Parse(q.Get("patient_id"))
			if perr != nil {
				writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
				return
			}
			appts, err = svc.ListAppointmentsByPatient(r.Context(), patientID, limit, offset)
		case q.Get("doctor_id") != "":
			doctorID, derr := uuid.Parse(q.Get("doctor_id"))
			if derr != nil {
				writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor_id must be a valid UUID")
				return
			}
			appts, err = svc.ListAppointmentsByDoctor(r.Context(), doctorID, limit, offset)
		default:
			writeError(w, http.StatusBadRequest, "missing_filter", "patient_id or doctor_id query parameter is required")
			return
		}

		if err != nil {
			handleServiceError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func registerDoctorHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_name", "name is required")
			return
		}

		tmpl, err := templateFromEntries(req.Schedule)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
			return
		}

		doc, err := svc.RegisterDoctor(r.Context(), req.Name, req.Specialty, tmpl)
		if err != nil {
			handleServiceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, DoctorResponse{
			ID:        doc.ID,
			Name:      doc.Name,
			Specialty: doc.Specialty,
			CreatedAt: doc.CreatedAt,
		})
	}
}

func replaceScheduleHandler(svc SchedulingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
			return
		}

		var req ReplaceScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if len(req.Schedule) == 0 {
			writeError(w, http.StatusBadRequest, "invalid_schedule", "schedule must contain at least one entry")
			return
		}

		tmpl, err := templateFromEntries(req.Schedule)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_schedule", err.Error())
			return
		}

		if err := svc.ReplaceTemplate(r.Context(), doctorID, tmpl); err != nil {
			handleServiceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func templateFromEntries(entries []ScheduleEntry) (scheduling.WorkingHoursTemplate, error) {
	tmpl := make(scheduling.WorkingHoursTemplate, 0, len(entries))
	for _, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return nil, fmt.Errorf("day_of_week %d out of range 0-6", e.DayOfWeek)
		}
		start, err := scheduling.ParseTimeOfDay(e.Start)
		if err != nil {
			return nil, err
		}
		end, err := scheduling.ParseTimeOfDay(e.End)
		if err != nil {
			return nil, err
		}
		tmpl = append(tmpl, scheduling.TemplateEntry{
			Weekday: time.Weekday(e.DayOfWeek),
			Start:   start,
			End:     end,
		})
	}
	return tmpl, nil
}

func actorFromRequest(r *http.Request) (scheduling.Actor, bool) {
	id, err := uuid.Parse(r.Header.Get("X-Actor-ID"))
	if err != nil {
		return scheduling.Actor{}, false
	}

	switch scheduling.Role(r.Header.Get("X-Actor-Role")) {
	case scheduling.RolePatient:
		return scheduling.Actor{ID: id, Role: scheduling.RolePatient}, true
	case scheduling.RoleDoctor:
		return scheduling.Actor{ID: id, Role: scheduling.RoleDoctor}, true
	case scheduling.RoleAdmin:
		return scheduling.Actor{ID: id, Role: scheduling.RoleAdmin}, true
	default:
		return scheduling.Actor{}, false
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	var rej *scheduling.Rejection
	if errors.As(err, &rej) {
		status := http.StatusBadRequest
		if rej.Kind == scheduling.RejectDoctorNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, string(rej.Kind), rej.Reason)
		return
	}

	switch {
	case errors.Is(err, scheduling.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, scheduling.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, scheduling.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_already_booked", err.Error())
	case errors.Is(err, scheduling.ErrBookingContended):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, scheduling.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, scheduling.ErrPastAppointment):
		writeError(w, http.StatusBadRequest, "past_appointment", err.Error())
	case errors.Is(err, scheduling.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "forbidden", err.Error())
	default:
		// Storage or infrastructure failure: retryable, and internals
		// stay out of the response body.
		writeError(w, http.StatusInternalServerError, "internal_error", "temporary failure, please retry")
	}
}

func intQuery(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
