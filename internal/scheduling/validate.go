package scheduling

import (
	"fmt"
	"time"
)

// RejectionKind classifies why a booking request was refused.
type RejectionKind string

const (
	RejectDoctorNotFound      RejectionKind = "doctor_not_found"
	RejectInPast              RejectionKind = "in_past"
	RejectNonWorkingDay       RejectionKind = "non_working_day"
	RejectOutsideWorkingHours RejectionKind = "outside_working_hours"
)

// Rejection is a user-facing refusal of a booking request. It is a
// value, not a process error: the HTTP layer maps it to a 4xx response.
type Rejection struct {
	Kind   RejectionKind
	Reason string
}

func (r *Rejection) Error() string { return r.Reason }

func reject(kind RejectionKind, format string, args ...any) *Rejection {
	return &Rejection{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Validate runs the booking-eligibility checks for a proposed
// (doctor, instant) pair and returns nil when booking may proceed.
// Checks run in order and short-circuit: doctor existence, then
// not-in-the-past, then (strict mode only) working-day and
// working-hours checks against the doctor's template.
//
// proposed and now are absolute instants; weekday and time-of-day are
// derived in loc. Validate has no side effects and is idempotent.
func Validate(doctorExists bool, tmpl WorkingHoursTemplate, proposed, now time.Time, loc *time.Location, strict bool) *Rejection {
	if !doctorExists {
		return reject(RejectDoctorNotFound, "doctor not found")
	}

	if !proposed.After(now) {
		return reject(RejectInPast, "cannot book appointments in the past")
	}

	if !strict {
		return nil
	}

	local := proposed.In(loc)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return reject(RejectNonWorkingDay,
			"appointments cannot be booked on weekends (%s is a %s)",
			local.Format("January 2, 2006"), wd)
	}

	entry, ok := tmpl.EntryFor(wd)
	if !ok {
		return reject(RejectNonWorkingDay, "the doctor does not work on %s", wd)
	}

	tod := TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
	if tod.Minutes() < entry.Start.Minutes() || tod.Minutes() >= entry.End.Minutes() {
		return reject(RejectOutsideWorkingHours,
			"requested time %s is outside working hours %s-%s",
			tod, entry.Start, entry.End)
	}

	return nil
}
