package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medgrid/hospital-scheduling/internal/clock"
	redisclient "github.com/medgrid/hospital-scheduling/internal/redis"
)

// memRepository is an in-memory Repository that enforces the same
// uniqueness rule as the partial index in Postgres: at most one
// non-cancelled appointment per (doctor, instant).
type memRepository struct {
	mu           sync.Mutex
	doctors      map[uuid.UUID]*Doctor
	patients     map[uuid.UUID]*Patient
	templates    map[uuid.UUID]WorkingHoursTemplate
	appointments map[uuid.UUID]*Appointment
	events       []EventLog
}

func newMemRepository() *memRepository {
	return &memRepository{
		doctors:      make(map[uuid.UUID]*Doctor),
		patients:     make(map[uuid.UUID]*Patient),
		templates:    make(map[uuid.UUID]WorkingHoursTemplate),
		appointments: make(map[uuid.UUID]*Appointment),
	}
}

func (r *memRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepository) GetPatientByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepository) CreateDoctor(_ context.Context, d *Doctor, tmpl WorkingHoursTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.doctors[d.ID] = &cp
	r.templates[d.ID] = append(WorkingHoursTemplate(nil), tmpl...)
	return nil
}

func (r *memRepository) GetTemplate(_ context.Context, doctorID uuid.UUID) (WorkingHoursTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append(WorkingHoursTemplate(nil), r.templates[doctorID]...), nil
}

func (r *memRepository) ReplaceTemplate(_ context.Context, doctorID uuid.UUID, tmpl WorkingHoursTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[doctorID] = append(WorkingHoursTemplate(nil), tmpl...)
	return nil
}

func (r *memRepository) BookedInstants(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []time.Time
	for _, a := range r.appointments {
		if a.DoctorID != doctorID || a.Status == StatusCancelled {
			continue
		}
		if !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, a.ScheduledAt)
		}
	}
	return out, nil
}

func (r *memRepository) slotTakenLocked(doctorID uuid.UUID, at time.Time) bool {
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Status != StatusCancelled && a.ScheduledAt.Equal(at) {
			return true
		}
	}
	return false
}

func (r *memRepository) CreateAppointment(_ context.Context, p CreateAppointmentParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slotTakenLocked(p.DoctorID, p.ScheduledAt) {
		return nil, ErrSlotTaken
	}
	a := &Appointment{
		ID:          uuid.New(),
		DoctorID:    p.DoctorID,
		PatientID:   p.PatientID,
		ScheduledAt: p.ScheduledAt,
		DisplayTime: p.DisplayTime,
		Status:      StatusScheduled,
		Reason:      p.Reason,
		Notes:       p.Notes,
	}
	r.appointments[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *memRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	cp := *a
	return &cp, nil
}

func (r *memRepository) RescheduleAppointment(_ context.Context, id uuid.UUID, p CreateAppointmentParams) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.appointments[id]
	if !ok || old.Status != StatusScheduled {
		return nil, ErrAppointmentNotFound
	}
	if r.slotTakenLocked(p.DoctorID, p.ScheduledAt) {
		return nil, ErrSlotTaken
	}
	old.Status = StatusCancelled
	a := &Appointment{
		ID:          uuid.New(),
		DoctorID:    p.DoctorID,
		PatientID:   p.PatientID,
		ScheduledAt: p.ScheduledAt,
		DisplayTime: p.DisplayTime,
		Status:      StatusScheduled,
		Reason:      p.Reason,
		Notes:       p.Notes,
	}
	r.appointments[a.ID] = a
	cp := *a
	return &cp, nil
}

func (r *memRepository) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memRepository) ListAppointmentsByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memRepository) InsertEvent(_ context.Context, ev EventLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// seedAppointment inserts a row directly, bypassing validation, so
// tests can start from arbitrary states such as past instants.
func (r *memRepository) seedAppointment(a Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := a
	r.appointments[a.ID] = &cp
}

// passthroughLocker runs fn without any locking, leaving conflict
// detection entirely to the repository's uniqueness rule.
type passthroughLocker struct{}

func (passthroughLocker) WithBookingLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// heldLocker simulates a lock already held by another request.
type heldLocker struct{}

func (heldLocker) WithBookingLock(context.Context, uuid.UUID, time.Time, func(ctx context.Context) error) error {
	return redisclient.ErrLockNotAcquired
}

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC) // Tuesday noon

type serviceFixture struct {
	svc     *Service
	repo    *memRepository
	doctor  *Doctor
	patient *Patient
}

func newServiceFixture(t *testing.T, locker redisclient.Locker) *serviceFixture {
	t.Helper()

	repo := newMemRepository()
	tc := clock.FixedContext(clock.Fixed(testNow), time.UTC)
	svc := NewService(repo, locker, tc, 30*time.Minute, zerolog.Nop())

	doctor := &Doctor{ID: uuid.New(), Name: "Dr. Asha Rao"}
	require.NoError(t, repo.CreateDoctor(context.Background(), doctor, DefaultTemplate()))

	patient := &Patient{ID: uuid.New(), Name: "Ravi Kumar"}
	repo.patients[patient.ID] = patient

	return &serviceFixture{svc: svc, repo: repo, doctor: doctor, patient: patient}
}

func (f *serviceFixture) addPatient() *Patient {
	p := &Patient{ID: uuid.New(), Name: "Meera Nair"}
	f.repo.mu.Lock()
	f.repo.patients[p.ID] = p
	f.repo.mu.Unlock()
	return p
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()
	slot := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	t.Run("success with defaulted reason", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})

		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID:    f.doctor.ID,
			PatientID:   f.patient.ID,
			ScheduledAt: slot,
			DisplayTime: "10:00 AM",
			Strict:      true,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, appt.Status)
		assert.Equal(t, "General consultation", appt.Reason)
		assert.Equal(t, "10:00 AM", appt.DisplayTime)
		assert.True(t, appt.ScheduledAt.Equal(slot))
		require.Len(t, f.repo.events, 1)
		assert.Equal(t, EventBookingCreated, f.repo.events[0].EventType)
	})

	t.Run("unknown doctor rejected", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})

		_, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID:    uuid.New(),
			PatientID:   f.patient.ID,
			ScheduledAt: slot,
			Strict:      true,
		})
		var rej *Rejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, RejectDoctorNotFound, rej.Kind)
	})

	t.Run("unknown patient", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})

		_, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID:    f.doctor.ID,
			PatientID:   uuid.New(),
			ScheduledAt: slot,
			Strict:      true,
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("strict rejects off-hours, simplified allows it", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		evening := time.Date(2025, 6, 11, 22, 0, 0, 0, time.UTC)

		_, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID:    f.doctor.ID,
			PatientID:   f.patient.ID,
			ScheduledAt: evening,
			Strict:      true,
		})
		var rej *Rejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, RejectOutsideWorkingHours, rej.Kind)

		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID:    f.doctor.ID,
			PatientID:   f.patient.ID,
			ScheduledAt: evening,
			Strict:      false,
		})
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, appt.Status)
	})

	t.Run("same slot twice conflicts", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		other := f.addPatient()

		_, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: slot, Strict: true,
		})
		require.NoError(t, err)

		_, err = f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: other.ID, ScheduledAt: slot, Strict: true,
		})
		assert.ErrorIs(t, err, ErrSlotTaken)
	})

	t.Run("held lock maps to contention error", func(t *testing.T) {
		f := newServiceFixture(t, heldLocker{})

		_, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: slot, Strict: true,
		})
		assert.ErrorIs(t, err, ErrBookingContended)
	})
}

func TestCreateBookingConcurrentSingleWinner(t *testing.T) {
	f := newServiceFixture(t, passthroughLocker{})
	slot := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	const n = 32
	patients := make([]*Patient, n)
	for i := range patients {
		patients[i] = f.addPatient()
	}

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateBooking(context.Background(), CreateBookingParams{
				DoctorID:    f.doctor.ID,
				PatientID:   patients[i].ID,
				ScheduledAt: slot,
				Strict:      true,
			})
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()
	slot := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	book := func(t *testing.T, f *serviceFixture) *Appointment {
		t.Helper()
		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: slot, Strict: true,
		})
		require.NoError(t, err)
		return appt
	}

	t.Run("owner cancel frees the slot", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		appt := book(t, f)

		slots, err := f.svc.AvailableSlots(ctx, f.doctor.ID, slot)
		require.NoError(t, err)
		assert.NotContains(t, asUnix(slots), slot.Unix())

		cancelled, err := f.svc.CancelBooking(ctx, appt.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)

		slots, err = f.svc.AvailableSlots(ctx, f.doctor.ID, slot)
		require.NoError(t, err)
		assert.Contains(t, asUnix(slots), slot.Unix())
	})

	t.Run("authorization matrix", func(t *testing.T) {
		tests := []struct {
			name    string
			actor   func(f *serviceFixture, appt *Appointment) Actor
			wantErr error
		}{
			{"owning patient", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: a.PatientID, Role: RolePatient}
			}, nil},
			{"assigned doctor", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: a.DoctorID, Role: RoleDoctor}
			}, nil},
			{"admin", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: uuid.New(), Role: RoleAdmin}
			}, nil},
			{"other patient", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: uuid.New(), Role: RolePatient}
			}, ErrUnauthorized},
			{"other doctor", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: uuid.New(), Role: RoleDoctor}
			}, ErrUnauthorized},
			{"unknown role", func(f *serviceFixture, a *Appointment) Actor {
				return Actor{ID: a.PatientID, Role: Role("visitor")}
			}, ErrUnauthorized},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				f := newServiceFixture(t, passthroughLocker{})
				appt := book(t, f)

				_, err := f.svc.CancelBooking(ctx, appt.ID, tc.actor(f, appt))
				if tc.wantErr == nil {
					assert.NoError(t, err)
				} else {
					assert.ErrorIs(t, err, tc.wantErr)
				}
			})
		}
	})

	t.Run("past appointment", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		past := Appointment{
			ID:          uuid.New(),
			DoctorID:    f.doctor.ID,
			PatientID:   f.patient.ID,
			ScheduledAt: testNow.Add(-time.Hour),
			Status:      StatusScheduled,
		}
		f.repo.seedAppointment(past)

		_, err := f.svc.CancelBooking(ctx, past.ID, Actor{ID: f.patient.ID, Role: RolePatient})
		assert.ErrorIs(t, err, ErrPastAppointment)
	})

	t.Run("unknown appointment", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		_, err := f.svc.CancelBooking(ctx, uuid.New(), Actor{ID: f.patient.ID, Role: RolePatient})
		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	ctx := context.Background()

	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		for _, attempted := range []Status{StatusScheduled, StatusCompleted, StatusCancelled} {
			t.Run(string(terminal)+"_to_"+string(attempted), func(t *testing.T) {
				f := newServiceFixture(t, passthroughLocker{})
				appt := Appointment{
					ID:          uuid.New(),
					DoctorID:    f.doctor.ID,
					PatientID:   f.patient.ID,
					ScheduledAt: testNow.Add(24 * time.Hour),
					Status:      terminal,
				}
				f.repo.seedAppointment(appt)

				admin := Actor{ID: uuid.New(), Role: RoleAdmin}
				_, err := f.svc.UpdateBookingStatus(ctx, appt.ID, string(attempted), admin)
				assert.ErrorIs(t, err, ErrInvalidTransition)

				_, err = f.svc.CancelBooking(ctx, appt.ID, admin)
				assert.ErrorIs(t, err, ErrInvalidTransition)

				got, err := f.svc.GetAppointment(ctx, appt.ID)
				require.NoError(t, err)
				assert.Equal(t, terminal, got.Status)
			})
		}
	}
}

func TestUpdateBookingStatus(t *testing.T) {
	ctx := context.Background()
	slot := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	t.Run("doctor completes the appointment", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: slot, Strict: true,
		})
		require.NoError(t, err)

		updated, err := f.svc.UpdateBookingStatus(ctx, appt.ID, "Completed", Actor{ID: f.doctor.ID, Role: RoleDoctor})
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.Status)
	})

	t.Run("unknown status string", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		_, err := f.svc.UpdateBookingStatus(ctx, uuid.New(), "archived", Actor{ID: uuid.New(), Role: RoleAdmin})
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})
}

func TestRescheduleBooking(t *testing.T) {
	ctx := context.Background()
	oldSlot := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	newSlot := time.Date(2025, 6, 12, 14, 30, 0, 0, time.UTC)

	t.Run("moves the booking and cancels the original", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: oldSlot, Strict: true,
		})
		require.NoError(t, err)

		moved, err := f.svc.RescheduleBooking(ctx, appt.ID, newSlot, "2:30 PM", Actor{ID: f.patient.ID, Role: RolePatient}, true)
		require.NoError(t, err)
		assert.True(t, moved.ScheduledAt.Equal(newSlot))
		assert.Equal(t, StatusScheduled, moved.Status)
		assert.NotEqual(t, appt.ID, moved.ID)

		old, err := f.svc.GetAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, old.Status)

		slots, err := f.svc.AvailableSlots(ctx, f.doctor.ID, oldSlot)
		require.NoError(t, err)
		assert.Contains(t, asUnix(slots), oldSlot.Unix())
	})

	t.Run("conflict on the new instant leaves the original scheduled", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		other := f.addPatient()

		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: oldSlot, Strict: true,
		})
		require.NoError(t, err)

		_, err = f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: other.ID, ScheduledAt: newSlot, Strict: true,
		})
		require.NoError(t, err)

		_, err = f.svc.RescheduleBooking(ctx, appt.ID, newSlot, "", Actor{ID: f.patient.ID, Role: RolePatient}, true)
		assert.ErrorIs(t, err, ErrSlotTaken)

		got, err := f.svc.GetAppointment(ctx, appt.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusScheduled, got.Status)
		assert.True(t, got.ScheduledAt.Equal(oldSlot))
	})

	t.Run("strict validation applies to the new instant", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: oldSlot, Strict: true,
		})
		require.NoError(t, err)

		saturday := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
		_, err = f.svc.RescheduleBooking(ctx, appt.ID, saturday, "", Actor{ID: f.patient.ID, Role: RolePatient}, true)

		var rej *Rejection
		require.ErrorAs(t, err, &rej)
		assert.Equal(t, RejectNonWorkingDay, rej.Kind)
	})

	t.Run("unauthorized actor", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})
		appt, err := f.svc.CreateBooking(ctx, CreateBookingParams{
			DoctorID: f.doctor.ID, PatientID: f.patient.ID, ScheduledAt: oldSlot, Strict: true,
		})
		require.NoError(t, err)

		_, err = f.svc.RescheduleBooking(ctx, appt.ID, newSlot, "", Actor{ID: uuid.New(), Role: RolePatient}, true)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestRegisterDoctor(t *testing.T) {
	ctx := context.Background()

	t.Run("empty template defaults to Mon-Fri 9-5", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})

		d, err := f.svc.RegisterDoctor(ctx, "Dr. Vikram Shah", nil, nil)
		require.NoError(t, err)

		tmpl, err := f.repo.GetTemplate(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, DefaultTemplate(), tmpl)
	})

	t.Run("invalid template rejected", func(t *testing.T) {
		f := newServiceFixture(t, passthroughLocker{})

		bad := WorkingHoursTemplate{
			{Weekday: time.Monday, Start: TimeOfDay{Hour: 17}, End: TimeOfDay{Hour: 9}},
		}
		_, err := f.svc.RegisterDoctor(ctx, "Dr. Vikram Shah", nil, bad)
		assert.Error(t, err)
	})
}

func TestAvailableSlotsClinicWestOfUTC(t *testing.T) {
	newYork, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	repo := newMemRepository()
	tc := clock.FixedContext(clock.Fixed(testNow), newYork)
	svc := NewService(repo, passthroughLocker{}, tc, 30*time.Minute, zerolog.Nop())

	doctor := &Doctor{ID: uuid.New(), Name: "Dr. Asha Rao"}
	require.NoError(t, repo.CreateDoctor(context.Background(), doctor, DefaultTemplate()))

	// The HTTP layer parses ?date=2025-06-11 into UTC midnight, which is
	// still June 10 in New York. The date fields, not the instant, name
	// the requested day: every slot must fall on Wednesday June 11
	// clinic-local.
	day := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	slots, err := svc.AvailableSlots(context.Background(), doctor.ID, day)
	require.NoError(t, err)
	require.Len(t, slots, 16)
	for _, s := range slots {
		local := s.In(newYork)
		assert.Equal(t, 11, local.Day())
		assert.Equal(t, time.Wednesday, local.Weekday())
	}
}

func TestAvailableSlotsUnknownDoctor(t *testing.T) {
	f := newServiceFixture(t, passthroughLocker{})
	_, err := f.svc.AvailableSlots(context.Background(), uuid.New(), testNow)
	assert.ErrorIs(t, err, ErrDoctorNotFound)
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, defaultListLimit, 0},
		{-5, -3, defaultListLimit, 0},
		{50, 10, 50, 10},
		{500, 0, maxListLimit, 0},
	}
	for _, tc := range tests {
		limit, offset := clampPage(tc.limit, tc.offset)
		assert.Equal(t, tc.wantLimit, limit)
		assert.Equal(t, tc.wantOffset, offset)
	}
}

func asUnix(ts []time.Time) []int64 {
	out := make([]int64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.Unix())
	}
	return out
}
