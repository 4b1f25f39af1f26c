package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is a thread-safe in-memory Repository. It backs the test
// suites and local development without Postgres; semantics mirror
// PgRepository, including the conditional status transition.
type MemoryRepository struct {
	mu            sync.RWMutex
	practitioners map[uuid.UUID]Practitioner
	schedules     map[uuid.UUID][]ScheduleEntry
	types         map[uuid.UUID]AppointmentType
	appointments  map[uuid.UUID]Appointment
	createdOrder  []uuid.UUID
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		practitioners: make(map[uuid.UUID]Practitioner),
		schedules:     make(map[uuid.UUID][]ScheduleEntry),
		types:         make(map[uuid.UUID]AppointmentType),
		appointments:  make(map[uuid.UUID]Appointment),
	}
}

// Setup helpers

func (m *MemoryRepository) AddPractitioner(p Practitioner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.practitioners[p.ID] = p
}

func (m *MemoryRepository) AddScheduleEntry(e ScheduleEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[e.PractitionerID] = append(m.schedules[e.PractitionerID], e)
	sort.Slice(m.schedules[e.PractitionerID], func(i, j int) bool {
		s := m.schedules[e.PractitionerID]
		return s[i].DayOfWeek < s[j].DayOfWeek
	})
}

func (m *MemoryRepository) AddAppointmentType(t AppointmentType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[t.ID] = t
}

// Repository implementation

func (m *MemoryRepository) GetPractitionerByID(_ context.Context, id uuid.UUID) (*Practitioner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.practitioners[id]
	if !ok {
		return nil, ErrPractitionerNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) GetPractitionerSchedule(_ context.Context, practitionerID uuid.UUID) ([]ScheduleEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.schedules[practitionerID]
	out := make([]ScheduleEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MemoryRepository) GetAppointmentTypeByID(_ context.Context, id uuid.UUID) (*AppointmentType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.types[id]
	if !ok {
		return nil, ErrTypeNotFound
	}
	return &t, nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *MemoryRepository) ListBookings(_ context.Context, practitionerID uuid.UUID, date time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Appointment
	for _, a := range m.appointments {
		if a.PractitionerID == practitionerID && sameDate(a.Date, date) && a.Active() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (m *MemoryRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *MemoryRepository) CreateAppointment(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved := *a
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	now := time.Now()
	saved.CreatedAt = now
	saved.UpdatedAt = now

	m.appointments[saved.ID] = saved
	m.createdOrder = append(m.createdOrder, saved.ID)
	return &saved, nil
}

func (m *MemoryRepository) UpdateAppointmentTimes(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	existing.PractitionerID = a.PractitionerID
	existing.TypeID = a.TypeID
	existing.Date = a.Date
	existing.StartTime = a.StartTime
	existing.EndTime = a.EndTime
	existing.BookingChannel = a.BookingChannel
	existing.UpdatedAt = time.Now()

	m.appointments[a.ID] = existing
	return &existing, nil
}

func (m *MemoryRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = time.Now()
	m.appointments[id] = a
	return &a, nil
}

func (m *MemoryRepository) FindPastActive(_ context.Context, now time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Appointment
	for _, a := range m.appointments {
		if a.sweepable() && a.EndsBefore(now) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (m *MemoryRepository) ListPatientAppointments(_ context.Context, patientID uuid.UUID, from time.Time, limit int) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID && !a.Date.Before(from) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) GetLastPatientAppointment(_ context.Context, patientID uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.createdOrder) - 1; i >= 0; i-- {
		a, ok := m.appointments[m.createdOrder[i]]
		if ok && a.PatientID == patientID {
			return &a, nil
		}
	}
	return nil, ErrAppointmentNotFound
}
