package scheduling

import (
	"time"

	"github.com/google/uuid"

	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

type AppointmentStatus string

const (
	StatusBooked    AppointmentStatus = "Booked"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCheckedIn AppointmentStatus = "Checked-in"
	StatusCompleted AppointmentStatus = "Completed"
	StatusCancelled AppointmentStatus = "Cancelled"
)

// DefaultBookingChannel is stamped onto appointments created without an
// explicit provenance, before the conflict check runs.
const DefaultBookingChannel = "Front-desk"

// DefaultDurationMins is used when an appointment type cannot be resolved or
// carries no duration at booking time. A fallback, not an error: the
// availability path instead degrades to an empty result.
const DefaultDurationMins = 30

type Practitioner struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduleEntry is one row of a practitioner's weekly working hours. At most
// one entry exists per weekday.
type ScheduleEntry struct {
	PractitionerID uuid.UUID
	DayOfWeek      time.Weekday
	StartTime      timegrid.TimeOfDay
	EndTime        timegrid.TimeOfDay
}

type AppointmentType struct {
	ID                  uuid.UUID
	Name                string
	DefaultDurationMins int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	TypeID         uuid.UUID
	Date           time.Time // calendar date, time component zero
	StartTime      timegrid.TimeOfDay
	EndTime        timegrid.TimeOfDay // always computed, never authored
	Status         AppointmentStatus
	BookingChannel string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EndsBefore reports whether the appointment's end instant is strictly
// before now. Used by the sweeper's completion filter.
func (a Appointment) EndsBefore(now time.Time) bool {
	return timegrid.Combine(a.Date, a.EndTime).Before(now)
}

// Overlaps reports half-open interval overlap with another appointment on
// the same practitioner and date: [a.start, a.end) against [b.start, b.end).
func (a Appointment) Overlaps(b Appointment) bool {
	return a.StartTime.Before(b.EndTime) && b.StartTime.Before(a.EndTime)
}

// Active reports whether the appointment still occupies its interval for
// conflict purposes. Only cancellation frees the slot.
func (a Appointment) Active() bool {
	return a.Status != StatusCancelled
}

// sweepable statuses: everything that still awaits its visit.
func (a Appointment) sweepable() bool {
	switch a.Status {
	case StatusBooked, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}
