package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPractitionerNotFound = errors.New("practitioner not found")
	ErrTypeNotFound         = errors.New("appointment type not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrPatientNotFound      = errors.New("patient not found")
)

// Repository contains all store interactions needed by the scheduling
// service. The date arguments are calendar dates; implementations compare
// on the date component only.
type Repository interface {
	GetPractitionerByID(ctx context.Context, id uuid.UUID) (*Practitioner, error)

	// GetPractitionerSchedule returns the weekly working hours ordered by
	// weekday, at most one entry per weekday.
	GetPractitionerSchedule(ctx context.Context, practitionerID uuid.UUID) ([]ScheduleEntry, error)

	GetAppointmentTypeByID(ctx context.Context, id uuid.UUID) (*AppointmentType, error)

	// ListBookings returns every non-Cancelled appointment for the
	// practitioner on the given date, ordered by start time ascending.
	ListBookings(ctx context.Context, practitionerID uuid.UUID, date time.Time) ([]Appointment, error)

	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateAppointmentTimes rewrites the scheduling fields of an existing
	// appointment after the guard has re-validated them.
	UpdateAppointmentTimes(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateAppointmentStatus performs a conditional transition and returns
	// ErrAppointmentNotFound when no row matched (id, from).
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// FindPastActive returns appointments still in a pre-visit status whose
	// end instant is strictly before now. Sweeper input.
	FindPastActive(ctx context.Context, now time.Time) ([]Appointment, error)

	// Patient-facing queries used by the assistant flows.
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]Appointment, error)
	GetLastPatientAppointment(ctx context.Context, patientID uuid.UUID) (*Appointment, error)
}
