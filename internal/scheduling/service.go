package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/medinova/clinic-scheduling/internal/redis"
	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

// Service is the scheduling core: availability computation, the booking
// conflict guard, status transitions and the lifecycle sweep.
type Service struct {
	repo   Repository
	locker redisclient.Locker
}

func NewService(repo Repository, locker redisclient.Locker) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
	}
}

// Draft is a caller-authored booking request. EndTime is never accepted from
// callers; the guard computes it from the appointment type's duration.
type Draft struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	TypeID         uuid.UUID
	Date           time.Time
	StartTime      string // HH:MM or HH:MM:SS
	BookingChannel string
}

// BookAppointment validates and persists a new appointment. The pipeline is
// explicit and ordered: apply defaults, compute the end time, check for
// conflicts, persist. The conflict check and the insert run inside a
// distributed lock scoped to (practitioner, date) so two racing requests for
// the same slot cannot both pass the check.
func (s *Service) BookAppointment(ctx context.Context, draft Draft) (*Appointment, error) {
	appt, err := s.buildFromDraft(ctx, draft)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithScheduleLock(ctx, appt.PractitionerID, appt.Date, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, appt, uuid.Nil); err != nil {
			return err
		}

		saved, err := s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = saved
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	return created, nil
}

// Reschedule moves an existing appointment to a new practitioner, date,
// start time or type. Any change to a scheduling field re-runs the full
// guard; the appointment itself is excluded from the overlap comparison so
// an unchanged time never self-conflicts.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, draft Draft) (*Appointment, error) {
	existing, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	// Unspecified fields keep their current values.
	if draft.PractitionerID == uuid.Nil {
		draft.PractitionerID = existing.PractitionerID
	}
	if draft.TypeID == uuid.Nil {
		draft.TypeID = existing.TypeID
	}
	if draft.Date.IsZero() {
		draft.Date = existing.Date
	}
	if draft.StartTime == "" {
		draft.StartTime = existing.StartTime.String()
	}
	if draft.PatientID == uuid.Nil {
		draft.PatientID = existing.PatientID
	}

	appt, err := s.buildFromDraft(ctx, draft)
	if err != nil {
		return nil, err
	}
	appt.ID = existing.ID
	appt.Status = existing.Status
	// The Front-desk default applies at creation only; an update without a
	// channel keeps whatever was recorded.
	if draft.BookingChannel == "" {
		appt.BookingChannel = existing.BookingChannel
	}

	var updated *Appointment

	err = s.locker.WithScheduleLock(ctx, appt.PractitionerID, appt.Date, func(lockCtx context.Context) error {
		if err := s.checkConflict(lockCtx, appt, appt.ID); err != nil {
			return err
		}

		saved, err := s.repo.UpdateAppointmentTimes(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}
		updated = saved
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrScheduleBusy
		}
		return nil, err
	}

	return updated, nil
}

// buildFromDraft runs the defaultFields and computeEndTime stages.
func (s *Service) buildFromDraft(ctx context.Context, draft Draft) (*Appointment, error) {
	if draft.PractitionerID == uuid.Nil || draft.TypeID == uuid.Nil || draft.Date.IsZero() || draft.StartTime == "" {
		return nil, ErrMissingFields
	}

	start, err := timegrid.Parse(draft.StartTime)
	if err != nil {
		return nil, err
	}

	duration, err := s.bookingDuration(ctx, draft.TypeID)
	if err != nil {
		return nil, err
	}

	channel := draft.BookingChannel
	if channel == "" {
		channel = DefaultBookingChannel
	}

	return &Appointment{
		PatientID:      draft.PatientID,
		PractitionerID: draft.PractitionerID,
		TypeID:         draft.TypeID,
		Date:           draft.Date,
		StartTime:      start,
		EndTime:        start.Add(duration),
		Status:         StatusBooked,
		BookingChannel: channel,
	}, nil
}

// bookingDuration resolves the type's default duration for the write path.
// An unknown type or an unset duration falls back to 30 minutes; this
// mirrors the front desk's long-standing behaviour and is not an error.
// Store failures other than not-found do propagate.
func (s *Service) bookingDuration(ctx context.Context, typeID uuid.UUID) (int, error) {
	t, err := s.repo.GetAppointmentTypeByID(ctx, typeID)
	if err != nil {
		if errors.Is(err, ErrTypeNotFound) {
			return DefaultDurationMins, nil
		}
		return 0, fmt.Errorf("load appointment type: %w", err)
	}
	if t.DefaultDurationMins <= 0 {
		return DefaultDurationMins, nil
	}
	return t.DefaultDurationMins, nil
}

// checkConflict enforces the no-double-booking invariant: no other
// non-Cancelled appointment for the same practitioner and date may overlap
// [start, end). selfID excludes the record being updated.
func (s *Service) checkConflict(ctx context.Context, appt *Appointment, selfID uuid.UUID) error {
	bookings, err := s.repo.ListBookings(ctx, appt.PractitionerID, appt.Date)
	if err != nil {
		return fmt.Errorf("list bookings for conflict check: %w", err)
	}

	for _, b := range bookings {
		if selfID != uuid.Nil && b.ID == selfID {
			continue
		}
		if b.Overlaps(*appt) {
			return &ConflictError{ConflictingID: b.ID}
		}
	}
	return nil
}

// Confirm moves a Booked appointment to Confirmed.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusBooked, StatusConfirmed)
}

// CheckIn moves a Confirmed appointment to Checked-in.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, StatusCheckedIn)
}

// Cancel releases the interval. Appointments are never deleted; any
// pre-visit status may move to Cancelled.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if !appt.sweepable() {
		return nil, ErrInvalidStatusTransition
	}
	return s.transition(ctx, id, appt.Status, StatusCancelled)
}

// transition performs a conditional status update. The WHERE status = from
// guard makes transitions race-safe: a concurrent writer that got there
// first leaves no matching row, which surfaces as an invalid transition.
func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			if _, lookupErr := s.repo.GetAppointmentByID(ctx, id); lookupErr == nil {
				return nil, ErrInvalidStatusTransition
			}
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("update status: %w", err)
	}
	return updated, nil
}

// GetAppointment retrieves an appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// UpcomingAppointments lists a patient's appointments from the given day
// forward, ascending by date.
func (s *Service) UpcomingAppointments(ctx context.Context, patientID uuid.UUID, from time.Time, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}

	appts, err := s.repo.ListPatientAppointments(ctx, patientID, from, limit)
	if err != nil {
		return nil, fmt.Errorf("list patient appointments: %w", err)
	}
	return appts, nil
}

// LastAppointment returns the patient's most recently created appointment.
func (s *Service) LastAppointment(ctx context.Context, patientID uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetLastPatientAppointment(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("last patient appointment: %w", err)
	}
	return appt, nil
}
