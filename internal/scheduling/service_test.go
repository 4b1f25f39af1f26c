package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

func (f *fixture) draft(start string) Draft {
	return Draft{
		PatientID:      f.patientID,
		PractitionerID: f.practitionerID,
		TypeID:         f.typeID,
		Date:           monday,
		StartTime:      start,
	}
}

func TestBook_ComputesEndTimeAndDefaults(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if appt.EndTime.String() != "10:30" {
		t.Errorf("end time = %s, want 10:30", appt.EndTime)
	}
	if appt.Status != StatusBooked {
		t.Errorf("status = %s, want Booked", appt.Status)
	}
	if appt.BookingChannel != DefaultBookingChannel {
		t.Errorf("channel = %q, want %q", appt.BookingChannel, DefaultBookingChannel)
	}
	if appt.ID == uuid.Nil {
		t.Error("appointment was not assigned an ID")
	}
}

func TestBook_ExplicitChannelKept(t *testing.T) {
	f := newFixture(t)

	d := f.draft("10:00")
	d.BookingChannel = "Patient Portal"

	appt, err := f.svc.BookAppointment(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.BookingChannel != "Patient Portal" {
		t.Errorf("channel = %q, want Patient Portal", appt.BookingChannel)
	}
}

func TestBook_UnknownTypeFallsBackToThirtyMinutes(t *testing.T) {
	f := newFixture(t)

	d := f.draft("10:00")
	d.TypeID = uuid.New() // never registered

	appt, err := f.svc.BookAppointment(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.EndTime.String() != "10:30" {
		t.Errorf("end time = %s, want 10:30 from the default duration", appt.EndTime)
	}
}

func TestBook_SecondsAcceptedInStartTime(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if appt.StartTime.String() != "10:00" {
		t.Errorf("start time = %s, want 10:00", appt.StartTime)
	}
}

func TestBook_UnparseableStartTime(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.BookAppointment(context.Background(), f.draft("ten o'clock"))
	if !errors.Is(err, timegrid.ErrUnparseableTime) {
		t.Fatalf("expected ErrUnparseableTime, got %v", err)
	}
}

func TestBook_MissingFields(t *testing.T) {
	f := newFixture(t)

	d := f.draft("10:00")
	d.PractitionerID = uuid.Nil

	if _, err := f.svc.BookAppointment(context.Background(), d); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}

	d = f.draft("")
	if _, err := f.svc.BookAppointment(context.Background(), d); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for empty start, got %v", err)
	}
}

func TestBook_OverlapRejectedWithConflictingID(t *testing.T) {
	f := newFixture(t)
	existingID := f.addBooking(t, "10:00", "10:30", StatusBooked)

	_, err := f.svc.BookAppointment(context.Background(), f.draft("10:15"))
	conflictingID, ok := IsConflict(err)
	if !ok {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictingID != existingID {
		t.Errorf("conflicting ID = %s, want %s", conflictingID, existingID)
	}
}

func TestBook_TouchingIntervalsDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "10:00", "10:30", StatusBooked)

	// [10:30, 11:00) shares only the boundary instant with [10:00, 10:30).
	if _, err := f.svc.BookAppointment(context.Background(), f.draft("10:30")); err != nil {
		t.Fatalf("back-to-back booking should not conflict: %v", err)
	}

	if _, err := f.svc.BookAppointment(context.Background(), f.draft("09:30")); err != nil {
		t.Fatalf("booking ending at 10:00 should not conflict: %v", err)
	}
}

func TestBook_CancelledDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, "10:00", "10:30", StatusCancelled)

	if _, err := f.svc.BookAppointment(context.Background(), f.draft("10:00")); err != nil {
		t.Fatalf("cancelled appointment should not block the slot: %v", err)
	}
}

func TestBook_ConcurrentOverlappingRequests(t *testing.T) {
	f := newFixture(t)

	const attempts = 2
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		default:
			if _, ok := IsConflict(err); ok {
				conflicts++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if successes != 1 || conflicts != 1 {
		t.Fatalf("racing identical bookings: %d successes, %d conflicts; want exactly 1 and 1", successes, conflicts)
	}
}

func TestReschedule_SameTimeNeverSelfConflicts(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// Change only the channel; identical interval must be excluded from the
	// overlap comparison by the appointment's own ID.
	updated, err := f.svc.Reschedule(context.Background(), appt.ID, Draft{BookingChannel: "Phone"})
	if err != nil {
		t.Fatalf("reschedule must not self-conflict: %v", err)
	}
	if updated.BookingChannel != "Phone" {
		t.Errorf("channel = %q, want Phone", updated.BookingChannel)
	}
	if updated.StartTime.String() != "10:00" || updated.EndTime.String() != "10:30" {
		t.Errorf("times changed unexpectedly: %s-%s", updated.StartTime, updated.EndTime)
	}
}

func TestReschedule_ChannelNotRedefaulted(t *testing.T) {
	f := newFixture(t)

	d := f.draft("10:00")
	d.BookingChannel = "Patient Portal"
	appt, err := f.svc.BookAppointment(context.Background(), d)
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	// The Front-desk default applies at creation only.
	updated, err := f.svc.Reschedule(context.Background(), appt.ID, Draft{StartTime: "11:00"})
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if updated.BookingChannel != "Patient Portal" {
		t.Errorf("channel = %q, want Patient Portal preserved", updated.BookingChannel)
	}
	if updated.StartTime.String() != "11:00" || updated.EndTime.String() != "11:30" {
		t.Errorf("reschedule did not recompute times: %s-%s", updated.StartTime, updated.EndTime)
	}
}

func TestReschedule_ConflictWithOtherBooking(t *testing.T) {
	f := newFixture(t)
	blockerID := f.addBooking(t, "11:00", "11:30", StatusConfirmed)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	_, err = f.svc.Reschedule(context.Background(), appt.ID, Draft{StartTime: "11:15"})
	conflictingID, ok := IsConflict(err)
	if !ok {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictingID != blockerID {
		t.Errorf("conflicting ID = %s, want %s", conflictingID, blockerID)
	}
}

func TestReschedule_UnknownAppointment(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reschedule(context.Background(), uuid.New(), Draft{StartTime: "11:00"})
	if !errors.Is(err, ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	confirmed, err := f.svc.Confirm(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != StatusConfirmed {
		t.Errorf("status = %s, want Confirmed", confirmed.Status)
	}

	// Confirming twice is not a valid transition.
	if _, err := f.svc.Confirm(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("double confirm: expected ErrInvalidStatusTransition, got %v", err)
	}

	checkedIn, err := f.svc.CheckIn(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if checkedIn.Status != StatusCheckedIn {
		t.Errorf("status = %s, want Checked-in", checkedIn.Status)
	}

	cancelled, err := f.svc.Cancel(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want Cancelled", cancelled.Status)
	}

	// Terminal states stay terminal.
	if _, err := f.svc.Cancel(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("cancel after cancel: expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestCancelFreesTheSlot(t *testing.T) {
	f := newFixture(t)

	appt, err := f.svc.BookAppointment(context.Background(), f.draft("10:00"))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := f.svc.Cancel(context.Background(), appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := f.svc.BookAppointment(context.Background(), f.draft("10:00")); err != nil {
		t.Fatalf("slot should be free after cancellation: %v", err)
	}
}
