package scheduling

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrMissingFields means the draft lacks one of practitioner, date,
	// start time or appointment type, so the guard cannot run.
	ErrMissingFields = errors.New("appointment is missing required scheduling fields")

	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrScheduleBusy is returned when the per-practitioner-day lock could
	// not be acquired; the caller should retry shortly.
	ErrScheduleBusy = errors.New("schedule is currently being booked, please retry")
)

// ConflictError reports a double-booking attempt. It carries the identifier
// of the appointment already occupying the interval so callers can surface
// it; it is never retried silently.
type ConflictError struct {
	ConflictingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("practitioner is already booked for this time slot, conflicting appointment: %s", e.ConflictingID)
}

// IsConflict reports whether err is a booking conflict and, if so, returns
// the conflicting appointment's identifier.
func IsConflict(err error) (uuid.UUID, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.ConflictingID, true
	}
	return uuid.Nil, false
}
