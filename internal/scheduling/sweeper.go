package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// SweepPastAppointments reclassifies appointments whose end instant has
// passed into Completed, returning the number transitioned. Intended to be
// called periodically by the sweeper worker.
//
// Each transition is isolated: one record failing (typically a concurrent
// status change) is logged with its identifier and the sweep continues.
// Already-Completed records no longer match the selection, so re-running
// with the same now is a no-op.
func (s *Service) SweepPastAppointments(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.repo.FindPastActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find past appointments: %w", err)
	}

	updated := 0
	for _, appt := range candidates {
		if !appt.sweepable() || !appt.EndsBefore(now) {
			// Repository implementations already filter; recheck cheaply in
			// case a row changed between select and update.
			continue
		}

		_, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCompleted)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Lost a race with a cancel or confirm; skip it this round.
				continue
			}
			log.Printf("sweep: failed to complete appointment %s: %v", appt.ID, err)
			continue
		}
		updated++
	}

	return updated, nil
}
