package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/medinova/clinic-scheduling/internal/timegrid"
)

// AvailableStartTimes computes every valid start time for the requested
// service on the practitioner's calendar day, as HH:MM strings, deduplicated
// and ascending.
//
// The read path is deliberately lenient: an unknown appointment type, a type
// with no duration, or a day the practitioner does not work all produce an
// empty result rather than an error, so callers can render "no slots"
// without special-casing a failure path. Only store failures while listing
// existing bookings surface as errors.
func (s *Service) AvailableStartTimes(ctx context.Context, practitionerID uuid.UUID, date time.Time, typeID uuid.UUID) ([]string, error) {
	duration, err := s.resolveDuration(ctx, typeID)
	if err != nil || duration <= 0 {
		if err != nil && !errors.Is(err, ErrTypeNotFound) {
			log.Printf("availability: duration lookup failed for type %s: %v", typeID, err)
		}
		return []string{}, nil
	}

	entry, err := s.scheduleEntryFor(ctx, practitionerID, date.Weekday())
	if err != nil {
		if !errors.Is(err, ErrPractitionerNotFound) {
			log.Printf("availability: schedule lookup failed for practitioner %s: %v", practitionerID, err)
		}
		return []string{}, nil
	}
	if entry == nil {
		// Practitioner does not work that day.
		return []string{}, nil
	}

	bookings, err := s.repo.ListBookings(ctx, practitionerID, date)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	candidates := collectCandidates(entry.StartTime, entry.EndTime, bookings, duration)

	out := make([]string, 0, len(candidates))
	seen := make(map[timegrid.TimeOfDay]struct{}, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c.String())
	}
	sort.Strings(out)

	return out, nil
}

// collectCandidates walks the day's bookings in start order, emitting grid
// candidates into each free gap that can hold the requested duration.
//
// The cursor tracks the running maximum of booking end times: bookings are
// ordered by start only, so a long booking followed by a shorter one that
// ends earlier must not pull the cursor backwards into occupied time.
func collectCandidates(dayStart, dayEnd timegrid.TimeOfDay, bookings []Appointment, duration int) []timegrid.TimeOfDay {
	var candidates []timegrid.TimeOfDay

	cursor := dayStart
	for _, b := range bookings {
		candidates = append(candidates, timegrid.CandidateStarts(cursor, b.StartTime, duration)...)
		if b.EndTime.After(cursor) {
			cursor = b.EndTime
		}
	}
	candidates = append(candidates, timegrid.CandidateStarts(cursor, dayEnd, duration)...)

	return candidates
}

// resolveDuration returns the appointment type's default duration in
// minutes, or 0 when the type is unknown.
func (s *Service) resolveDuration(ctx context.Context, typeID uuid.UUID) (int, error) {
	t, err := s.repo.GetAppointmentTypeByID(ctx, typeID)
	if err != nil {
		return 0, err
	}
	return t.DefaultDurationMins, nil
}

// scheduleEntryFor returns the practitioner's working hours for the weekday,
// or nil when no entry exists.
func (s *Service) scheduleEntryFor(ctx context.Context, practitionerID uuid.UUID, day time.Weekday) (*ScheduleEntry, error) {
	entries, err := s.repo.GetPractitionerSchedule(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].DayOfWeek == day {
			return &entries[i], nil
		}
	}
	return nil, nil
}
