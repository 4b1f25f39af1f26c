// Package timegrid holds the pure time-of-day arithmetic behind slot
// generation: parsing clinic-local wall-clock values, combining them with
// calendar dates, and walking the 15-minute candidate grid inside a free block.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuantizationStep is the granularity, in minutes, at which candidate start
// times are generated within a free block. The grid restarts at each block's
// own lower bound rather than being aligned to midnight; callers depend on
// that behaviour.
const QuantizationStep = 15

var (
	ErrUnparseableTime = errors.New("unparseable time of day")
	ErrUnparseableDate = errors.New("unparseable date")
)

// TimeOfDay is a clinic-local wall-clock time, stored as minutes since
// midnight. It carries no timezone; the clinic's local zone is implied.
type TimeOfDay int

// Parse accepts HH:MM or HH:MM:SS (24-hour). Seconds are accepted for
// compatibility with stores that render time columns with seconds, but are
// truncated: the scheduling grid has minute resolution.
func Parse(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
	}

	mins, err := strconv.Atoi(parts[1])
	if err != nil || mins < 0 || mins > 59 {
		return 0, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
	}

	if len(parts) == 3 {
		secs, err := strconv.Atoi(parts[2])
		if err != nil || secs < 0 || secs > 59 {
			return 0, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
		}
	}

	return TimeOfDay(hours*60 + mins), nil
}

// FromMinutes converts minutes-since-midnight to a TimeOfDay.
func FromMinutes(m int) TimeOfDay { return TimeOfDay(m) }

// Minutes returns minutes since midnight.
func (t TimeOfDay) Minutes() int { return int(t) }

// Add returns the time n minutes later. Callers keep operations within one
// calendar day, so no rollover handling is needed.
func (t TimeOfDay) Add(n int) TimeOfDay { return t + TimeOfDay(n) }

func (t TimeOfDay) Before(o TimeOfDay) bool { return t < o }

func (t TimeOfDay) After(o TimeOfDay) bool { return t > o }

// String renders HH:MM, the wire format for slot candidates.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// ParseDate parses a YYYY-MM-DD calendar date. The result is midnight in the
// supplied location, or UTC when loc is nil.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, s)
	}
	return d, nil
}

// Combine attaches a time of day to a calendar date, producing an instant in
// the date's location.
func Combine(date time.Time, tod TimeOfDay) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, tod.Minutes()/60, tod.Minutes()%60, 0, 0, date.Location())
}

// CandidateStarts emits every start time on the 15-minute grid anchored at
// from, such that a booking of duration minutes still ends at or before
// until. The first candidate is from itself; an exact fit against until is
// included. A non-positive duration yields no candidates.
func CandidateStarts(from, until TimeOfDay, duration int) []TimeOfDay {
	if duration <= 0 {
		return nil
	}

	var out []TimeOfDay
	for t := from; !t.Add(duration).After(until); t = t.Add(QuantizationStep) {
		out = append(out, t)
	}
	return out
}
