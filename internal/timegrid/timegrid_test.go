package timegrid

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    int // minutes since midnight
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "00:00", want: 0},
		{in: "23:59", want: 1439},
		{in: "14:30:00", want: 870},
		{in: " 10:15 ", want: 615},
		{in: "9:05", want: 545},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12", wantErr: true},
		{in: "12:00:99", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := Parse(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", tc.in, got)
			} else if !errors.Is(err, ErrUnparseableTime) {
				t.Errorf("Parse(%q): error is not ErrUnparseableTime: %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got.Minutes() != tc.want {
			t.Errorf("Parse(%q) = %d minutes, want %d", tc.in, got.Minutes(), tc.want)
		}
	}
}

func TestTimeOfDayString(t *testing.T) {
	if got := FromMinutes(540).String(); got != "09:00" {
		t.Errorf("String() = %q, want 09:00", got)
	}
	if got := FromMinutes(555).String(); got != "09:15" {
		t.Errorf("String() = %q, want 09:15", got)
	}
	if got := FromMinutes(0).String(); got != "00:00" {
		t.Errorf("String() = %q, want 00:00", got)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Errorf("2026-03-02 should be a Monday, got %s", d.Weekday())
	}

	if _, err := ParseDate("02/03/2026", nil); !errors.Is(err, ErrUnparseableDate) {
		t.Errorf("expected ErrUnparseableDate, got %v", err)
	}
}

func TestCombine(t *testing.T) {
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tod, _ := Parse("10:45")

	got := Combine(date, tod)
	want := time.Date(2026, 3, 2, 10, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Combine = %v, want %v", got, want)
	}
}

func TestCandidateStarts(t *testing.T) {
	tod := func(s string) TimeOfDay {
		v, err := Parse(s)
		if err != nil {
			t.Fatalf("bad time %q: %v", s, err)
		}
		return v
	}

	cases := []struct {
		name     string
		from     string
		until    string
		duration int
		want     []string
	}{
		{
			name: "grid anchored at block start, exact fit included",
			from: "09:00", until: "10:00", duration: 30,
			want: []string{"09:00", "09:15", "09:30"},
		},
		{
			name: "non-aligned lower bound keeps its own grid",
			from: "10:20", until: "11:30", duration: 30,
			want: []string{"10:20", "10:35", "10:50", "11:05"}, // not 10:30/10:45
		},
		{
			name: "block too small for duration",
			from: "09:00", until: "09:20", duration: 30,
			want: nil,
		},
		{
			name: "duration equal to block",
			from: "09:00", until: "09:45", duration: 45,
			want: []string{"09:00"},
		},
		{
			name: "zero duration yields nothing",
			from: "09:00", until: "12:00", duration: 0,
			want: nil,
		},
		{
			name: "negative duration yields nothing",
			from: "09:00", until: "12:00", duration: -15,
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CandidateStarts(tod(tc.from), tod(tc.until), tc.duration)

			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i].String() != tc.want[i] {
					t.Errorf("candidate %d = %s, want %s", i, got[i], tc.want[i])
				}
			}
			// No candidate may overrun the upper bound.
			for _, c := range got {
				if c.Add(tc.duration).After(tod(tc.until)) {
					t.Errorf("candidate %s + %dm overruns %s", c, tc.duration, tc.until)
				}
			}
		})
	}
}
