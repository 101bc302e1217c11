package domain

import (
	"testing"
	"time"
)

func TestTimeToMinutes(t *testing.T) {
	cases := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{clock: "00:00", want: 0},
		{clock: "09:00", want: 540},
		{clock: "13:45", want: 825},
		{clock: "23:59", want: 1439},
		{clock: "24:00", wantErr: true},
		{clock: "9:00am", wantErr: true},
		{clock: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := TimeToMinutes(tc.clock)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("TimeToMinutes(%q): expected error", tc.clock)
			}
			continue
		}
		if err != nil {
			t.Fatalf("TimeToMinutes(%q) error: %v", tc.clock, err)
		}
		if got != tc.want {
			t.Fatalf("TimeToMinutes(%q) = %d, want %d", tc.clock, got, tc.want)
		}
	}
}

func TestMinutesToTimeRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:00", "09:05", "17:30", "23:59"} {
		m, err := TimeToMinutes(clock)
		if err != nil {
			t.Fatalf("TimeToMinutes(%q) error: %v", clock, err)
		}
		if got := MinutesToTime(m); got != clock {
			t.Fatalf("MinutesToTime(%d) = %q, want %q", m, got, clock)
		}
	}

	if got := MinutesToTime(-1); got != "" {
		t.Fatalf("MinutesToTime(-1) = %q, want empty", got)
	}
	if got := MinutesToTime(1440); got != "" {
		t.Fatalf("MinutesToTime(1440) = %q, want empty", got)
	}
}

func TestDayOfWeekMondayFirst(t *testing.T) {
	cases := []struct {
		date string
		want int
	}{
		{date: "2026-03-02", want: 0}, // Monday
		{date: "2026-03-04", want: 2}, // Wednesday
		{date: "2026-03-07", want: 5}, // Saturday
		{date: "2026-03-08", want: 6}, // Sunday
	}
	for _, tc := range cases {
		got, err := DayOfWeek(tc.date)
		if err != nil {
			t.Fatalf("DayOfWeek(%q) error: %v", tc.date, err)
		}
		if got != tc.want {
			t.Fatalf("DayOfWeek(%q) = %d, want %d", tc.date, got, tc.want)
		}
	}

	if _, err := DayOfWeek("03/02/2026"); err == nil {
		t.Fatalf("expected error for non-canonical date")
	}
}

func TestMinutesOfDay(t *testing.T) {
	at := time.Date(2026, 3, 2, 14, 37, 59, 0, time.UTC)
	if got := MinutesOfDay(at); got != 14*60+37 {
		t.Fatalf("MinutesOfDay = %d, want %d", got, 14*60+37)
	}
}
