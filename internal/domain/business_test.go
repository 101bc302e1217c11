package domain

import "testing"

func TestDayHoursWindow(t *testing.T) {
	open := DayHours{Open: "09:00", Close: "18:00"}
	w, ok := open.Window()
	if !ok {
		t.Fatalf("expected open day")
	}
	if w != (Interval{Start: 540, End: 1080}) {
		t.Fatalf("window = %+v", w)
	}

	for _, d := range []DayHours{
		{},
		{Open: "09:00"},
		{Open: "09:00", Close: "09:00"},
		{Open: "18:00", Close: "09:00"},
		{Open: "bogus", Close: "18:00"},
	} {
		if _, ok := d.Window(); ok {
			t.Fatalf("expected closed window for %+v", d)
		}
	}
}

func TestWeeklyHoursForDate(t *testing.T) {
	var hours WeeklyHours
	hours[0] = DayHours{Open: "09:00", Close: "18:00"} // Monday
	hours[6] = DayHours{}                              // Sunday closed

	w, ok := hours.ForDate("2026-03-02") // a Monday
	if !ok || w.Start != 540 || w.End != 1080 {
		t.Fatalf("monday window = %+v ok=%v", w, ok)
	}

	if _, ok := hours.ForDate("2026-03-08"); ok { // a Sunday
		t.Fatalf("expected sunday closed")
	}
	if _, ok := hours.ForDate("not-a-date"); ok {
		t.Fatalf("expected malformed date to read as closed")
	}
}

func TestWeeklyHoursValidate(t *testing.T) {
	var valid WeeklyHours
	valid[0] = DayHours{Open: "09:00", Close: "18:00"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	var inverted WeeklyHours
	inverted[2] = DayHours{Open: "18:00", Close: "09:00"}
	if err := inverted.Validate(); err == nil {
		t.Fatalf("expected error for inverted hours")
	}
}
