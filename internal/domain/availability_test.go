package domain

import (
	"reflect"
	"testing"
)

func TestAvailableSlots_FullDayWalk(t *testing.T) {
	// 09:00-18:00, 60 minute service, 15 minute steps. The first slot starts
	// at opening and the last one at 17:00 so it still finishes by close.
	slots := AvailableSlots(540, 1080, 60, 15, nil, -1)

	if len(slots) != 33 {
		t.Fatalf("len(slots) = %d, want 33", len(slots))
	}
	if slots[0] != (Interval{Start: 540, End: 600}) {
		t.Fatalf("first slot = %+v, want 09:00-10:00", slots[0])
	}
	last := slots[len(slots)-1]
	if last != (Interval{Start: 1020, End: 1080}) {
		t.Fatalf("last slot = %+v, want 17:00-18:00", last)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].Start-slots[i-1].Start != 15 {
			t.Fatalf("slot starts not 15 minutes apart at index %d", i)
		}
	}
}

func TestAvailableSlots_AdjacentReservationDoesNotBlock(t *testing.T) {
	// A reservation ending at 14:15 must not block the candidate starting at
	// 14:15; half-open intervals make adjacency conflict-free.
	existing := []Interval{{Start: 825, End: 855}} // 13:45-14:15
	slots := AvailableSlots(540, 1080, 30, 15, existing, -1)

	var starts []int
	for _, s := range slots {
		starts = append(starts, s.Start)
	}
	wantPresent := []int{855, 795}  // 14:15 and 13:15 (ends exactly at 13:45)
	wantAbsent := []int{810, 825, 840} // any start overlapping 13:45-14:15
	for _, w := range wantPresent {
		if !containsStart(starts, w) {
			t.Fatalf("expected start %s to be bookable", MinutesToTime(w))
		}
	}
	for _, w := range wantAbsent {
		if containsStart(starts, w) {
			t.Fatalf("expected start %s to be blocked", MinutesToTime(w))
		}
	}
}

func TestAvailableSlots_SameDayCutoff(t *testing.T) {
	// Now is 10:07. The buffer keeps 10:02 as the effective floor, which
	// rounds up to the 10:15 step.
	slots := AvailableSlots(540, 1080, 60, 15, nil, 607)
	if len(slots) == 0 {
		t.Fatalf("expected slots")
	}
	if slots[0].Start != 615 {
		t.Fatalf("first slot = %s, want 10:15", MinutesToTime(slots[0].Start))
	}

	// Now exactly on a step inside the buffer keeps the current slot.
	slots = AvailableSlots(540, 1080, 60, 15, nil, 604)
	if slots[0].Start != 600 {
		t.Fatalf("first slot = %s, want 10:00", MinutesToTime(slots[0].Start))
	}

	// Past closing yields nothing.
	if slots := AvailableSlots(540, 1080, 60, 15, nil, 1085); slots != nil {
		t.Fatalf("expected no slots after close, got %d", len(slots))
	}
}

func TestAvailableSlots_DegenerateInputs(t *testing.T) {
	if slots := AvailableSlots(540, 1080, 0, 15, nil, -1); slots != nil {
		t.Fatalf("zero duration should yield nil")
	}
	if slots := AvailableSlots(540, 1080, 60, 0, nil, -1); slots != nil {
		t.Fatalf("zero granularity should yield nil")
	}
	if slots := AvailableSlots(600, 540, 60, 15, nil, -1); slots != nil {
		t.Fatalf("close before open should yield nil")
	}
	// Duration longer than the whole window.
	if slots := AvailableSlots(540, 570, 60, 15, nil, -1); slots != nil {
		t.Fatalf("oversized duration should yield nil")
	}
}

func TestAvailableSlots_Idempotent(t *testing.T) {
	existing := []Interval{{Start: 600, End: 660}, {Start: 900, End: 990}}
	first := AvailableSlots(540, 1080, 45, 15, existing, -1)
	second := AvailableSlots(540, 1080, 45, 15, existing, -1)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same inputs produced different slot lists")
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		a, b Interval
		want bool
	}{
		{a: Interval{540, 600}, b: Interval{570, 630}, want: true},
		{a: Interval{540, 600}, b: Interval{600, 660}, want: false}, // adjacency
		{a: Interval{600, 660}, b: Interval{540, 600}, want: false},
		{a: Interval{540, 660}, b: Interval{570, 600}, want: true}, // containment
		{a: Interval{540, 600}, b: Interval{540, 600}, want: true},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Fatalf("Overlaps(%+v, %+v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
		if got := Overlaps(tc.b, tc.a); got != tc.want {
			t.Fatalf("Overlaps not symmetric for %+v, %+v", tc.a, tc.b)
		}
	}
}

func containsStart(starts []int, want int) bool {
	for _, s := range starts {
		if s == want {
			return true
		}
	}
	return false
}
