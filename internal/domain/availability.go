package domain

// Interval is a half-open [Start, End) span in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// DefaultSlotGranularity is the candidate step in minutes when a business has
// not configured one.
const DefaultSlotGranularity = 15

// SameDayBuffer is the grace window, in minutes, that keeps the current slot
// bookable when listing availability for today.
const SameDayBuffer = 5

// AvailableSlots walks candidate start times from open to close-duration in
// steps of granularity and keeps every candidate whose [start, start+duration)
// span does not intersect an existing reservation. Intervals are half-open, so
// a candidate that begins exactly where a reservation ends is bookable.
//
// nowMinutes raises the lower bound for same-day requests; pass a negative
// value when the requested date is not today. Malformed or closed hours yield
// an empty result, never an error.
func AvailableSlots(open, close, duration, granularity int, existing []Interval, nowMinutes int) []Interval {
	if duration <= 0 || granularity <= 0 {
		return nil
	}
	if open < 0 || close <= open || close > minutesPerDay {
		return nil
	}

	start := open
	if nowMinutes >= 0 {
		floor := sameDayFloor(nowMinutes, granularity)
		if floor > start {
			start = floor
		}
		if start >= close {
			return nil
		}
	}

	var slots []Interval
	for t := start; t+duration <= close; t += granularity {
		candidate := Interval{Start: t, End: t + duration}
		if !HasConflict(candidate, existing) {
			slots = append(slots, candidate)
		}
	}
	return slots
}

// sameDayFloor rounds now minus the grace buffer up to the next granularity
// step, allowing a booking "right now" without emitting slots already past.
func sameDayFloor(nowMinutes, granularity int) int {
	m := nowMinutes - SameDayBuffer
	if m < 0 {
		m = 0
	}
	return (m + granularity - 1) / granularity * granularity
}
