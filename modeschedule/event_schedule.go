// Package modeschedule describes when a legged robot switches between contact modes.
package modeschedule

import "sort"

// EventSchedule is the ordered list of times at which the active mode changes. It always starts
// at zero and partitions [0, inf) into half-open segments [At(i), At(i+1)).
type EventSchedule struct {
	times []float64
}

// NewEventSchedule returns a schedule over times, prepending zero when the first time is not
// zero. Times are otherwise taken as given; duplicates or decreasing entries are the caller's
// problem.
func NewEventSchedule(times []float64) EventSchedule {
	out := make([]float64, 0, len(times)+1)
	if len(times) == 0 || times[0] != 0 {
		out = append(out, 0)
	}
	out = append(out, times...)
	return EventSchedule{times: out}
}

// Times returns a copy of the schedule.
func (s EventSchedule) Times() []float64 {
	return append([]float64(nil), s.times...)
}

// Len returns the number of entries, including the leading zero.
func (s EventSchedule) Len() int {
	return len(s.times)
}

// At returns entry i. Indexes past the end return the last entry and negative indexes return the
// first.
func (s EventSchedule) At(i int) float64 {
	switch {
	case len(s.times) == 0:
		return 0
	case i < 0:
		return s.times[0]
	case i >= len(s.times):
		return s.times[len(s.times)-1]
	default:
		return s.times[i]
	}
}

// Last returns the final entry.
func (s EventSchedule) Last() float64 {
	return s.At(len(s.times) - 1)
}

// Segment returns the index of the segment containing t. Times before zero belong to segment 0.
func (s EventSchedule) Segment(t float64) int {
	idx := sort.Search(len(s.times), func(i int) bool { return s.times[i] > t }) - 1
	if idx < 0 {
		return 0
	}
	return idx
}
