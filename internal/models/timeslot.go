package models

import (
	"sort"
	"time"
)

// Timeslot is an immutable candidate interval. It is never persisted.
type Timeslot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeslot returns the slot starting at start and lasting durationMinutes.
func NewTimeslot(start time.Time, durationMinutes int) Timeslot {
	return Timeslot{
		Start: start,
		End:   start.Add(time.Duration(durationMinutes) * time.Minute),
	}
}

// Duration is End minus Start.
func (t Timeslot) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Clashes reports whether the two slots overlap.
func (t Timeslot) Clashes(other Timeslot) bool {
	return Clashes(t.Start, t.End, other.Start, other.End)
}

func (t Timeslot) String() string {
	const layout = "2006-01-02T15:04"
	return t.Start.Format(layout) + " - " + t.End.Format(layout)
}

// CompareTimeslots orders by start, then by end. It returns -1, 0 or 1.
func CompareTimeslots(a, b Timeslot) int {
	switch {
	case a.Start.After(b.Start):
		return 1
	case a.Start.Before(b.Start):
		return -1
	case a.End.Before(b.End):
		return -1
	case a.End.After(b.End):
		return 1
	}
	return 0
}

// SortTimeslots sorts in place, chronologically and stable.
func SortTimeslots(slots []Timeslot) {
	sort.SliceStable(slots, func(i, j int) bool {
		return CompareTimeslots(slots[i], slots[j]) < 0
	})
}
