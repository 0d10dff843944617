package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

// threeClauseClash is the overlap rule written out case by case: the other
// interval covers the event start, covers the event end, or lies inside it.
func threeClauseClash(eventStart time.Time, eventMinutes int, otherStart time.Time, otherMinutes int) bool {
	s, e := eventStart, eventStart.Add(time.Duration(eventMinutes)*time.Minute)
	cs, ce := otherStart, otherStart.Add(time.Duration(otherMinutes)*time.Minute)
	return (!cs.After(s) && ce.After(s)) ||
		(cs.Before(e) && !ce.Before(e)) ||
		(!cs.Before(s) && !ce.After(e))
}

func TestClashes_Scenarios(t *testing.T) {
	event := NewEvent("e", "", "", at(0), 30)

	tests := []struct {
		name      string
		start     int
		minutes   int
		wantClash bool
	}{
		{"ends exactly at event start", -45, 30, false},
		{"starts exactly at event end", 30, 30, false},
		{"covers the event", -60, 120, true},
		{"identical interval", 0, 30, true},
		{"inside the event", 10, 10, true},
		{"overlaps the start", -15, 30, true},
		{"overlaps the end", 15, 30, true},
		{"well before", -120, 30, false},
		{"well after", 120, 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := event.DoesEventClash(at(tt.start), tt.minutes)
			assert.Equal(t, tt.wantClash, got)
			assert.Equal(t, threeClauseClash(at(0), 30, at(tt.start), tt.minutes), got)

			ts := NewTimeslot(at(tt.start), tt.minutes)
			assert.Equal(t, got, event.ClashesWith(ts))
			assert.Equal(t, got, ts.Clashes(event.Timeslot()), "clash is symmetric")
		})
	}
}

func TestClashes_MatchesThreeClauseRuleOnGrid(t *testing.T) {
	durations := []int{5, 15, 30, 45, 90}
	for aStart := -60; aStart <= 60; aStart += 5 {
		for _, aDur := range durations {
			for bStart := -60; bStart <= 60; bStart += 5 {
				for _, bDur := range durations {
					want := threeClauseClash(at(aStart), aDur, at(bStart), bDur)
					a := NewTimeslot(at(aStart), aDur)
					b := NewTimeslot(at(bStart), bDur)
					require.Equal(t, want, a.Clashes(b), "a=%s b=%s", a, b)
					require.Equal(t, a.Clashes(b), b.Clashes(a), "a=%s b=%s", a, b)
				}
			}
		}
	}
}

func TestCompareTimeslots(t *testing.T) {
	a := NewTimeslot(at(0), 30)
	b := NewTimeslot(at(0), 45)
	c := NewTimeslot(at(15), 15)

	assert.Equal(t, 0, CompareTimeslots(a, NewTimeslot(at(0), 30)))
	assert.Equal(t, -1, CompareTimeslots(a, b), "same start, shorter first")
	assert.Equal(t, 1, CompareTimeslots(b, a))
	assert.Equal(t, -1, CompareTimeslots(b, c), "earlier start wins over end")
	assert.Equal(t, 1, CompareTimeslots(c, a))

	// transitivity over a small set
	slots := []Timeslot{a, b, c, NewTimeslot(at(-15), 60)}
	for _, x := range slots {
		for _, y := range slots {
			assert.Equal(t, -CompareTimeslots(y, x), CompareTimeslots(x, y))
			for _, z := range slots {
				if CompareTimeslots(x, y) < 0 && CompareTimeslots(y, z) < 0 {
					assert.Equal(t, -1, CompareTimeslots(x, z))
				}
			}
		}
	}
}

func TestSortTimeslots(t *testing.T) {
	slots := []Timeslot{
		NewTimeslot(at(60), 30),
		NewTimeslot(at(-30), 30),
		NewTimeslot(at(30), 30),
		NewTimeslot(at(30), 15),
	}
	SortTimeslots(slots)

	assert.Equal(t, []Timeslot{
		NewTimeslot(at(-30), 30),
		NewTimeslot(at(30), 15),
		NewTimeslot(at(30), 30),
		NewTimeslot(at(60), 30),
	}, slots)
}

func TestTimeslot_String(t *testing.T) {
	ts := NewTimeslot(at(0), 90)
	assert.Equal(t, "2024-05-06T10:00 - 2024-05-06T11:30", ts.String())
	assert.Equal(t, 90*time.Minute, ts.Duration())
}
