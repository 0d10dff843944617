package service

import (
	"strings"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/rs/zerolog"
)

const (
	forwardTarget = 3
	totalTarget   = 4
)

// Suggester searches for timeslots that every participant can attend.
type Suggester struct {
	maxSteps int
	log      zerolog.Logger
}

// NewSuggester bounds each search direction to maxSteps steps of
// models.MinIntervalMinutes.
func NewSuggester(maxSteps int, log zerolog.Logger) *Suggester {
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &Suggester{maxSteps: maxSteps, log: log}
}

// FindTimeslots scans forward from start until three valid slots are found.
// If the first one is later than start it then scans backward, at least as
// far back as the first forward slot is ahead and until four slots exist in
// total. The result is sorted chronologically.
//
// ErrNoTimeslotFound is returned when the forward scan finds nothing within
// the step bound. Otherwise the slots found within the bound are returned,
// possibly fewer than three forward or four in total.
func (s *Suggester) FindTimeslots(organiser Availability, start time.Time, durationMinutes int, invitees []Availability) ([]models.Timeslot, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	step := time.Duration(models.MinIntervalMinutes) * time.Minute
	valid := func(ts models.Timeslot) bool {
		if !organiser.IsTimeslotAvailable(ts) {
			return false
		}
		for _, inv := range invitees {
			if !inv.IsTimeslotAvailable(ts) {
				return false
			}
		}
		return true
	}

	var slots []models.Timeslot
	for i := 0; len(slots) < forwardTarget && i < s.maxSteps; i++ {
		ts := models.NewTimeslot(start.Add(time.Duration(i)*step), durationMinutes)
		if valid(ts) {
			slots = append(slots, ts)
		}
	}
	if len(slots) == 0 {
		s.log.Debug().
			Time("start", start).
			Int("duration_minutes", durationMinutes).
			Int("max_steps", s.maxSteps).
			Msg("No timeslot found in forward search")
		return nil, ErrNoTimeslotFound
	}

	maxBackwards := slots[0].Start.Sub(start)
	if maxBackwards < 0 {
		maxBackwards = -maxBackwards
	}
	if maxBackwards == 0 {
		// already chronological
		s.logResult(start, durationMinutes, slots)
		return slots, nil
	}

	for i := 1; i <= s.maxSteps; i++ {
		offset := time.Duration(i) * step
		if offset > maxBackwards && len(slots) >= totalTarget {
			break
		}
		ts := models.NewTimeslot(start.Add(-offset), durationMinutes)
		if valid(ts) {
			slots = append(slots, ts)
		}
	}

	models.SortTimeslots(slots)
	s.logResult(start, durationMinutes, slots)
	return slots, nil
}

func (s *Suggester) logResult(start time.Time, durationMinutes int, slots []models.Timeslot) {
	if e := s.log.Trace(); e.Enabled() {
		parts := make([]string, len(slots))
		for i, ts := range slots {
			parts[i] = ts.String()
		}
		e.Str("requested", models.NewTimeslot(start, durationMinutes).String()).
			Str("suggestions", strings.Join(parts, ", ")).
			Msg("Found timeslot suggestions")
	}
}
