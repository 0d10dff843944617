package models

import (
	"time"
)

const (
	// MinIntervalMinutes is the scheduling granularity and the search step
	// used when suggesting timeslots.
	MinIntervalMinutes = 15
	// DefaultDurationMinutes applies when a draft leaves the duration unset.
	DefaultDurationMinutes = 30
)

type Event struct {
	ID              int64     `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	Location        string    `json:"location" db:"location"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	OrganiserID     int64     `json:"organiser_id" db:"organiser_id"`

	Attendees IDSet `json:"attendees"`
	Invitees  IDSet `json:"invitees"`
}

// NewEvent builds an unsaved event draft. A non-positive duration falls back
// to DefaultDurationMinutes.
func NewEvent(title, description, location string, start time.Time, durationMinutes int) *Event {
	if durationMinutes <= 0 {
		durationMinutes = DefaultDurationMinutes
	}
	return &Event{
		Title:           title,
		Description:     description,
		Location:        location,
		StartTime:       start,
		DurationMinutes: durationMinutes,
	}
}

// EndTime is derived from the start time and duration.
func (e *Event) EndTime() time.Time {
	return e.StartTime.Add(time.Duration(e.DurationMinutes) * time.Minute)
}

// Timeslot returns the interval the event occupies.
func (e *Event) Timeslot() Timeslot {
	return NewTimeslot(e.StartTime, e.DurationMinutes)
}

// DoesEventClash reports whether an interval starting at start and lasting
// durationMinutes overlaps this event.
func (e *Event) DoesEventClash(start time.Time, durationMinutes int) bool {
	return Clashes(e.StartTime, e.EndTime(), start, start.Add(time.Duration(durationMinutes)*time.Minute))
}

// ClashesWith reports whether ts overlaps this event.
func (e *Event) ClashesWith(ts Timeslot) bool {
	return Clashes(e.StartTime, e.EndTime(), ts.Start, ts.End)
}

// IsInvolved reports whether the user is the organiser, an attendee or an invitee.
func (e *Event) IsInvolved(userID int64) bool {
	return e.OrganiserID == userID || e.Attendees.Contains(userID) || e.Invitees.Contains(userID)
}

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	c := *e
	c.Attendees = e.Attendees.Clone()
	c.Invitees = e.Invitees.Clone()
	return &c
}

// Clashes reports whether [aStart, aEnd) and [bStart, bEnd) overlap.
// Intervals that only touch at a boundary do not clash; equal intervals and
// containment in either direction do.
func Clashes(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// EventRequest is the draft submitted when creating an event or asking for
// timeslot suggestions. Invitees are usernames.
type EventRequest struct {
	Title           string    `json:"title" validate:"required,max=200"`
	Description     string    `json:"description" validate:"max=2000"`
	Location        string    `json:"location" validate:"max=200"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	Invitees        []string  `json:"invitees" validate:"dive,required"`
}

// SuggestionRequest asks for candidate timeslots.
type SuggestionRequest struct {
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	Invitees        []string  `json:"invitees" validate:"dive,required"`
}

// EventView is an event with its participants resolved to usernames.
type EventView struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Location        string        `json:"location"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Organiser       UserSummary   `json:"organiser"`
	Attendees       []UserSummary `json:"attendees"`
	Invitees        []UserSummary `json:"invitees"`
}
