package main

import "time"

const dateFormat = "2006-01-02"

// Participant is one roster member. Handle is an opaque chat identifier
// (Slack user ID) used for mention-style notifications when AllowMention
// is set; otherwise the participant is referred to by name only.
type Participant struct {
	Name         string `yaml:"name"`
	Handle       string `yaml:"handle"`
	AllowMention bool   `yaml:"allow_mention"`
}

// Status is the per-row pipeline state persisted in the events table.
type Status string

const (
	StatusUnset              Status = ""
	StatusAwaiting           Status = "awaiting"
	StatusReady              Status = "ready"
	StatusScheduled          Status = "scheduled"
	StatusSuperseded         Status = "superseded"
	StatusCancelled          Status = "cancelled"
	StatusFailedDuration     Status = "failed_duration"
	StatusNotEnoughResponses Status = "not_enough_responses"
)

// Terminal reports whether the weekly pass should leave the row alone.
func (s Status) Terminal() bool {
	switch s {
	case StatusScheduled, StatusSuperseded, StatusCancelled, StatusFailedDuration, StatusNotEnoughResponses:
		return true
	}
	return false
}

// CandidateEvent is one candidate date with the raw response cell of each
// participant, keyed by participant name. Cells not matching a roster name
// are carried but ignored by the engine.
type CandidateEvent struct {
	Date   time.Time
	Status Status
	Cells  map[string]string
}

func (ev *CandidateEvent) DateKey() string {
	return ev.Date.Format(dateFormat)
}

// WeekKey identifies an ISO-8601 week. At most one event is scheduled per
// week group.
type WeekKey struct {
	Year int
	Week int
}

func weekOf(t time.Time) WeekKey {
	year, week := t.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// GroupByWeek buckets events by ISO week, preserving date order within each
// bucket (callers pass events in ascending date order).
func GroupByWeek(events []*CandidateEvent) map[WeekKey][]*CandidateEvent {
	groups := make(map[WeekKey][]*CandidateEvent)
	for _, ev := range events {
		key := weekOf(ev.Date)
		groups[key] = append(groups[key], ev)
	}
	return groups
}

// midnight truncates t to 00:00:00 in its own location.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
