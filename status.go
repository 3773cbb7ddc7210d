package main

import "time"

// rosterResponses parses the cells of one event for every roster
// participant, in roster order. Missing cells parse as blank; cells under
// names not on the roster are ignored entirely.
func rosterResponses(ev *CandidateEvent, roster []Participant, cfg Config) []Response {
	responses := make([]Response, len(roster))
	for i, p := range roster {
		responses[i] = ParseResponse(ev.Cells[p.Name], ev.Date, cfg)
	}
	return responses
}

// ClassifyRow derives the visible pipeline status of one row from its
// responses alone. It deliberately knows nothing about durations or
// intersections: "ready" means everyone answered usefully, not that a
// schedulable time exists.
func ClassifyRow(responses []Response, roster []Participant) Status {
	if len(roster) == 0 {
		return StatusUnset
	}

	ready := 0
	answered := 0
	for _, r := range responses {
		if r.Kind == ResponseNo {
			// A single hard no cancels the row outright.
			return StatusCancelled
		}
		if r.Answered() {
			answered++
		}
		if r.Kind == ResponseYes || r.Kind == ResponseRange {
			ready++
		}
	}

	switch {
	case ready == len(roster):
		return StatusReady
	case answered > 0:
		return StatusAwaiting
	default:
		return StatusUnset
	}
}

// ClassifyEvent is the edit-driven entry point: parse one row and classify
// it. Pure, no I/O.
func ClassifyEvent(ev *CandidateEvent, roster []Participant, cfg Config) Status {
	return ClassifyRow(rosterResponses(ev, roster, cfg), roster)
}

// readyFraction is the share of the roster that answered Yes or a parseable
// time range, used to gate reminders.
func readyFraction(responses []Response, roster []Participant) float64 {
	if len(roster) == 0 {
		return 0
	}
	ready := 0
	for _, r := range responses {
		if r.Kind == ResponseYes || r.Kind == ResponseRange {
			ready++
		}
	}
	return float64(ready) / float64(len(roster))
}

// pastDate reports whether the candidate date lies strictly before today.
func pastDate(date, now time.Time) bool {
	return midnight(date).Before(midnight(now))
}
