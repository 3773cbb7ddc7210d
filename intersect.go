package main

import "time"

// IntersectionKind is the outcome category of an intersection.
type IntersectionKind int

const (
	// IntersectInfeasible: no common window, or one shorter than the
	// active minimum duration.
	IntersectInfeasible IntersectionKind = iota
	// IntersectWindow: a concrete common window on the candidate date.
	IntersectWindow
	// IntersectAllDay: every counted participant affirmed the whole day.
	IntersectAllDay
)

// allDayDuration is what AllDay counts as when durations are compared
// across dates.
const allDayDuration = 24 * time.Hour

type IntersectionResult struct {
	Kind  IntersectionKind
	Start time.Time
	End   time.Time
}

func (r IntersectionResult) Feasible() bool {
	return r.Kind != IntersectInfeasible
}

func (r IntersectionResult) Duration() time.Duration {
	switch r.Kind {
	case IntersectAllDay:
		return allDayDuration
	case IntersectWindow:
		return r.End.Sub(r.Start)
	default:
		return 0
	}
}

// Intersect computes the common available window of the given responses on
// the candidate date, strict semantics: a No (or malformed cell) makes the
// whole group infeasible. Unknown responses do not narrow the window but
// rule out AllDay. A result shorter than minDuration is infeasible.
func Intersect(responses []Response, date time.Time, minDuration time.Duration) IntersectionResult {
	if len(responses) == 0 {
		return IntersectionResult{Kind: IntersectInfeasible}
	}

	day := midnight(date)
	start := day
	end := day.Add(24*time.Hour - time.Millisecond)
	allYes := true
	narrowed := false

	for _, r := range responses {
		switch r.Kind {
		case ResponseNo, ResponseMalformed:
			return IntersectionResult{Kind: IntersectInfeasible}
		case ResponseUnknown:
			allYes = false
		case ResponseYes:
			// Compatible with the running window as-is.
		case ResponseRange:
			allYes = false
			narrowed = true
			if r.Start.After(start) {
				start = r.Start
			}
			if r.End.Before(end) {
				end = r.End
			}
		}
	}

	if !narrowed {
		if allYes {
			return IntersectionResult{Kind: IntersectAllDay}
		}
		// Nobody constrained the day but not everyone affirmed it:
		// represent the full day and let the duration gate decide.
		return windowOrInfeasible(start, end, minDuration)
	}
	return windowOrInfeasible(start, end, minDuration)
}

func windowOrInfeasible(start, end time.Time, minDuration time.Duration) IntersectionResult {
	if !start.Before(end) || end.Sub(start) < minDuration {
		return IntersectionResult{Kind: IntersectInfeasible}
	}
	return IntersectionResult{Kind: IntersectWindow, Start: start, End: end}
}
