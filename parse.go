package main

import (
	"strconv"
	"strings"
	"time"
)

// ResponseKind classifies one availability cell.
type ResponseKind int

const (
	// ResponseUnknown covers blank cells and the explicit "maybe" token.
	// Neutral for intersection, counts as unanswered for readiness.
	ResponseUnknown ResponseKind = iota
	// ResponseYes means available all day.
	ResponseYes
	// ResponseNo means unavailable; poisons any group containing the
	// participant.
	ResponseNo
	// ResponseRange is a concrete time window on the candidate date.
	ResponseRange
	// ResponseMalformed is a non-empty cell that matched no token and no
	// time syntax. Status logic treats it like Unknown (needs
	// clarification); intersection logic treats it like No.
	ResponseMalformed
)

// Response is the parsed form of one (participant, date) cell.
type Response struct {
	Kind  ResponseKind
	Start time.Time
	End   time.Time
	Raw   string
}

// Duration is the length of a range response, zero for every other kind.
func (r Response) Duration() time.Duration {
	if r.Kind != ResponseRange {
		return 0
	}
	return r.End.Sub(r.Start)
}

// Answered reports whether the cell holds anything at all.
func (r Response) Answered() bool {
	return r.Raw != ""
}

// ParseResponse interprets one raw response cell against a candidate date.
// It never fails: anything that is not a configured token and not valid
// time syntax comes back as ResponseMalformed.
//
// Accepted time syntax: "H[:MM[:SS]]-H[:MM[:SS]]" for an explicit window,
// or a bare "H[:MM[:SS]]" start time which gets a default block of
// cfg.ShortEventWarningHours appended.
func ParseResponse(text string, date time.Time, cfg Config) Response {
	raw := strings.TrimSpace(text)
	resp := Response{Raw: raw}
	if raw == "" {
		return resp
	}

	lowered := strings.ToLower(raw)
	switch lowered {
	case strings.ToLower(cfg.YesToken):
		resp.Kind = ResponseYes
		return resp
	case strings.ToLower(cfg.NoToken):
		resp.Kind = ResponseNo
		return resp
	case strings.ToLower(cfg.MaybeToken):
		return resp
	}

	day := midnight(date)

	if from, to, ok := strings.Cut(lowered, "-"); ok {
		start, okStart := parseTimeOfDay(from, day)
		end, okEnd := parseTimeOfDay(to, day)
		if !okStart || !okEnd || !start.Before(end) {
			resp.Kind = ResponseMalformed
			return resp
		}
		resp.Kind = ResponseRange
		resp.Start = start
		resp.End = end
		return resp
	}

	start, ok := parseTimeOfDay(lowered, day)
	if !ok {
		resp.Kind = ResponseMalformed
		return resp
	}
	resp.Kind = ResponseRange
	resp.Start = start
	resp.End = start.Add(hoursDuration(cfg.ShortEventWarningHours))
	return resp
}

// parseTimeOfDay parses "H[:MM[:SS]]" onto the given day (midnight-anchored).
func parseTimeOfDay(s string, day time.Time) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return time.Time{}, false
	}

	vals := [3]int{}
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return time.Time{}, false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		vals[i] = n
	}
	hour, min, sec := vals[0], vals[1], vals[2]
	if hour > 23 || min > 59 || sec > 59 {
		return time.Time{}, false
	}
	return day.Add(time.Duration(hour)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(sec)*time.Second), true
}

func hoursDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
