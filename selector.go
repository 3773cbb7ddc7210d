package main

import "time"

// ScheduleDecision is the single winning date of a week group.
type ScheduleDecision struct {
	Date   time.Time
	Result IntersectionResult
}

// RestrictionNotice reports that a date only works for a strict subgroup,
// naming who is restricting the duration and what the subgroup could get.
type RestrictionNotice struct {
	Date         time.Time
	Participants []string
	Restricting  []string
	Achievable   IntersectionResult
}

// WeekOutcome is everything the weekly pass needs to act on for one week:
// the scheduling decision (if any), the status to write per date key, and
// any duration-restriction notices.
type WeekOutcome struct {
	Decision      *ScheduleDecision
	StatusChanges map[string]Status
	Restrictions  []RestrictionNotice
}

// SelectWeekly decides one ISO-week group. Among ready dates the one with
// the strictly longest full-roster window wins (AllDay beats any partial
// window; earlier date wins ties); the winner is scheduled and every other
// date in the week is superseded unless already cancelled or scheduled.
// When no date qualifies, ready-but-short dates are marked failed on
// duration and stale awaiting dates are closed out. Restriction analysis
// runs independently of who wins.
func SelectWeekly(events []*CandidateEvent, roster []Participant, cfg Config, now time.Time) WeekOutcome {
	outcome := WeekOutcome{StatusChanges: make(map[string]Status)}
	minEvent := hoursDuration(cfg.MinEventDurationHours)
	minConsider := hoursDuration(cfg.MinConsiderationDurationHours)

	parsed := make(map[string][]Response, len(events))
	intersected := make(map[string]IntersectionResult, len(events))
	for _, ev := range events {
		responses := rosterResponses(ev, roster, cfg)
		parsed[ev.DateKey()] = responses
		if ev.Status == StatusReady {
			intersected[ev.DateKey()] = Intersect(responses, ev.Date, minConsider)
		}
	}

	var winner *CandidateEvent
	var best IntersectionResult
	for _, ev := range events {
		if ev.Status != StatusReady {
			continue
		}
		res := intersected[ev.DateKey()]
		if !res.Feasible() || (res.Kind == IntersectWindow && res.Duration() < minEvent) {
			continue
		}
		if winner == nil || res.Duration() > best.Duration() {
			winner = ev
			best = res
		}
	}

	if winner != nil {
		outcome.Decision = &ScheduleDecision{Date: winner.Date, Result: best}
		outcome.StatusChanges[winner.DateKey()] = StatusScheduled
		for _, ev := range events {
			if ev == winner {
				continue
			}
			switch ev.Status {
			case StatusCancelled, StatusScheduled, StatusSuperseded:
				continue
			}
			outcome.StatusChanges[ev.DateKey()] = StatusSuperseded
		}
	} else {
		for _, ev := range events {
			switch ev.Status {
			case StatusReady:
				// Everyone answered, but the common window is too
				// short (or gone) for a real event.
				outcome.StatusChanges[ev.DateKey()] = StatusFailedDuration
			case StatusAwaiting, StatusUnset:
				if pastDate(ev.Date, now) {
					outcome.StatusChanges[ev.DateKey()] = StatusNotEnoughResponses
				}
			}
		}
	}

	// Restriction analysis: dates that do not work for the full roster may
	// still work for a qualifying subgroup. This runs whether or not the
	// week got a winner.
	for _, ev := range events {
		if pastDate(ev.Date, now) {
			continue
		}
		switch ev.Status {
		case StatusAwaiting:
		case StatusReady:
			res := intersected[ev.DateKey()]
			if res.Feasible() && (res.Kind == IntersectAllDay || res.Duration() >= minEvent) {
				continue
			}
		default:
			continue
		}
		comb := FindOptimalCombination(parsed[ev.DateKey()], roster, ev.Date, cfg)
		if !comb.Result.Feasible() || len(comb.Participants) >= len(roster) {
			continue
		}
		outcome.Restrictions = append(outcome.Restrictions, RestrictionNotice{
			Date:         ev.Date,
			Participants: comb.Participants,
			Restricting:  comb.Restricting,
			Achievable:   comb.Result,
		})
	}

	return outcome
}
