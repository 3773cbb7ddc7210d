package main

import (
	"math"
	"time"
)

// OptimalCombination is the result of the subgroup search for one date:
// the chosen participant subset (roster order), its common window, and the
// participants whose own window is too short to ever support a full-length
// event. A zero-duration result with no participants means no qualifying
// subgroup exists.
type OptimalCombination struct {
	Participants []string
	Result       IntersectionResult
	Restricting  []string
}

// FindOptimalCombination looks for the largest subgroup of the roster whose
// common window reaches cfg.MinEventDurationHours, subject to the subgroup
// keeping at least ceil(rosterSize * cfg.PlayerCombinationThreshold)
// members. responses must be aligned with roster by index.
//
// Participants who answered No, answered something unparseable, or whose
// own range is below the minimum duration can never belong to a qualifying
// subset, so the search pool excludes them up front; they still count
// toward the roster size the threshold is computed from.
func FindOptimalCombination(responses []Response, roster []Participant, date time.Time, cfg Config) OptimalCombination {
	minDuration := hoursDuration(cfg.MinEventDurationHours)

	var restricting []string
	for i, r := range responses {
		if i >= len(roster) {
			break
		}
		if r.Kind == ResponseRange && r.Duration() < minDuration {
			restricting = append(restricting, roster[i].Name)
		}
	}

	// Common case: the whole roster already works.
	full := Intersect(responses, date, minDuration)
	if full.Feasible() {
		names := make([]string, len(roster))
		for i, p := range roster {
			names[i] = p.Name
		}
		return OptimalCombination{Participants: names, Result: full}
	}

	var pool []int
	for i, r := range responses {
		if i >= len(roster) {
			break
		}
		switch r.Kind {
		case ResponseYes, ResponseUnknown:
			pool = append(pool, i)
		case ResponseRange:
			if r.Duration() >= minDuration {
				pool = append(pool, i)
			}
		}
	}

	minSize := int(math.Ceil(float64(len(roster)) * cfg.PlayerCombinationThreshold))
	if minSize < 1 {
		minSize = 1
	}
	if len(pool) < minSize {
		return OptimalCombination{Restricting: restricting}
	}

	subset := make([]Response, 0, len(pool))
	for size := len(pool); size >= minSize; size-- {
		var found OptimalCombination
		stopped := forEachSubset(len(pool), size, func(picked []int) bool {
			subset = subset[:0]
			for _, j := range picked {
				subset = append(subset, responses[pool[j]])
			}
			res := Intersect(subset, date, minDuration)
			if !res.Feasible() {
				return false
			}
			names := make([]string, 0, size)
			for _, j := range picked {
				names = append(names, roster[pool[j]].Name)
			}
			found = OptimalCombination{Participants: names, Result: res, Restricting: restricting}
			return true
		})
		if stopped {
			return found
		}
	}

	return OptimalCombination{Restricting: restricting}
}

// forEachSubset enumerates all k-element subsets of {0..n-1} in ascending
// index order and calls fn for each; fn returning true stops the
// enumeration. Returns whether it was stopped. Deterministic ordering is
// load-bearing: the first qualifying subset wins.
func forEachSubset(n, k int, fn func(picked []int) bool) bool {
	if k < 0 || k > n {
		return false
	}
	picked := make([]int, 0, k)
	var walk func(next int) bool
	walk = func(next int) bool {
		if len(picked) == k {
			return fn(picked)
		}
		// Not enough elements left to fill the subset.
		for i := next; n-i >= k-len(picked); i++ {
			picked = append(picked, i)
			if walk(i + 1) {
				return true
			}
			picked = picked[:len(picked)-1]
		}
		return false
	}
	return walk(0)
}
