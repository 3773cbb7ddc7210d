package main

import (
	"database/sql"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// RunResult tracks what one weekly pass did, with separate counters per
// outcome.
type RunResult struct {
	RowsCreated          int
	Reclassified         int
	Scheduled            []string
	Superseded           int
	FailedDuration       int
	ClosedOut            int
	NotificationsSent    int
	NotificationsSkipped int
	Archived             int
	Errors               []string
}

// RunWeeklyPass is the time-driven trigger: generate upcoming rows,
// reclassify every active row, decide each ISO week, write statuses and
// the winning window back, send deduplicated notifications, then archive
// old terminal rows and record the run. Notification failures are isolated
// per message and never abort the pass; a failed precondition (empty
// roster) aborts before any write.
func RunWeeklyPass(cfg Config, db *sql.DB, notifier *Notifier, now time.Time) (RunResult, error) {
	var result RunResult

	if len(cfg.Roster) == 0 {
		return result, fmt.Errorf("roster is empty, nothing to process")
	}

	created, err := EnsureEventRows(db, now, cfg.LookaheadDays)
	if err != nil {
		return result, fmt.Errorf("error generating event rows: %v", err)
	}
	result.RowsCreated = created

	events, err := LoadActiveEvents(db, cfg.Location)
	if err != nil {
		return result, fmt.Errorf("error loading events: %v", err)
	}

	// Refresh the visible pipeline state before deciding anything.
	for _, ev := range events {
		if ev.Status.Terminal() {
			continue
		}
		status := ClassifyEvent(ev, cfg.Roster, cfg)
		if status != ev.Status {
			if err := SetEventStatus(db, ev.DateKey(), status); err != nil {
				return result, fmt.Errorf("error updating status of %s: %v", ev.DateKey(), err)
			}
			ev.Status = status
			result.Reclassified++
		}
	}

	weeks := GroupByWeek(events)
	keys := make([]WeekKey, 0, len(weeks))
	for key := range weeks {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Week < keys[j].Week
	})

	for _, key := range keys {
		group := weeks[key]

		// A week that already has its event keeps it; any rows added to
		// that week since are just superseded.
		if alreadyScheduled(group) {
			for _, ev := range group {
				if ev.Status.Terminal() {
					continue
				}
				if err := SetEventStatus(db, ev.DateKey(), StatusSuperseded); err != nil {
					return result, fmt.Errorf("error superseding %s: %v", ev.DateKey(), err)
				}
				ev.Status = StatusSuperseded
				result.Superseded++
			}
			continue
		}

		outcome := SelectWeekly(group, cfg.Roster, cfg, now)

		for dateKey, status := range outcome.StatusChanges {
			if outcome.Decision != nil && dateKey == outcome.Decision.Date.Format(dateFormat) {
				if err := MarkScheduled(db, dateKey, outcome.Decision.Result); err != nil {
					return result, fmt.Errorf("error scheduling %s: %v", dateKey, err)
				}
				continue
			}
			if err := SetEventStatus(db, dateKey, status); err != nil {
				return result, fmt.Errorf("error updating status of %s: %v", dateKey, err)
			}
			switch status {
			case StatusSuperseded:
				result.Superseded++
			case StatusFailedDuration:
				result.FailedDuration++
			case StatusNotEnoughResponses:
				result.ClosedOut++
			}
		}
		for _, ev := range group {
			if status, ok := outcome.StatusChanges[ev.DateKey()]; ok {
				ev.Status = status
			}
		}

		if outcome.Decision != nil {
			result.Scheduled = append(result.Scheduled, outcome.Decision.Date.Format(dateFormat))
			sendDeduped(cfg, db, notifier, BuildScheduledNotification(*outcome.Decision, cfg), &result)
		}
		for _, notice := range outcome.Restrictions {
			sendDeduped(cfg, db, notifier, BuildRestrictionNotification(notice, cfg), &result)
		}
	}

	// Reminders for open future dates, once participation is high enough.
	for _, ev := range events {
		if ev.Status != StatusAwaiting || pastDate(ev.Date, now) {
			continue
		}
		note := BuildReminder(ev, rosterResponses(ev, cfg.Roster, cfg), cfg)
		if note != nil {
			sendDeduped(cfg, db, notifier, *note, &result)
		}
	}

	archived, err := ArchiveOldEvents(db, now.AddDate(0, 0, -cfg.ArchiveAfterDays))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("archive: %v", err))
	} else {
		result.Archived = archived
	}

	if err := SetLastRunDate(db, now.Format(dateFormat)); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("last-run: %v", err))
	}

	return result, nil
}

func alreadyScheduled(group []*CandidateEvent) bool {
	for _, ev := range group {
		if ev.Status == StatusScheduled {
			return true
		}
	}
	return false
}

// sendDeduped delivers one notification unless the same (kind, date) pair
// already went out in an earlier run. A failed send is forgotten again so
// the next run retries it; the failure never stops the pass.
func sendDeduped(cfg Config, db *sql.DB, notifier *Notifier, note Notification, result *RunResult) {
	fresh, err := RecordNotification(db, string(note.Kind), note.DateKey, note.Text)
	if err != nil {
		log.Printf("notification log error for %s/%s: %v", note.Kind, note.DateKey, err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", note.Kind, note.DateKey, err))
		return
	}
	if !fresh {
		result.NotificationsSkipped++
		return
	}
	if notifier == nil {
		result.NotificationsSent++
		return
	}
	if err := notifier.Send(note); err != nil {
		log.Printf("Error sending %s notification for %s: %v", note.Kind, note.DateKey, err)
		result.Errors = append(result.Errors, fmt.Sprintf("%s %s: %v", note.Kind, note.DateKey, err))
		if err := ForgetNotification(db, string(note.Kind), note.DateKey); err != nil {
			log.Printf("Error forgetting failed notification %s/%s: %v", note.Kind, note.DateKey, err)
		}
		return
	}
	result.NotificationsSent++
}

// FormatRunSummary returns a human-readable summary of a RunResult.
func FormatRunSummary(result RunResult) string {
	var parts []string
	if result.RowsCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d rows created", result.RowsCreated))
	}
	if result.Reclassified > 0 {
		parts = append(parts, fmt.Sprintf("%d reclassified", result.Reclassified))
	}
	if len(result.Scheduled) > 0 {
		parts = append(parts, fmt.Sprintf("scheduled %s", strings.Join(result.Scheduled, ", ")))
	}
	if result.Superseded > 0 {
		parts = append(parts, fmt.Sprintf("%d superseded", result.Superseded))
	}
	if result.FailedDuration > 0 {
		parts = append(parts, fmt.Sprintf("%d failed on duration", result.FailedDuration))
	}
	if result.ClosedOut > 0 {
		parts = append(parts, fmt.Sprintf("%d closed without enough responses", result.ClosedOut))
	}
	if result.NotificationsSent > 0 || result.NotificationsSkipped > 0 {
		parts = append(parts, fmt.Sprintf("%d notifications (%d deduped)",
			result.NotificationsSent, result.NotificationsSkipped))
	}
	if result.Archived > 0 {
		parts = append(parts, fmt.Sprintf("%d archived", result.Archived))
	}
	if len(parts) == 0 {
		parts = append(parts, "nothing to do")
	}
	msg := strings.Join(parts, ", ")
	if len(result.Errors) > 0 {
		msg += fmt.Sprintf("\nWarnings:\n%s", strings.Join(result.Errors, "\n"))
	}
	return msg
}

// StartPollScheduler runs the weekly pass on a standard 5-field cron
// expression (minute hour day-of-month month day-of-week).
// Examples: "0 18 * * *" (daily 6pm), "0 18 * * 0" (Sundays 6pm).
func StartPollScheduler(cfg Config, db *sql.DB, notifier *Notifier) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(cfg.PollSchedule)
	if err != nil {
		log.Printf("Invalid poll_schedule '%s': %v — scheduled runs disabled", cfg.PollSchedule, err)
		return
	}

	log.Printf("Poll processing scheduled (cron: %s) for %d participants", cfg.PollSchedule, len(cfg.Roster))

	go func() {
		for {
			now := time.Now().In(cfg.Location)
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next poll run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			result, runErr := RunWeeklyPass(cfg, db, notifier, time.Now().In(cfg.Location))
			if runErr != nil {
				log.Printf("Poll run error: %v", runErr)
				continue
			}
			log.Printf("Poll run complete: %s", FormatRunSummary(result))
		}
	}()
}
