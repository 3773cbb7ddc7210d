package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

type NotificationKind string

const (
	NotifyScheduled   NotificationKind = "scheduled"
	NotifyReminder    NotificationKind = "reminder"
	NotifyRestriction NotificationKind = "restriction"
)

// Notification is one message intent produced by the weekly pass. DateKey
// doubles as the dedup key in the notification log.
type Notification struct {
	Kind    NotificationKind
	DateKey string
	Text    string
}

// Notifier posts to the announce channel through the bot API when a token
// is configured, otherwise through the incoming webhook.
type Notifier struct {
	api        *slack.Client
	channelID  string
	webhookURL string
}

func NewNotifier(cfg Config, api *slack.Client) *Notifier {
	return &Notifier{
		api:        api,
		channelID:  cfg.AnnounceChannelID,
		webhookURL: cfg.SlackWebhookURL,
	}
}

func (n *Notifier) Send(note Notification) error {
	if n.api != nil && n.channelID != "" {
		_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(note.Text, false))
		return err
	}
	if n.webhookURL != "" {
		return slack.PostWebhook(n.webhookURL, &slack.WebhookMessage{Text: note.Text})
	}
	return fmt.Errorf("no notification channel configured")
}

// BuildScheduledNotification announces the winning date and window.
func BuildScheduledNotification(decision ScheduleDecision, cfg Config) Notification {
	text := fmt.Sprintf("%s is on! %s, %s.",
		cfg.EventTitle,
		decision.Date.Format("Monday, Jan 2"),
		formatWindow(decision.Result),
	)
	if cfg.EventLink != "" {
		text += fmt.Sprintf(" Details: %s", cfg.EventLink)
	}
	return Notification{
		Kind:    NotifyScheduled,
		DateKey: decision.Date.Format(dateFormat),
		Text:    text,
	}
}

// BuildReminder nags the participants who have not given a usable answer
// for a date, grouped into "answered maybe" and "no response". Returns nil
// until the share of Yes/range answers reaches cfg.ReminderThreshold, so
// the first responders are never nagged on behalf of an empty row.
func BuildReminder(ev *CandidateEvent, responses []Response, cfg Config) *Notification {
	if readyFraction(responses, cfg.Roster) < cfg.ReminderThreshold {
		return nil
	}

	var maybes, silent []string
	for i, r := range responses {
		if i >= len(cfg.Roster) {
			break
		}
		switch r.Kind {
		case ResponseYes, ResponseNo, ResponseRange:
		case ResponseUnknown, ResponseMalformed:
			if r.Answered() {
				maybes = append(maybes, mention(cfg.Roster[i]))
			} else {
				silent = append(silent, mention(cfg.Roster[i]))
			}
		}
	}
	if len(maybes) == 0 && len(silent) == 0 {
		return nil
	}

	var parts []string
	if len(silent) > 0 {
		parts = append(parts, fmt.Sprintf("no response yet: %s", strings.Join(silent, ", ")))
	}
	if len(maybes) > 0 {
		parts = append(parts, fmt.Sprintf("answered maybe: %s", strings.Join(maybes, ", ")))
	}
	text := fmt.Sprintf("Still waiting on availability for %s (%s). Please update your answer.",
		ev.Date.Format("Monday, Jan 2"), strings.Join(parts, "; "))

	return &Notification{Kind: NotifyReminder, DateKey: ev.DateKey(), Text: text}
}

// BuildRestrictionNotification reports that a date only works if the event
// is shortened or some participants sit out, naming whose window is too
// short.
func BuildRestrictionNotification(notice RestrictionNotice, cfg Config) Notification {
	names := make([]string, 0, len(notice.Restricting))
	for _, name := range notice.Restricting {
		if p, ok := cfg.FindParticipant(name); ok {
			names = append(names, mention(p))
		} else {
			names = append(names, name)
		}
	}
	who := "some answers"
	if len(names) > 0 {
		who = strings.Join(names, ", ")
	}
	text := fmt.Sprintf(
		"%s does not work for the full group: %s can't cover a %.0fh event. %d of %d could still make it (%s).",
		notice.Date.Format("Monday, Jan 2"),
		who,
		cfg.MinEventDurationHours,
		len(notice.Participants), len(cfg.Roster),
		formatWindow(notice.Achievable),
	)
	return Notification{Kind: NotifyRestriction, DateKey: notice.Date.Format(dateFormat), Text: text}
}

func mention(p Participant) string {
	if p.AllowMention && p.Handle != "" {
		return fmt.Sprintf("<@%s>", p.Handle)
	}
	return p.Name
}

func formatWindow(res IntersectionResult) string {
	switch res.Kind {
	case IntersectAllDay:
		return "all day"
	case IntersectWindow:
		return fmt.Sprintf("%s-%s (%s)",
			res.Start.Format("15:04"), res.End.Format("15:04"),
			formatDuration(res.Duration()))
	default:
		return "no common time"
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
