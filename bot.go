package main

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// StartSlackBot runs the socket-mode loop serving the /avail slash command,
// the edit-driven trigger: it writes one response cell and reclassifies
// that single row, nothing else.
func StartSlackBot(cfg Config, db *sql.DB, api *slack.Client) error {
	client := socketmode.New(api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				if cmd.Command == "/avail" {
					handleAvailCommand(cfg, db, api, cmd)
				}
			case socketmode.EventTypeConnectionError:
				log.Printf("Slack connection error: %v", evt.Data)
			}
		}
	}()

	return client.Run()
}

func handleAvailCommand(cfg Config, db *sql.DB, api *slack.Client, cmd slack.SlashCommand) {
	participant, ok := participantForUser(cfg, cmd.UserID, cmd.UserName)
	if !ok {
		replyEphemeral(api, cmd, "You are not on the roster for this poll.")
		return
	}

	dateKey, cell, err := parseAvailArgs(cmd.Text)
	if err != nil {
		replyEphemeral(api, cmd, fmt.Sprintf("%v\nUsage: `/avail YYYY-MM-DD <%s|%s|%s|18-22|18>`",
			err, cfg.YesToken, cfg.NoToken, cfg.MaybeToken))
		return
	}

	ev, err := LoadEvent(db, dateKey, cfg.Location)
	if err != nil {
		log.Printf("Error loading event %s: %v", dateKey, err)
		replyEphemeral(api, cmd, "Something went wrong, try again.")
		return
	}
	if ev == nil {
		replyEphemeral(api, cmd, fmt.Sprintf("No poll row for %s (it may be outside the current window).", dateKey))
		return
	}
	if ev.Status.Terminal() {
		replyEphemeral(api, cmd, fmt.Sprintf("%s is already settled (%s).", dateKey, ev.Status))
		return
	}

	if err := UpsertResponse(db, dateKey, participant.Name, cell); err != nil {
		log.Printf("Error storing response for %s/%s: %v", dateKey, participant.Name, err)
		replyEphemeral(api, cmd, "Something went wrong, try again.")
		return
	}
	ev.Cells[participant.Name] = cell

	status := ClassifyEvent(ev, cfg.Roster, cfg)
	if status != ev.Status {
		if err := SetEventStatus(db, dateKey, status); err != nil {
			log.Printf("Error updating status of %s: %v", dateKey, err)
		}
	}

	parsed := ParseResponse(cell, ev.Date, cfg)
	replyEphemeral(api, cmd, fmt.Sprintf("Recorded %s for %s (%s). Row is now: %s.",
		describeResponse(parsed), dateKey, participant.Name, describeStatus(status)))
}

// parseAvailArgs splits "/avail <date> <answer>" into its parts. The answer
// may contain spaces ("18 - 22"); everything after the date is the cell.
func parseAvailArgs(text string) (string, string, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return "", "", fmt.Errorf("need a date and an answer")
	}
	if _, err := time.Parse(dateFormat, fields[0]); err != nil {
		return "", "", fmt.Errorf("'%s' is not a date (expected YYYY-MM-DD)", fields[0])
	}
	return fields[0], strings.Join(fields[1:], " "), nil
}

// participantForUser matches the Slack caller against the roster, first by
// handle (user ID), then by user name for rosters without handles.
func participantForUser(cfg Config, userID, userName string) (Participant, bool) {
	for _, p := range cfg.Roster {
		if p.Handle != "" && p.Handle == userID {
			return p, true
		}
	}
	return cfg.FindParticipant(userName)
}

func describeResponse(r Response) string {
	switch r.Kind {
	case ResponseYes:
		return "yes (all day)"
	case ResponseNo:
		return "no"
	case ResponseRange:
		return fmt.Sprintf("%s-%s", r.Start.Format("15:04"), r.End.Format("15:04"))
	case ResponseMalformed:
		return fmt.Sprintf("'%s' (not understood — the date can't be scheduled until it's fixed)", r.Raw)
	default:
		if r.Answered() {
			return "maybe"
		}
		return "blank"
	}
}

func describeStatus(s Status) string {
	switch s {
	case StatusUnset:
		return "no responses yet"
	case StatusAwaiting:
		return "awaiting responses"
	case StatusReady:
		return "ready for scheduling"
	case StatusScheduled:
		return "scheduled"
	case StatusSuperseded:
		return "superseded"
	case StatusCancelled:
		return "cancelled"
	case StatusFailedDuration:
		return "failed (duration)"
	case StatusNotEnoughResponses:
		return "closed (not enough responses)"
	default:
		return string(s)
	}
}

func replyEphemeral(api *slack.Client, cmd slack.SlashCommand, text string) {
	_, err := api.PostEphemeral(cmd.ChannelID, cmd.UserID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error sending ephemeral reply: %v", err)
	}
}
