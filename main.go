package main

import (
	"log"
	"time"

	"github.com/slack-go/slack"
)

func main() {
	cfg := LoadConfig()

	db, err := InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	defer db.Close()

	var api *slack.Client
	if cfg.SlackBotToken != "" {
		api = slack.New(
			cfg.SlackBotToken,
			slack.OptionAppLevelToken(cfg.SlackAppToken),
		)
	}
	notifier := NewNotifier(cfg, api)

	if _, err := EnsureEventRows(db, time.Now().In(cfg.Location), cfg.LookaheadDays); err != nil {
		log.Fatalf("Failed to generate event rows: %v", err)
	}
	if last, err := LastRunDate(db); err == nil && last != "" {
		log.Printf("Last poll run was %s", last)
	}

	StartPollScheduler(cfg, db, notifier)

	if api == nil || cfg.SlackAppToken == "" {
		log.Println("No Slack app token, slash commands disabled; running scheduler only")
		select {}
	}

	log.Println("Starting availability poll bot...")
	if err := StartSlackBot(cfg, db, api); err != nil {
		log.Fatalf("Slack bot error: %v", err)
	}
}
