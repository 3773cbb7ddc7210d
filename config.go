package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SlackBotToken     string `yaml:"slack_bot_token"`
	SlackAppToken     string `yaml:"slack_app_token"`
	SlackWebhookURL   string `yaml:"slack_webhook_url"`
	AnnounceChannelID string `yaml:"announce_channel_id"`

	DBPath   string `yaml:"db_path"`
	Timezone string `yaml:"timezone"`

	PollSchedule string `yaml:"poll_schedule"`

	MinEventDurationHours         float64 `yaml:"min_event_duration_hours"`
	MinConsiderationDurationHours float64 `yaml:"min_consideration_duration_hours"`
	PlayerCombinationThreshold    float64 `yaml:"player_combination_threshold"`
	ReminderThreshold             float64 `yaml:"reminder_threshold"`
	ShortEventWarningHours        float64 `yaml:"short_event_warning_hours"`

	YesToken   string `yaml:"yes_token"`
	NoToken    string `yaml:"no_token"`
	MaybeToken string `yaml:"maybe_token"`

	EventTitle string `yaml:"event_title"`
	EventLink  string `yaml:"event_link"`

	LookaheadDays    int `yaml:"lookahead_days"`
	ArchiveAfterDays int `yaml:"archive_after_days"`

	Roster []Participant `yaml:"roster"`

	Location *time.Location `yaml:"-"`
}

func LoadConfig() Config {
	var cfg Config

	// Load from config.yaml if it exists
	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackAppToken, "SLACK_APP_TOKEN")
	envOverride(&cfg.SlackWebhookURL, "SLACK_WEBHOOK_URL")
	envOverride(&cfg.AnnounceChannelID, "ANNOUNCE_CHANNEL_ID")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.Timezone, "TIMEZONE")
	envOverride(&cfg.PollSchedule, "POLL_SCHEDULE")
	envOverrideFloat(&cfg.MinEventDurationHours, "MIN_EVENT_DURATION_HOURS")
	envOverrideFloat(&cfg.MinConsiderationDurationHours, "MIN_CONSIDERATION_DURATION_HOURS")
	envOverrideFloat(&cfg.PlayerCombinationThreshold, "PLAYER_COMBINATION_THRESHOLD")
	envOverrideFloat(&cfg.ReminderThreshold, "REMINDER_THRESHOLD")
	envOverrideFloat(&cfg.ShortEventWarningHours, "SHORT_EVENT_WARNING_HOURS")
	envOverride(&cfg.YesToken, "YES_TOKEN")
	envOverride(&cfg.NoToken, "NO_TOKEN")
	envOverride(&cfg.MaybeToken, "MAYBE_TOKEN")
	envOverride(&cfg.EventTitle, "EVENT_TITLE")
	envOverride(&cfg.EventLink, "EVENT_LINK")
	envOverrideInt(&cfg.LookaheadDays, "LOOKAHEAD_DAYS")
	envOverrideInt(&cfg.ArchiveAfterDays, "ARCHIVE_AFTER_DAYS")

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./schedbot.db"
	}
	if cfg.PollSchedule == "" {
		cfg.PollSchedule = "0 18 * * *"
	}
	if cfg.MinEventDurationHours == 0 {
		cfg.MinEventDurationHours = 4
	}
	if cfg.MinConsiderationDurationHours == 0 {
		cfg.MinConsiderationDurationHours = 2
	}
	if cfg.PlayerCombinationThreshold == 0 {
		cfg.PlayerCombinationThreshold = 0.6
	}
	if cfg.ReminderThreshold == 0 {
		cfg.ReminderThreshold = 0.5
	}
	if cfg.ShortEventWarningHours == 0 {
		cfg.ShortEventWarningHours = 2
	}
	if cfg.YesToken == "" {
		cfg.YesToken = "y"
	}
	if cfg.NoToken == "" {
		cfg.NoToken = "n"
	}
	if cfg.MaybeToken == "" {
		cfg.MaybeToken = "?"
	}
	if cfg.EventTitle == "" {
		cfg.EventTitle = "Game night"
	}
	if cfg.LookaheadDays == 0 {
		cfg.LookaheadDays = 14
	}
	if cfg.ArchiveAfterDays == 0 {
		cfg.ArchiveAfterDays = 7
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}

	if strings.EqualFold(cfg.Timezone, "Local") {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			log.Fatalf("invalid timezone '%s': %v", cfg.Timezone, err)
		}
		cfg.Location = loc
	}

	// Validate required fields
	if len(cfg.Roster) == 0 {
		log.Fatalf("Required config 'roster' is empty: at least one participant is needed")
	}
	seen := make(map[string]bool)
	for _, p := range cfg.Roster {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			log.Fatalf("roster entries must have a non-empty name")
		}
		if seen[name] {
			log.Fatalf("duplicate roster name '%s'", name)
		}
		seen[name] = true
		if p.AllowMention && p.Handle == "" {
			log.Fatalf("roster entry '%s' has allow_mention but no handle", name)
		}
	}

	if cfg.SlackBotToken == "" && cfg.SlackWebhookURL == "" {
		log.Fatalf("either slack_bot_token or slack_webhook_url must be set")
	}
	if cfg.SlackBotToken != "" && cfg.AnnounceChannelID == "" {
		log.Fatalf("announce_channel_id is required when slack_bot_token is set")
	}

	if cfg.MinEventDurationHours <= 0 || cfg.MinEventDurationHours > 24 {
		log.Fatalf("invalid min_event_duration_hours '%f': must be in (0, 24]", cfg.MinEventDurationHours)
	}
	if cfg.MinConsiderationDurationHours <= 0 || cfg.MinConsiderationDurationHours > cfg.MinEventDurationHours {
		log.Fatalf("invalid min_consideration_duration_hours '%f': must be in (0, min_event_duration_hours]", cfg.MinConsiderationDurationHours)
	}
	if cfg.PlayerCombinationThreshold <= 0 || cfg.PlayerCombinationThreshold > 1 {
		log.Fatalf("invalid player_combination_threshold '%f': must be in (0, 1]", cfg.PlayerCombinationThreshold)
	}
	if cfg.ReminderThreshold <= 0 || cfg.ReminderThreshold > 1 {
		log.Fatalf("invalid reminder_threshold '%f': must be in (0, 1]", cfg.ReminderThreshold)
	}
	if cfg.ShortEventWarningHours <= 0 || cfg.ShortEventWarningHours > 24 {
		log.Fatalf("invalid short_event_warning_hours '%f': must be in (0, 24]", cfg.ShortEventWarningHours)
	}
	if cfg.LookaheadDays < 1 {
		log.Fatalf("invalid lookahead_days '%d': must be >= 1", cfg.LookaheadDays)
	}
	if cfg.ArchiveAfterDays < 1 {
		log.Fatalf("invalid archive_after_days '%d': must be >= 1", cfg.ArchiveAfterDays)
	}

	return cfg
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

// FindParticipant returns the roster entry matching name, ignoring case and
// surrounding whitespace.
func (c Config) FindParticipant(name string) (Participant, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range c.Roster {
		if strings.ToLower(strings.TrimSpace(p.Name)) == name {
			return p, true
		}
	}
	return Participant{}, false
}
