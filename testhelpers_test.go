package main

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MinEventDurationHours:         4,
		MinConsiderationDurationHours: 2,
		PlayerCombinationThreshold:    0.6,
		ReminderThreshold:             0.5,
		ShortEventWarningHours:        2,
		YesToken:                      "y",
		NoToken:                       "n",
		MaybeToken:                    "?",
		EventTitle:                    "Game night",
		LookaheadDays:                 14,
		ArchiveAfterDays:              7,
		Location:                      time.UTC,
		Roster: []Participant{
			{Name: "Alice", Handle: "U001", AllowMention: true},
			{Name: "Bob", Handle: "U002", AllowMention: true},
			{Name: "Carol", Handle: "U003"},
			{Name: "Dave", Handle: "U004", AllowMention: true},
		},
	}
}

// testDate is a Wednesday.
func testDate() time.Time {
	return time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "schedbot-test.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func parseAll(t *testing.T, cells []string, date time.Time, cfg Config) []Response {
	t.Helper()
	responses := make([]Response, len(cells))
	for i, cell := range cells {
		responses[i] = ParseResponse(cell, date, cfg)
	}
	return responses
}
