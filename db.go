package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		date            TEXT PRIMARY KEY,
		status          TEXT NOT NULL DEFAULT '',
		scheduled_start TEXT DEFAULT '',
		scheduled_end   TEXT DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS responses (
		event_date  TEXT NOT NULL,
		participant TEXT NOT NULL,
		cell        TEXT NOT NULL DEFAULT '',
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (event_date, participant)
	);
	CREATE INDEX IF NOT EXISTS idx_responses_date ON responses(event_date);

	CREATE TABLE IF NOT EXISTS run_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS notification_log (
		id         TEXT PRIMARY KEY,
		kind       TEXT NOT NULL,
		event_date TEXT NOT NULL,
		detail     TEXT DEFAULT '',
		sent_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (kind, event_date)
	);

	CREATE TABLE IF NOT EXISTS archived_events (
		date        TEXT PRIMARY KEY,
		status      TEXT NOT NULL DEFAULT '',
		archived_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	return db, nil
}

// EnsureEventRows creates a row for every date from `from` through the next
// `days` days that does not exist yet (active or archived). Idempotent.
func EnsureEventRows(db *sql.DB, from time.Time, days int) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR IGNORE INTO events (date, status)
		 SELECT ?, '' WHERE NOT EXISTS (SELECT 1 FROM archived_events WHERE date = ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	created := 0
	day := midnight(from)
	for i := 0; i < days; i++ {
		key := day.AddDate(0, 0, i).Format(dateFormat)
		res, err := stmt.Exec(key, key)
		if err != nil {
			return created, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			created++
		}
	}

	return created, tx.Commit()
}

// LoadActiveEvents reads all event rows with their response cells, in
// ascending date order.
func LoadActiveEvents(db *sql.DB, loc *time.Location) ([]*CandidateEvent, error) {
	rows, err := db.Query(`SELECT date, status FROM events ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*CandidateEvent
	byDate := make(map[string]*CandidateEvent)
	for rows.Next() {
		var dateKey string
		var status string
		if err := rows.Scan(&dateKey, &status); err != nil {
			return nil, err
		}
		date, err := time.ParseInLocation(dateFormat, dateKey, loc)
		if err != nil {
			return nil, fmt.Errorf("bad event date '%s': %v", dateKey, err)
		}
		ev := &CandidateEvent{Date: date, Status: Status(status), Cells: make(map[string]string)}
		events = append(events, ev)
		byDate[dateKey] = ev
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cellRows, err := db.Query(`SELECT event_date, participant, cell FROM responses`)
	if err != nil {
		return nil, err
	}
	defer cellRows.Close()

	for cellRows.Next() {
		var dateKey, participant, cell string
		if err := cellRows.Scan(&dateKey, &participant, &cell); err != nil {
			return nil, err
		}
		if ev, ok := byDate[dateKey]; ok {
			ev.Cells[participant] = cell
		}
	}
	return events, cellRows.Err()
}

// LoadEvent reads one event row, or nil if the date has no row.
func LoadEvent(db *sql.DB, dateKey string, loc *time.Location) (*CandidateEvent, error) {
	var status string
	err := db.QueryRow(`SELECT status FROM events WHERE date = ?`, dateKey).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	date, err := time.ParseInLocation(dateFormat, dateKey, loc)
	if err != nil {
		return nil, fmt.Errorf("bad event date '%s': %v", dateKey, err)
	}

	ev := &CandidateEvent{Date: date, Status: Status(status), Cells: make(map[string]string)}
	rows, err := db.Query(`SELECT participant, cell FROM responses WHERE event_date = ?`, dateKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var participant, cell string
		if err := rows.Scan(&participant, &cell); err != nil {
			return nil, err
		}
		ev.Cells[participant] = cell
	}
	return ev, rows.Err()
}

// UpsertResponse writes one response cell.
func UpsertResponse(db *sql.DB, dateKey, participant, cell string) error {
	_, err := db.Exec(
		`INSERT INTO responses (event_date, participant, cell, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(event_date, participant)
		 DO UPDATE SET cell = excluded.cell, updated_at = CURRENT_TIMESTAMP`,
		dateKey, participant, cell,
	)
	return err
}

func SetEventStatus(db *sql.DB, dateKey string, status Status) error {
	_, err := db.Exec(`UPDATE events SET status = ? WHERE date = ?`, string(status), dateKey)
	return err
}

// MarkScheduled stores the winning window alongside the scheduled status.
// AllDay results store empty bounds.
func MarkScheduled(db *sql.DB, dateKey string, result IntersectionResult) error {
	start, end := "", ""
	if result.Kind == IntersectWindow {
		start = result.Start.Format(time.RFC3339)
		end = result.End.Format(time.RFC3339)
	}
	_, err := db.Exec(
		`UPDATE events SET status = ?, scheduled_start = ?, scheduled_end = ? WHERE date = ?`,
		string(StatusScheduled), start, end, dateKey,
	)
	return err
}

func LastRunDate(db *sql.DB) (string, error) {
	var val string
	err := db.QueryRow(`SELECT value FROM run_state WHERE key = 'last_run'`).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return val, err
}

func SetLastRunDate(db *sql.DB, dateKey string) error {
	_, err := db.Exec(
		`INSERT INTO run_state (key, value) VALUES ('last_run', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		dateKey,
	)
	return err
}

// RecordNotification logs a (kind, date) notification and reports whether
// it is new. A false result means the same notification already went out in
// an earlier run and must not be repeated.
func RecordNotification(db *sql.DB, kind, dateKey, detail string) (bool, error) {
	res, err := db.Exec(
		`INSERT OR IGNORE INTO notification_log (id, kind, event_date, detail) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), kind, dateKey, detail,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ForgetNotification removes a log entry so a failed send can be retried
// on the next run.
func ForgetNotification(db *sql.DB, kind, dateKey string) error {
	_, err := db.Exec(`DELETE FROM notification_log WHERE kind = ? AND event_date = ?`, kind, dateKey)
	return err
}

// ArchiveOldEvents moves terminal rows dated before `before` out of the
// active set, dropping their response cells. Non-terminal old rows stay put
// so the weekly pass can still close them out.
func ArchiveOldEvents(db *sql.DB, before time.Time) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := midnight(before).Format(dateFormat)
	terminal := []any{
		string(StatusScheduled), string(StatusSuperseded), string(StatusCancelled),
		string(StatusFailedDuration), string(StatusNotEnoughResponses),
	}
	args := append([]any{cutoff}, terminal...)

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO archived_events (date, status)
		 SELECT date, status FROM events WHERE date < ? AND status IN (?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return 0, err
	}
	moved64, _ := res.RowsAffected()
	moved := int(moved64)

	if _, err := tx.Exec(
		`DELETE FROM responses WHERE event_date IN (SELECT date FROM archived_events)`,
	); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(
		`DELETE FROM events WHERE date IN (SELECT date FROM archived_events)`,
	); err != nil {
		return 0, err
	}

	return moved, tx.Commit()
}
