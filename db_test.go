package main

import (
	"testing"
	"time"
)

func TestEnsureEventRowsIdempotent(t *testing.T) {
	db := newTestDB(t)
	from := time.Date(2026, 2, 16, 9, 30, 0, 0, time.UTC)

	created, err := EnsureEventRows(db, from, 7)
	if err != nil {
		t.Fatalf("EnsureEventRows failed: %v", err)
	}
	if created != 7 {
		t.Fatalf("expected 7 rows created, got %d", created)
	}

	created, err = EnsureEventRows(db, from, 7)
	if err != nil {
		t.Fatalf("EnsureEventRows failed on second call: %v", err)
	}
	if created != 0 {
		t.Fatalf("expected second call to create nothing, got %d", created)
	}

	events, err := LoadActiveEvents(db, time.UTC)
	if err != nil {
		t.Fatalf("LoadActiveEvents failed: %v", err)
	}
	if len(events) != 7 {
		t.Fatalf("expected 7 events, got %d", len(events))
	}
	if events[0].DateKey() != "2026-02-16" || events[6].DateKey() != "2026-02-22" {
		t.Fatalf("unexpected date range: %s - %s", events[0].DateKey(), events[6].DateKey())
	}
	if events[0].Status != StatusUnset {
		t.Fatalf("expected fresh rows unset, got %s", events[0].Status)
	}
}

func TestResponsesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	from := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	if _, err := EnsureEventRows(db, from, 3); err != nil {
		t.Fatalf("EnsureEventRows failed: %v", err)
	}

	if err := UpsertResponse(db, "2026-02-17", "Alice", "18-22"); err != nil {
		t.Fatalf("UpsertResponse failed: %v", err)
	}
	if err := UpsertResponse(db, "2026-02-17", "Alice", "y"); err != nil {
		t.Fatalf("UpsertResponse update failed: %v", err)
	}
	if err := UpsertResponse(db, "2026-02-17", "Bob", "?"); err != nil {
		t.Fatalf("UpsertResponse failed: %v", err)
	}

	ev, err := LoadEvent(db, "2026-02-17", time.UTC)
	if err != nil {
		t.Fatalf("LoadEvent failed: %v", err)
	}
	if ev == nil {
		t.Fatal("expected event row to exist")
	}
	if ev.Cells["Alice"] != "y" || ev.Cells["Bob"] != "?" {
		t.Fatalf("unexpected cells: %v", ev.Cells)
	}

	missing, err := LoadEvent(db, "2026-03-01", time.UTC)
	if err != nil {
		t.Fatalf("LoadEvent failed for missing row: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing row, got %+v", missing)
	}
}

func TestStatusAndScheduleWrites(t *testing.T) {
	db := newTestDB(t)
	from := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	if _, err := EnsureEventRows(db, from, 2); err != nil {
		t.Fatalf("EnsureEventRows failed: %v", err)
	}

	if err := SetEventStatus(db, "2026-02-16", StatusAwaiting); err != nil {
		t.Fatalf("SetEventStatus failed: %v", err)
	}
	ev, err := LoadEvent(db, "2026-02-16", time.UTC)
	if err != nil || ev == nil {
		t.Fatalf("LoadEvent failed: %v", err)
	}
	if ev.Status != StatusAwaiting {
		t.Fatalf("expected awaiting, got %s", ev.Status)
	}

	win := IntersectionResult{
		Kind:  IntersectWindow,
		Start: time.Date(2026, 2, 17, 18, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 17, 22, 0, 0, 0, time.UTC),
	}
	if err := MarkScheduled(db, "2026-02-17", win); err != nil {
		t.Fatalf("MarkScheduled failed: %v", err)
	}
	var status, start, end string
	err = db.QueryRow(`SELECT status, scheduled_start, scheduled_end FROM events WHERE date = '2026-02-17'`).
		Scan(&status, &start, &end)
	if err != nil {
		t.Fatalf("query scheduled row failed: %v", err)
	}
	if Status(status) != StatusScheduled {
		t.Fatalf("expected scheduled, got %s", status)
	}
	if start == "" || end == "" {
		t.Fatal("expected the window bounds to be stored")
	}
}

func TestNotificationDedup(t *testing.T) {
	db := newTestDB(t)

	fresh, err := RecordNotification(db, "scheduled", "2026-02-20", "msg")
	if err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}
	if !fresh {
		t.Fatal("expected first record to be fresh")
	}

	fresh, err = RecordNotification(db, "scheduled", "2026-02-20", "msg again")
	if err != nil {
		t.Fatalf("RecordNotification failed: %v", err)
	}
	if fresh {
		t.Fatal("expected duplicate record to be suppressed")
	}

	// Different kind for the same date is a different notification.
	fresh, err = RecordNotification(db, "reminder", "2026-02-20", "msg")
	if err != nil || !fresh {
		t.Fatalf("expected different kind to be fresh, got fresh=%v err=%v", fresh, err)
	}

	if err := ForgetNotification(db, "scheduled", "2026-02-20"); err != nil {
		t.Fatalf("ForgetNotification failed: %v", err)
	}
	fresh, err = RecordNotification(db, "scheduled", "2026-02-20", "retry")
	if err != nil || !fresh {
		t.Fatalf("expected forgotten notification to be fresh again, got fresh=%v err=%v", fresh, err)
	}
}

func TestLastRunDate(t *testing.T) {
	db := newTestDB(t)

	last, err := LastRunDate(db)
	if err != nil {
		t.Fatalf("LastRunDate failed: %v", err)
	}
	if last != "" {
		t.Fatalf("expected empty last run, got %q", last)
	}

	if err := SetLastRunDate(db, "2026-02-16"); err != nil {
		t.Fatalf("SetLastRunDate failed: %v", err)
	}
	if err := SetLastRunDate(db, "2026-02-17"); err != nil {
		t.Fatalf("SetLastRunDate overwrite failed: %v", err)
	}
	last, err = LastRunDate(db)
	if err != nil {
		t.Fatalf("LastRunDate failed: %v", err)
	}
	if last != "2026-02-17" {
		t.Fatalf("unexpected last run: %q", last)
	}
}

func TestArchiveOldEvents(t *testing.T) {
	db := newTestDB(t)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if _, err := EnsureEventRows(db, from, 20); err != nil {
		t.Fatalf("EnsureEventRows failed: %v", err)
	}

	// Old terminal, old open, and recent terminal rows.
	if err := SetEventStatus(db, "2026-02-02", StatusSuperseded); err != nil {
		t.Fatalf("SetEventStatus failed: %v", err)
	}
	if err := SetEventStatus(db, "2026-02-03", StatusAwaiting); err != nil {
		t.Fatalf("SetEventStatus failed: %v", err)
	}
	if err := SetEventStatus(db, "2026-02-18", StatusCancelled); err != nil {
		t.Fatalf("SetEventStatus failed: %v", err)
	}
	if err := UpsertResponse(db, "2026-02-02", "Alice", "y"); err != nil {
		t.Fatalf("UpsertResponse failed: %v", err)
	}

	moved, err := ArchiveOldEvents(db, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ArchiveOldEvents failed: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected exactly the old terminal row archived, got %d", moved)
	}

	if ev, _ := LoadEvent(db, "2026-02-02", time.UTC); ev != nil {
		t.Fatal("expected archived row out of the active set")
	}
	if ev, _ := LoadEvent(db, "2026-02-03", time.UTC); ev == nil {
		t.Fatal("expected open old row to stay active")
	}
	if ev, _ := LoadEvent(db, "2026-02-18", time.UTC); ev == nil {
		t.Fatal("expected recent terminal row to stay active")
	}

	var cells int
	if err := db.QueryRow(`SELECT COUNT(*) FROM responses WHERE event_date = '2026-02-02'`).Scan(&cells); err != nil {
		t.Fatalf("count responses failed: %v", err)
	}
	if cells != 0 {
		t.Fatalf("expected archived responses dropped, got %d", cells)
	}

	// Row generation never resurrects archived dates.
	if _, err := EnsureEventRows(db, from, 20); err != nil {
		t.Fatalf("EnsureEventRows failed: %v", err)
	}
	if ev, _ := LoadEvent(db, "2026-02-02", time.UTC); ev != nil {
		t.Fatal("expected archived date not to be recreated")
	}
}
