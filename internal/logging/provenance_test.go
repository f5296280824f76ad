package logging

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-interaction-tests
func TestLogInteraction_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := InteractionEntry{
		VersionID:   "v1",
		PeerID:      "p1",
		Dominant:    "joy",
		Intensity:   0.15,
		Valence:     0.36,
		Arousal:     0.65,
		Quality:     1,
		SignalsJSON: `{"joy":0.9}`,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogInteraction(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM interaction_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var peerID, dominant string
	var persistErr sql.NullString
	db.QueryRow("SELECT peer_id, dominant, persistence_error FROM interaction_log").Scan(&peerID, &dominant, &persistErr)
	if peerID != "p1" {
		t.Errorf("expected peer_id 'p1', got %q", peerID)
	}
	if dominant != "joy" {
		t.Errorf("expected dominant 'joy', got %q", dominant)
	}
	if persistErr.Valid {
		t.Errorf("expected NULL persistence_error, got %q", persistErr.String)
	}
}

func TestLogInteraction_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC().Add(-time.Second)
	if err := LogInteraction(db, InteractionEntry{PeerID: "p1", Dominant: "neutral"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdStr string
	db.QueryRow("SELECT created_at FROM interaction_log").Scan(&createdStr)
	created, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if created.Before(before) {
		t.Errorf("created_at %v should be filled with the current time", created)
	}
}

func TestLogInteraction_MissingTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	err = LogInteraction(db, InteractionEntry{PeerID: "p1", Dominant: "joy"})
	if err == nil {
		t.Fatal("expected error for missing table")
	}
	if !strings.Contains(err.Error(), "log interaction") {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestListInteractions_FilterAndOrder(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for i, peer := range []string{"a", "b", "a", "a"} {
		err := LogInteraction(db, InteractionEntry{
			PeerID:    peer,
			Dominant:  "joy",
			Quality:   float64(i) / 10,
			CreatedAt: time.Date(2026, 1, 1, i, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("log %d: %v", i, err)
		}
	}

	got, err := ListInteractions(db, "a", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Quality != 0.3 || got[1].Quality != 0.2 {
		t.Errorf("expected newest first, got %v then %v", got[0].Quality, got[1].Quality)
	}

	all, err := ListInteractions(db, "", 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 rows, got %d", len(all))
	}
}
// #endregion log-interaction-tests

// #region logger-tests
func TestNew_JSONLevelAndComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(Config{Level: "warn", Format: "json", Output: &buf}), "test")

	logger.Info().Msg("dropped")
	logger.Warn().Str("peer_id", "p1").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec["component"] != "test" || rec["message"] != "kept" || rec["level"] != "warn" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "loud", Output: &buf})
	logger.Debug().Msg("dropped")
	logger.Info().Msg("kept")
	if !strings.Contains(buf.String(), "kept") || strings.Contains(buf.String(), "dropped") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}
// #endregion logger-tests
