package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region schema
// Schema creates the interaction_log table. Callers that own the database
// run it with their own migrations.
const Schema = `
CREATE TABLE IF NOT EXISTS interaction_log (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	version_id        TEXT,
	peer_id           TEXT NOT NULL,
	dominant          TEXT NOT NULL,
	intensity         REAL NOT NULL,
	valence           REAL NOT NULL,
	arousal           REAL NOT NULL,
	quality           REAL NOT NULL,
	signals_json      TEXT,
	persistence_error TEXT,
	created_at        TEXT NOT NULL
);
`
// #endregion schema

// #region log-interaction
// LogInteraction writes one row to the interaction_log table.
func LogInteraction(db Execer, entry InteractionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO interaction_log (version_id, peer_id, dominant, intensity, valence, arousal, quality, signals_json, persistence_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.VersionID),
		entry.PeerID,
		entry.Dominant,
		entry.Intensity,
		entry.Valence,
		entry.Arousal,
		entry.Quality,
		nullIfEmpty(entry.SignalsJSON),
		nullIfEmpty(entry.PersistenceError),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log interaction: %w", err)
	}
	return nil
}
// #endregion log-interaction

// #region list-interactions
// ListInteractions returns the most recent rows, newest first.
// An empty peerID matches every peer.
func ListInteractions(db Querier, peerID string, limit int) ([]InteractionEntry, error) {
	rows, err := db.Query(
		`SELECT version_id, peer_id, dominant, intensity, valence, arousal, quality, signals_json, persistence_error, created_at
		 FROM interaction_log WHERE (? = '' OR peer_id = ?) ORDER BY id DESC LIMIT ?`,
		peerID, peerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	defer rows.Close()

	var out []InteractionEntry
	for rows.Next() {
		var e InteractionEntry
		var versionID, signalsJSON, persistErr sql.NullString
		var createdStr string
		if err := rows.Scan(&versionID, &e.PeerID, &e.Dominant, &e.Intensity, &e.Valence, &e.Arousal,
			&e.Quality, &signalsJSON, &persistErr, &createdStr); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		e.VersionID = versionID.String
		e.SignalsJSON = signalsJSON.String
		e.PersistenceError = persistErr.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}
// #endregion list-interactions

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
