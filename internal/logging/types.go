package logging

import (
	"database/sql"
	"time"
)

// #region execer
// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}
// #endregion execer

// #region interaction-entry
// InteractionEntry is a single row in the interaction_log table.
// It never carries the interaction text.
type InteractionEntry struct {
	VersionID        string
	PeerID           string
	Dominant         string
	Intensity        float64
	Valence          float64
	Arousal          float64
	Quality          float64
	SignalsJSON      string
	PersistenceError string
	CreatedAt        time.Time
}
// #endregion interaction-entry
