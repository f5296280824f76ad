package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/feeling-system/internal/errs"
	"github.com/danielpatrickdp/feeling-system/internal/feeling"
	"github.com/danielpatrickdp/feeling-system/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS state_versions (
	version_id    TEXT PRIMARY KEY,
	parent_id     TEXT,
	snapshot_json TEXT NOT NULL,
	peer_id       TEXT,
	dominant      TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (parent_id) REFERENCES state_versions(version_id)
);

CREATE TABLE IF NOT EXISTS active_state (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	version_id    TEXT NOT NULL,
	FOREIGN KEY (version_id) REFERENCES state_versions(version_id)
);
`
// #endregion schema

// #region store-struct
// Store keeps a versioned history of coordinator snapshots in SQLite.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if _, err := db.Exec(logging.Schema); err != nil {
		return nil, fmt.Errorf("migrate interaction log: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region persist
// Persist commits snap as a new version parented on the active one and logs
// the pass to interaction_log, both in one transaction.
func (s *Store) Persist(ctx context.Context, snap feeling.Snapshot, res feeling.Result) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errs.Persistence("marshal snapshot", err)
	}
	signalsJSON, err := json.Marshal(res.InputSignals)
	if err != nil {
		return errs.Persistence("marshal signals", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Persistence("begin tx", err)
	}
	defer tx.Rollback()

	var parentID string
	err = tx.QueryRowContext(ctx, `SELECT version_id FROM active_state WHERE id = 1`).Scan(&parentID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return errs.Persistence("get active", err)
	}

	rec := SnapshotRecord{
		VersionID:    uuid.New().String(),
		ParentID:     parentID,
		SnapshotJSON: string(data),
		PeerID:       res.PeerID,
		Dominant:     string(res.EmotionalResponse.DominantEmotion),
		CreatedAt:    snap.LastUpdate,
	}
	if err := commit(tx, rec); err != nil {
		return errs.Persistence("commit version", err)
	}

	resp := res.EmotionalResponse
	if err := logging.LogInteraction(tx, logging.InteractionEntry{
		VersionID:        rec.VersionID,
		PeerID:           res.PeerID,
		Dominant:         string(resp.DominantEmotion),
		Intensity:        resp.Intensity,
		Valence:          resp.Valence,
		Arousal:          resp.Arousal,
		Quality:          res.Quality,
		SignalsJSON:      string(signalsJSON),
		PersistenceError: res.PersistenceError,
		CreatedAt:        res.Timestamp,
	}); err != nil {
		return errs.Persistence("log interaction", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Persistence("commit", err)
	}
	return nil
}
// #endregion persist

// #region commit-state
// CommitState inserts a new version and updates the active pointer atomically.
func (s *Store) CommitState(rec SnapshotRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := commit(tx, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func commit(tx *sql.Tx, rec SnapshotRecord) error {
	var parentPtr interface{}
	if rec.ParentID != "" {
		parentPtr = rec.ParentID
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := tx.Exec(
		`INSERT INTO state_versions (version_id, parent_id, snapshot_json, peer_id, dominant, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.VersionID, parentPtr, rec.SnapshotJSON, nullIfEmpty(rec.PeerID), nullIfEmpty(rec.Dominant),
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO active_state (id, version_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET version_id = excluded.version_id`,
		rec.VersionID,
	)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}
// #endregion commit-state

// #region get-current
// GetCurrent reads the active version. It returns ErrNoActive before the first commit.
func (s *Store) GetCurrent() (SnapshotRecord, error) {
	var versionID string
	err := s.db.QueryRow(`SELECT version_id FROM active_state WHERE id = 1`).Scan(&versionID)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotRecord{}, ErrNoActive
	}
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get active: %w", err)
	}
	return s.GetVersion(versionID)
}
// #endregion get-current

// #region get-version
// GetVersion retrieves a specific version by ID.
func (s *Store) GetVersion(id string) (SnapshotRecord, error) {
	row := s.db.QueryRow(
		`SELECT version_id, parent_id, snapshot_json, peer_id, dominant, created_at
		 FROM state_versions WHERE version_id = ?`, id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		return SnapshotRecord{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return rec, nil
}
// #endregion get-version

// #region load-active
// LoadActive loads the active snapshot into sys.
func (s *Store) LoadActive(sys *feeling.System) (SnapshotRecord, error) {
	rec, err := s.GetCurrent()
	if err != nil {
		return SnapshotRecord{}, err
	}
	if err := sys.LoadJSON([]byte(rec.SnapshotJSON)); err != nil {
		return SnapshotRecord{}, fmt.Errorf("load version %s: %w", rec.VersionID, err)
	}
	return rec, nil
}
// #endregion load-active

// #region rollback
// Rollback sets the active pointer to a previous version.
func (s *Store) Rollback(targetVersionID string) error {
	var exists int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM state_versions WHERE version_id = ?`, targetVersionID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check version: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("version %s not found", targetVersionID)
	}

	_, err = s.db.Exec(`UPDATE active_state SET version_id = ? WHERE id = 1`, targetVersionID)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}
// #endregion rollback

// #region list-versions
// ListVersions returns the most recent versions, newest first.
func (s *Store) ListVersions(limit int) ([]SnapshotRecord, error) {
	rows, err := s.db.Query(
		`SELECT version_id, parent_id, snapshot_json, peer_id, dominant, created_at
		 FROM state_versions ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion list-versions

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (SnapshotRecord, error) {
	var rec SnapshotRecord
	var parentID, peerID, dominant sql.NullString
	var createdStr string
	if err := row.Scan(&rec.VersionID, &parentID, &rec.SnapshotJSON, &peerID, &dominant, &createdStr); err != nil {
		return SnapshotRecord{}, err
	}
	rec.ParentID = parentID.String
	rec.PeerID = peerID.String
	rec.Dominant = dominant.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
