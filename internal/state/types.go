package state

import (
	"errors"
	"time"
)

// ErrNoActive is returned when no version has been committed yet.
var ErrNoActive = errors.New("no active version")

// #region snapshot-record
// SnapshotRecord is one versioned coordinator snapshot.
type SnapshotRecord struct {
	VersionID    string
	ParentID     string
	SnapshotJSON string
	PeerID       string // peer of the pass that produced it
	Dominant     string // dominant emotion after that pass
	CreatedAt    time.Time
}
// #endregion snapshot-record
