package models

// Resolution names the outcome of a conflict: which side's events survived.
type Resolution string

const (
	ResolutionLocal  Resolution = "local"
	ResolutionRemote Resolution = "remote"
	ResolutionMerge  Resolution = "merge"
)

// ConflictRecord is the audit trail for one resolved version divergence.
// Dropped holds the events discarded by the deterministic policy; they are
// kept for attribution but never reapplied.
type ConflictRecord struct {
	CartID        string      `json:"cart_id"`
	LocalVersion  int64       `json:"local_version"`
	RemoteVersion int64       `json:"remote_version"`
	LocalEvents   []SyncEvent `json:"local_events"`
	RemoteEvents  []SyncEvent `json:"remote_events"`
	Resolution    Resolution  `json:"resolution"`
	Dropped       []SyncEvent `json:"dropped,omitempty"`
}
