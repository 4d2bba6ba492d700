package dialogue

import (
	"errors"
	"time"
)

// ErrPersistence tags snapshot write failures. The manager logs these and
// keeps going: an in-memory operation must never fail because disk I/O did.
var ErrPersistence = errors.New("snapshot persistence failed")

// Snapshot is the single at-rest document holding every context and profile.
type Snapshot struct {
	Contexts    map[string]*ConversationContext `json:"contexts"`
	Profiles    map[string]*UserProfile         `json:"profiles"`
	LastUpdated time.Time                       `json:"last_updated"`
}

// SnapshotStore serializes and deserializes the full snapshot at the
// manager's direction. Load never fails: missing or corrupt state means a
// cold start with empty maps.
type SnapshotStore interface {
	Load() (map[string]*ConversationContext, map[string]*UserProfile)
	Save(contexts map[string]*ConversationContext, profiles map[string]*UserProfile) error
}
