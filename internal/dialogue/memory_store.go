package dialogue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryStore holds the serialized snapshot in memory. It goes through the
// same JSON round-trip as the file store, so tests exercise identical
// serialization behavior.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (map[string]*ConversationContext, map[string]*UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contexts := make(map[string]*ConversationContext)
	profiles := make(map[string]*UserProfile)
	if len(s.data) == 0 {
		return contexts, profiles
	}

	var snap Snapshot
	if err := json.Unmarshal(s.data, &snap); err != nil {
		return contexts, profiles
	}
	if snap.Contexts != nil {
		contexts = snap.Contexts
	}
	if snap.Profiles != nil {
		profiles = snap.Profiles
	}
	return contexts, profiles
}

func (s *MemoryStore) Save(contexts map[string]*ConversationContext, profiles map[string]*UserProfile) error {
	snap := Snapshot{
		Contexts:    contexts,
		Profiles:    profiles,
		LastUpdated: time.Now().UTC(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: marshal snapshot: %v", ErrPersistence, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}
