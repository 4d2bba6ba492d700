package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"careercoach/internal/respond"
)

// cleanupEvery triggers the stale-context sweep off live-context count
// rather than a timer, piggybacking on request volume.
const cleanupEvery = 10

// DefaultContextMaxAge is the stale-context cutoff when none is configured.
const DefaultContextMaxAge = 30 * 24 * time.Hour

// Responder produces a reply for a message. Its contract is to never fail:
// the worst case is a canned fallback response.
type Responder interface {
	DetectIntent(message string) string
	Generate(ctx context.Context, message, intent string, history []respond.Turn) *respond.Response
}

// ProcessResult bundles the formatted response with the updated context and
// profile, serialized for the caller.
type ProcessResult struct {
	Response *respond.Response    `json:"response"`
	Context  *ConversationContext `json:"context"`
	Profile  *UserProfile         `json:"user_profile"`
}

// Manager owns the in-memory context and profile maps, delegates reply
// generation to the Responder, and persists the full snapshot after every
// mutation. One coarse mutex guards the read-modify-write-persist sequence;
// unguarded maps would lose updates under a concurrent HTTP server.
type Manager struct {
	mu         sync.Mutex
	contexts   map[string]*ConversationContext
	profiles   map[string]*UserProfile
	store      SnapshotStore
	responder  Responder
	maxHistory int
	maxAge     time.Duration
	logger     *slog.Logger
}

type ManagerConfig struct {
	Store         SnapshotStore
	Responder     Responder
	MaxHistory    int           // per-context message bound, default DefaultMaxHistory
	ContextMaxAge time.Duration // stale-context cutoff, default DefaultContextMaxAge
	Logger        *slog.Logger
}

// NewManager loads any prior snapshot from the store and starts serving
// from it.
func NewManager(cfg ManagerConfig) *Manager {
	m := &Manager{
		store:      cfg.Store,
		responder:  cfg.Responder,
		maxHistory: cfg.MaxHistory,
		maxAge:     cfg.ContextMaxAge,
		logger:     cfg.Logger,
	}
	if m.maxHistory <= 0 {
		m.maxHistory = DefaultMaxHistory
	}
	if m.maxAge <= 0 {
		m.maxAge = DefaultContextMaxAge
	}
	m.contexts, m.profiles = cfg.Store.Load()
	return m
}

// ProcessMessage runs one full turn: update the profile, fetch or create
// the context, generate a reply, record both turns, persist, and
// opportunistically garbage-collect stale sessions. It never fails; the
// Responder's never-raise contract guarantees a usable response.
func (m *Manager) ProcessMessage(ctx context.Context, userID, message string) *ProcessResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := m.profileLocked(userID)
	profile.LastActive = time.Now().UTC()

	conv := m.contextLocked(userID)

	intent := m.responder.DetectIntent(message)
	history := make([]respond.Turn, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		history = append(history, respond.Turn{Role: msg.Role, Content: msg.Content})
	}

	resp := m.responder.Generate(ctx, message, intent, history)

	conv.CurrentIntent = intent
	conv.AddMessage("user", message, intent, nil)
	conv.AddMessage("assistant", resp.Text, intent, nil)

	m.saveLocked()

	// Preserved quirk of the original design: the sweep fires whenever the
	// live-context count crosses a multiple of cleanupEvery, not on a timer.
	if len(m.contexts)%cleanupEvery == 0 {
		m.cleanupLocked(m.maxAge)
	}

	return &ProcessResult{
		Response: resp,
		Context:  conv.Clone(),
		Profile:  profile.Clone(),
	}
}

// GetOrCreateContext returns the user's conversation context, creating and
// persisting a fresh session if none exists. Repeated calls return the same
// session until EndSession.
func (m *Manager) GetOrCreateContext(userID string) *ConversationContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contextLocked(userID).Clone()
}

// GetUserProfile returns the user's profile, creating and persisting one if
// none exists.
func (m *Manager) GetUserProfile(userID string) *UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.profileLocked(userID).Clone()
}

// EndSession deletes the user's context; the profile is retained. The next
// access creates a fresh session with a new session id. Reports whether
// anything was deleted, so a second call is a safe no-op.
func (m *Manager) EndSession(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.contexts[userID]; !ok {
		return false
	}
	delete(m.contexts, userID)
	m.saveLocked()
	return true
}

// CleanupOldContexts removes contexts idle for longer than maxAge and
// persists once. Returns the number removed.
func (m *Manager) CleanupOldContexts(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupLocked(maxAge)
}

func (m *Manager) contextLocked(userID string) *ConversationContext {
	conv, ok := m.contexts[userID]
	if !ok {
		conv = NewConversationContext(userID, m.maxHistory)
		m.contexts[userID] = conv
		m.saveLocked()
	}
	return conv
}

func (m *Manager) profileLocked(userID string) *UserProfile {
	profile, ok := m.profiles[userID]
	if !ok {
		profile = NewUserProfile(userID)
		m.profiles[userID] = profile
		m.saveLocked()
	}
	return profile
}

func (m *Manager) cleanupLocked(maxAge time.Duration) int {
	if maxAge <= 0 {
		maxAge = DefaultContextMaxAge
	}
	cutoff := time.Now().UTC().Add(-maxAge)

	var removed int
	for userID, conv := range m.contexts {
		if conv.LastActivity.Before(cutoff) {
			delete(m.contexts, userID)
			removed++
		}
	}
	if removed > 0 {
		if m.logger != nil {
			m.logger.Info("cleaned up stale contexts", slog.Int("removed", removed))
		}
	}
	m.saveLocked()
	return removed
}

// saveLocked persists the snapshot best-effort: a failed write is logged
// and swallowed so the in-memory session keeps working.
func (m *Manager) saveLocked() {
	if err := m.store.Save(m.contexts, m.profiles); err != nil {
		if m.logger != nil {
			m.logger.Error("snapshot save failed", slog.String("error", err.Error()))
		}
	}
}
