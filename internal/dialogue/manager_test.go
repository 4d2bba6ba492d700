package dialogue

import (
	"context"
	"sync"
	"testing"
	"time"

	"careercoach/internal/respond"
)

type mockResponder struct {
	detectFunc   func(message string) string
	generateFunc func(ctx context.Context, message, intent string, history []respond.Turn) *respond.Response
}

func (m *mockResponder) DetectIntent(message string) string {
	if m.detectFunc != nil {
		return m.detectFunc(message)
	}
	return respond.DefaultIntent
}

func (m *mockResponder) Generate(ctx context.Context, message, intent string, history []respond.Turn) *respond.Response {
	if m.generateFunc != nil {
		return m.generateFunc(ctx, message, intent, history)
	}
	return &respond.Response{
		Text:        "ok",
		Intent:      intent,
		Confidence:  0.9,
		Suggestions: []string{},
		Source:      respond.SourceGenerated,
		Timestamp:   time.Now().UTC(),
	}
}

func newTestManager(responder Responder) *Manager {
	if responder == nil {
		responder = &mockResponder{}
	}
	return NewManager(ManagerConfig{
		Store:     NewMemoryStore(),
		Responder: responder,
	})
}

func TestProcessMessageRecordsBothTurns(t *testing.T) {
	m := newTestManager(nil)

	result := m.ProcessMessage(context.Background(), "u1", "parle-moi des formations")

	if result.Response.Text != "ok" {
		t.Fatalf("unexpected response text: %q", result.Response.Text)
	}
	if len(result.Context.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(result.Context.Messages))
	}
	if result.Context.Messages[0].Role != "user" || result.Context.Messages[1].Role != "assistant" {
		t.Fatalf("unexpected roles: %q, %q", result.Context.Messages[0].Role, result.Context.Messages[1].Role)
	}
	if result.Context.CurrentIntent != respond.DefaultIntent {
		t.Fatalf("unexpected current intent: %q", result.Context.CurrentIntent)
	}
	if result.Profile.UserID != "u1" {
		t.Fatalf("unexpected profile user id: %q", result.Profile.UserID)
	}
}

func TestProcessMessagePassesHistory(t *testing.T) {
	var gotHistory []respond.Turn
	responder := &mockResponder{
		generateFunc: func(ctx context.Context, message, intent string, history []respond.Turn) *respond.Response {
			gotHistory = history
			return &respond.Response{Text: "ok", Source: respond.SourceGenerated}
		},
	}
	m := newTestManager(responder)

	m.ProcessMessage(context.Background(), "u1", "premier message")
	m.ProcessMessage(context.Background(), "u1", "second message")

	if len(gotHistory) != 2 {
		t.Fatalf("expected 2 history turns on second call, got %d", len(gotHistory))
	}
	if gotHistory[0].Role != "user" || gotHistory[0].Content != "premier message" {
		t.Fatalf("unexpected first turn: %+v", gotHistory[0])
	}
}

func TestGetOrCreateContextStableSession(t *testing.T) {
	m := newTestManager(nil)

	first := m.GetOrCreateContext("u1")
	second := m.GetOrCreateContext("u1")

	if first.SessionID == "" {
		t.Fatalf("session id should not be empty")
	}
	if first.SessionID != second.SessionID {
		t.Fatalf("session id changed between calls: %q vs %q", first.SessionID, second.SessionID)
	}
}

func TestEndSession(t *testing.T) {
	m := newTestManager(nil)
	m.ProcessMessage(context.Background(), "u1", "bonjour")

	old := m.GetOrCreateContext("u1").SessionID

	if !m.EndSession("u1") {
		t.Fatalf("expected first EndSession to delete the context")
	}
	if m.EndSession("u1") {
		t.Fatalf("expected second EndSession to be a no-op")
	}

	fresh := m.GetOrCreateContext("u1")
	if fresh.SessionID == old {
		t.Fatalf("expected a new session id after EndSession")
	}
	if len(fresh.Messages) != 0 {
		t.Fatalf("expected a fresh context, got %d messages", len(fresh.Messages))
	}

	// The profile outlives the session.
	if _, ok := m.profiles["u1"]; !ok {
		t.Fatalf("profile should be retained after EndSession")
	}
}

func TestManagerStatePersistsAcrossRestart(t *testing.T) {
	store := NewMemoryStore()
	responder := &mockResponder{}

	m1 := NewManager(ManagerConfig{Store: store, Responder: responder})
	m1.ProcessMessage(context.Background(), "u1", "bonjour")
	session := m1.GetOrCreateContext("u1").SessionID

	m2 := NewManager(ManagerConfig{Store: store, Responder: responder})
	restored := m2.GetOrCreateContext("u1")

	if restored.SessionID != session {
		t.Fatalf("session not restored: %q vs %q", restored.SessionID, session)
	}
	if len(restored.Messages) != 2 {
		t.Fatalf("messages not restored: got %d", len(restored.Messages))
	}
}

func TestCleanupOldContexts(t *testing.T) {
	m := newTestManager(nil)

	m.contexts["old"] = NewConversationContext("old", 0)
	m.contexts["old"].LastActivity = time.Now().UTC().Add(-31 * 24 * time.Hour)
	m.contexts["recent"] = NewConversationContext("recent", 0)
	m.contexts["recent"].LastActivity = time.Now().UTC().Add(-29 * 24 * time.Hour)

	removed := m.CleanupOldContexts(30 * 24 * time.Hour)

	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := m.contexts["old"]; ok {
		t.Fatalf("stale context should have been removed")
	}
	if _, ok := m.contexts["recent"]; !ok {
		t.Fatalf("recent context should have been kept")
	}
}

func TestCleanupTriggersOnContextCountMultiple(t *testing.T) {
	m := newTestManager(nil)

	// Seed nine contexts, one of them stale. The tenth arrives through
	// ProcessMessage and trips the sweep.
	for i := 0; i < 9; i++ {
		id := string(rune('a' + i))
		m.contexts[id] = NewConversationContext(id, 0)
	}
	m.contexts["a"].LastActivity = time.Now().UTC().Add(-31 * 24 * time.Hour)

	m.ProcessMessage(context.Background(), "u10", "bonjour")

	if _, ok := m.contexts["a"]; ok {
		t.Fatalf("stale context should have been swept on the tenth context")
	}
	if _, ok := m.contexts["u10"]; !ok {
		t.Fatalf("new context should survive the sweep")
	}
}

func TestProcessMessageConcurrentSmoke(t *testing.T) {
	m := newTestManager(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := "user-" + string(rune('a'+n))
			for j := 0; j < 5; j++ {
				m.ProcessMessage(context.Background(), userID, "bonjour")
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		userID := "user-" + string(rune('a'+i))
		conv := m.GetOrCreateContext(userID)
		if len(conv.Messages) != 10 {
			t.Fatalf("%s: expected a full 10-message window, got %d", userID, len(conv.Messages))
		}
	}
}

func TestGetUserProfileDefaults(t *testing.T) {
	m := newTestManager(nil)

	profile := m.GetUserProfile("u1")
	if profile.UserID != "u1" {
		t.Fatalf("unexpected user id: %q", profile.UserID)
	}
	if len(profile.Languages) != 1 || profile.Languages[0] != "Français" {
		t.Fatalf("unexpected default languages: %v", profile.Languages)
	}
	if lang, ok := profile.Preferences["language"]; !ok || lang != "fr" {
		t.Fatalf("unexpected default preferences: %v", profile.Preferences)
	}
}
