package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"careercoach/internal/dialogue"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// DialogueService is the slice of the dialogue manager the chat endpoints
// consume.
type DialogueService interface {
	ProcessMessage(ctx context.Context, userID, message string) *dialogue.ProcessResult
	GetOrCreateContext(userID string) *dialogue.ConversationContext
	EndSession(userID string) bool
}

type ChatHandler struct {
	dialogue DialogueService
	logger   *slog.Logger
}

func NewChatHandler(svc DialogueService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{dialogue: svc, logger: logger}
}

type chatRequest struct {
	UserID   string         `json:"user_id"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type chatResponse struct {
	Text        string         `json:"text"`
	SessionID   string         `json:"session_id"`
	Intent      string         `json:"intent,omitempty"`
	Confidence  float64        `json:"confidence"`
	Suggestions []string       `json:"suggestions"`
	Metadata    map[string]any `json:"metadata"`
}

// Chat handles POST /api/v1/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	result := h.dialogue.ProcessMessage(r.Context(), req.UserID, req.Message)

	WriteJSON(w, http.StatusOK, chatResponse{
		Text:        result.Response.Text,
		SessionID:   result.Context.SessionID,
		Intent:      result.Response.Intent,
		Confidence:  result.Response.Confidence,
		Suggestions: result.Response.Suggestions,
		Metadata: map[string]any{
			"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
			"response_source": result.Response.Source,
			"user_id":         req.UserID,
		},
	})
}

// GetContext handles GET /api/v1/chat/context/{userID}.
func (h *ChatHandler) GetContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "user id is required")
		return
	}
	WriteJSON(w, http.StatusOK, h.dialogue.GetOrCreateContext(userID))
}

// ResetContext handles DELETE /api/v1/chat/context/{userID}.
func (h *ChatHandler) ResetContext(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "user id is required")
		return
	}
	deleted := h.dialogue.EndSession(userID)
	if h.logger != nil {
		h.logger.Info("session reset", slog.String("user_id", userID), slog.Bool("deleted", deleted))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}
