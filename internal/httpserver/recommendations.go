package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"careercoach/internal/recommend"

	"github.com/go-chi/chi/v5"
)

type RecommendHandler struct {
	svc *recommend.Service
}

func NewRecommendHandler(svc *recommend.Service) *RecommendHandler {
	return &RecommendHandler{svc: svc}
}

type createRecommendationResponse struct {
	RecommendationID string    `json:"recommendation_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Create handles POST /api/v1/recommendations. Scoring runs in the
// background; the result is retrievable via the results endpoint.
func (h *RecommendHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recommend.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse request body")
		return
	}
	if strings.TrimSpace(req.CVText) == "" {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cv_text is required")
		return
	}

	id, created := h.svc.Create(req)
	WriteJSON(w, http.StatusAccepted, createRecommendationResponse{
		RecommendationID: id,
		CreatedAt:        created,
	})
}

// Result handles GET /api/v1/recommendations/results/{recID}.
func (h *RecommendHandler) Result(w http.ResponseWriter, r *http.Request) {
	recID := chi.URLParam(r, "recID")
	result, ok := h.svc.Result(recID)
	if !ok {
		WriteJSONError(w, http.StatusNotFound, "not_found", "recommendation not found")
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// SkillDemand handles GET /api/v1/analysis/skills/demand.
func (h *RecommendHandler) SkillDemand(w http.ResponseWriter, r *http.Request) {
	demand, err := h.svc.SkillDemand(r.Context())
	if err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "internal", "skill demand analysis failed")
		return
	}
	WriteJSON(w, http.StatusOK, demand)
}
