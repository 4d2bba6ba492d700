package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careercoach/internal/dialogue"
	"careercoach/internal/recommend"
	"careercoach/internal/respond"
)

type stubDialogue struct {
	processFunc func(ctx context.Context, userID, message string) *dialogue.ProcessResult
	contextFunc func(userID string) *dialogue.ConversationContext
	endFunc     func(userID string) bool
}

func (s *stubDialogue) ProcessMessage(ctx context.Context, userID, message string) *dialogue.ProcessResult {
	return s.processFunc(ctx, userID, message)
}

func (s *stubDialogue) GetOrCreateContext(userID string) *dialogue.ConversationContext {
	return s.contextFunc(userID)
}

func (s *stubDialogue) EndSession(userID string) bool {
	return s.endFunc(userID)
}

func defaultProcessFunc(ctx context.Context, userID, message string) *dialogue.ProcessResult {
	conv := dialogue.NewConversationContext(userID, 0)
	return &dialogue.ProcessResult{
		Response: &respond.Response{
			Text:        "Bonjour !",
			Intent:      "Greeting",
			Confidence:  1.0,
			Suggestions: []string{},
			Source:      respond.SourceFAQ,
			Timestamp:   time.Now().UTC(),
		},
		Context: conv,
		Profile: dialogue.NewUserProfile(userID),
	}
}

func newTestRouter(t *testing.T, svc DialogueService) (http.Handler, *recommend.Service) {
	t.Helper()

	catalog, err := recommend.OpenCatalog(":memory:")
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { catalog.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recommendSvc := recommend.NewService(catalog, logger)

	router := NewRouter(RouterDeps{
		Logger:    logger,
		Chat:      NewChatHandler(svc, logger),
		Recommend: NewRecommendHandler(recommendSvc),
		Resume:    NewResumeMatchHandler(logger),
	})
	return router, recommendSvc
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubDialogue{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestChatEndpoint(t *testing.T) {
	var gotUserID, gotMessage string
	svc := &stubDialogue{
		processFunc: func(ctx context.Context, userID, message string) *dialogue.ProcessResult {
			gotUserID, gotMessage = userID, message
			return defaultProcessFunc(ctx, userID, message)
		},
	}
	router, _ := newTestRouter(t, svc)

	payload := `{"user_id":"u1","message":"Bonjour"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(payload)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	if gotUserID != "u1" || gotMessage != "Bonjour" {
		t.Fatalf("request not forwarded: user=%q message=%q", gotUserID, gotMessage)
	}

	var body chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Text != "Bonjour !" || body.SessionID == "" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Metadata["response_source"] != respond.SourceFAQ {
		t.Fatalf("unexpected metadata: %v", body.Metadata)
	}
}

func TestChatEndpointGeneratesUserID(t *testing.T) {
	var gotUserID string
	svc := &stubDialogue{
		processFunc: func(ctx context.Context, userID, message string) *dialogue.ProcessResult {
			gotUserID = userID
			return defaultProcessFunc(ctx, userID, message)
		},
	}
	router, _ := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(`{"message":"Bonjour"}`)))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	if gotUserID == "" {
		t.Fatalf("expected a generated user id")
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	router, _ := newTestRouter(t, &stubDialogue{})

	for _, payload := range []string{`{"user_id":"u1"}`, `{"user_id":"u1","message":"   "}`, `not json`} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(payload)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, rec.Code)
		}
	}
}

func TestContextEndpoints(t *testing.T) {
	conv := dialogue.NewConversationContext("u1", 0)
	svc := &stubDialogue{
		contextFunc: func(userID string) *dialogue.ConversationContext { return conv },
		endFunc:     func(userID string) bool { return userID == "u1" },
	}
	router, _ := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/chat/context/u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get context: unexpected status %d", rec.Code)
	}
	var got dialogue.ConversationContext
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionID != conv.SessionID {
		t.Fatalf("unexpected session id: %q", got.SessionID)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/chat/context/u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reset context: unexpected status %d", rec.Code)
	}
	var deleted map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !deleted["deleted"] {
		t.Fatalf("expected deleted=true, got %v", deleted)
	}
}

func TestRecommendationLifecycle(t *testing.T) {
	router, recommendSvc := newTestRouter(t, &stubDialogue{})

	payload := `{"user_id":"u1","cv_text":"cabin crew with customer service and safety procedures experience","top_n":2}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(payload)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	var created createRecommendationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.RecommendationID == "" {
		t.Fatalf("missing recommendation id")
	}

	recommendSvc.Wait()

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/results/"+created.RecommendationID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var result recommend.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status != recommend.StatusDone {
		t.Fatalf("unexpected status: %q", result.Status)
	}
	if len(result.Matches) == 0 || len(result.Matches) > 2 {
		t.Fatalf("unexpected match count: %d", len(result.Matches))
	}
}

func TestRecommendationValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubDialogue{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", strings.NewReader(`{"cv_text":"  "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cv_text, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/results/unknown", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}
}

func TestSkillDemandEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubDialogue{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/skills/demand", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}
	var demand []recommend.SkillDemand
	if err := json.Unmarshal(rec.Body.Bytes(), &demand); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(demand) == 0 {
		t.Fatalf("expected demand rows from the seeded catalog")
	}
}

func TestResumeMatchValidation(t *testing.T) {
	router, _ := newTestRouter(t, &stubDialogue{})

	// Missing file.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("job_description", "hôtesse de l'air, sécurité cabine et service passagers")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/resume-match", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing resume file, got %d", rec.Code)
	}

	// Job description too short.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	mw.WriteField("job_description", "court")
	fw, _ := mw.CreateFormFile("resume", "cv.pdf")
	fw.Write([]byte("%PDF-1.4 fake"))
	mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/resume-match", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short job description, got %d", rec.Code)
	}

	// Non-PDF upload.
	buf.Reset()
	mw = multipart.NewWriter(&buf)
	mw.WriteField("job_description", "hôtesse de l'air, sécurité cabine et service passagers")
	fw, _ = mw.CreateFormFile("resume", "cv.txt")
	fw.Write([]byte("plain text"))
	mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/v1/resume-match", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-PDF upload, got %d", rec.Code)
	}
}
