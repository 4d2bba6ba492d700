package httpserver

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"careercoach/internal/resume"

	"log/slog"
)

// maxResumeSize bounds the uploaded PDF to 10 MiB.
const maxResumeSize = 10 << 20

type ResumeMatchHandler struct {
	logger *slog.Logger
}

func NewResumeMatchHandler(logger *slog.Logger) *ResumeMatchHandler {
	return &ResumeMatchHandler{logger: logger}
}

// Match handles POST /api/v1/resume-match: a multipart form with a
// "resume" PDF file and a "job_description" text field.
func (h *ResumeMatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxResumeSize)
	if err := r.ParseMultipartForm(maxResumeSize); err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot parse multipart form")
		return
	}

	jobDescription := strings.TrimSpace(r.FormValue("job_description"))
	if len(jobDescription) < 10 {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "job_description must be at least 10 characters")
		return
	}

	numKeywords := 0
	if raw := r.FormValue("num_keywords"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			WriteJSONError(w, http.StatusBadRequest, "bad_request", "num_keywords must be between 1 and 50")
			return
		}
		numKeywords = parsed
	}

	file, _, err := r.FormFile("resume")
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "resume file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot read resume file")
		return
	}

	text, err := resume.ExtractPDFText(data)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("resume extraction failed", slog.String("error", err.Error()))
		}
		WriteJSONError(w, http.StatusBadRequest, "bad_request", "cannot extract text from PDF")
		return
	}

	WriteJSON(w, http.StatusOK, resume.Match(text, jobDescription, numKeywords))
}
