package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Result statuses.
const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

const defaultTopN = 10

// Skill is one declared candidate skill.
type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// Request is a recommendation request: free CV text plus declared skills.
type Request struct {
	UserID       string   `json:"user_id,omitempty"`
	CVText       string   `json:"cv_text"`
	Skills       []Skill  `json:"skills,omitempty"`
	DesiredRoles []string `json:"desired_roles,omitempty"`
	TopN         int      `json:"top_n,omitempty"`
}

// Result is the stored outcome of one recommendation run.
type Result struct {
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UserID          string     `json:"user_id,omitempty"`
	Matches         []JobMatch `json:"matches"`
	ExtractedSkills []string   `json:"extracted_skills"`
	Error           string     `json:"error,omitempty"`
}

// SkillDemand is one row of the market analysis: how many catalog postings
// ask for a skill.
type SkillDemand struct {
	Skill       string  `json:"skill"`
	DemandScore float64 `json:"demand_score"`
	JobCount    int     `json:"job_count"`
}

// Service scores recommendation requests against the job catalog. Scoring
// runs in a background goroutine per request; results live in a uuid-keyed
// in-memory store until the process restarts.
type Service struct {
	catalog *Catalog
	logger  *slog.Logger

	mu      sync.RWMutex
	results map[string]*Result
	wg      sync.WaitGroup
}

func NewService(catalog *Catalog, logger *slog.Logger) *Service {
	return &Service{
		catalog: catalog,
		logger:  logger,
		results: make(map[string]*Result),
	}
}

// Create registers the request, kicks off background scoring and returns
// the recommendation id immediately.
func (s *Service) Create(req Request) (string, time.Time) {
	id := uuid.NewString()
	created := time.Now().UTC()

	s.mu.Lock()
	s.results[id] = &Result{Status: StatusProcessing, CreatedAt: created, UserID: req.UserID}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(id, req)
	}()

	return id, created
}

// Result returns the stored outcome for id, if any.
func (s *Service) Result(id string) (*Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[id]
	return res, ok
}

// Wait blocks until all in-flight scoring goroutines finish. Used on
// shutdown and in tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) process(id string, req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	jobs, err := s.catalog.ListJobs(ctx)
	if err != nil {
		s.fail(id, err)
		return
	}

	// Declared skills and desired roles weigh into the candidate text
	// alongside the raw CV.
	var parts []string
	parts = append(parts, req.CVText)
	for _, skill := range req.Skills {
		parts = append(parts, skill.Name)
	}
	parts = append(parts, req.DesiredRoles...)
	candidateText := strings.Join(parts, " ")

	topN := req.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	matches := rankJobs(candidateText, jobs, topN)

	extracted := make([]string, 0, len(req.Skills))
	for _, skill := range req.Skills {
		if skill.Name != "" {
			extracted = append(extracted, skill.Name)
		}
	}
	if len(extracted) == 0 {
		extracted = topKeywords(req.CVText, 5)
	}

	s.mu.Lock()
	s.results[id] = &Result{
		Status:          StatusDone,
		CreatedAt:       time.Now().UTC(),
		UserID:          req.UserID,
		Matches:         matches,
		ExtractedSkills: extracted,
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("recommendation completed",
			slog.String("recommendation_id", id),
			slog.Int("matches", len(matches)))
	}
}

func (s *Service) fail(id string, err error) {
	s.mu.Lock()
	s.results[id] = &Result{
		Status:    StatusError,
		CreatedAt: time.Now().UTC(),
		Error:     err.Error(),
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Error("recommendation failed",
			slog.String("recommendation_id", id),
			slog.String("error", err.Error()))
	}
}

// SkillDemand aggregates the catalog into per-skill posting counts. The
// demand score is the share of postings asking for the skill.
func (s *Service) SkillDemand(ctx context.Context) ([]SkillDemand, error) {
	jobs, err := s.catalog.ListJobs(ctx)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return []SkillDemand{}, nil
	}

	counts := make(map[string]int)
	for _, job := range jobs {
		for _, skill := range job.Skills {
			counts[skill]++
		}
	}

	demand := make([]SkillDemand, 0, len(counts))
	for skill, count := range counts {
		demand = append(demand, SkillDemand{
			Skill:       skill,
			DemandScore: float64(count) / float64(len(jobs)),
			JobCount:    count,
		})
	}
	sort.Slice(demand, func(i, j int) bool {
		if demand[i].JobCount != demand[j].JobCount {
			return demand[i].JobCount > demand[j].JobCount
		}
		return demand[i].Skill < demand[j].Skill
	})
	return demand, nil
}
