package resume

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Fit levels reported alongside the match score.
const (
	FitLow       = "Low Fit"
	FitGood      = "Good Fit"
	FitExcellent = "Excellent Fit"
)

const defaultNumKeywords = 10

// stopwords covers the high-frequency French and English words dropped
// before keyword extraction and scoring.
var stopwords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// French
		"les", "des", "une", "dans", "pour", "avec", "sur", "est", "sont",
		"aux", "par", "pas", "que", "qui", "vous", "nous", "votre", "nos",
		"mon", "mes", "ses", "son", "ces", "cette", "ils", "elles", "ans",
		"tout", "tous", "plus", "ainsi", "etre", "avoir", "fait", "faire",
		// English
		"the", "and", "for", "with", "you", "your", "are", "was", "were",
		"this", "that", "have", "has", "had", "will", "would", "can",
		"could", "should", "from", "they", "their", "our", "been", "all",
		"not", "but", "about", "into", "than", "them", "then", "there",
	} {
		stopwords[w] = struct{}{}
	}
}

// KeywordAnalysis reports which of the job's top keywords the resume
// covers.
type KeywordAnalysis struct {
	PresentKeywords []string `json:"present_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	MatchPercentage float64  `json:"match_percentage"`
}

// MatchResult is the outcome of scoring a resume against a job
// description.
type MatchResult struct {
	MatchScore      float64         `json:"match_score"`
	FitLevel        string          `json:"fit_level"`
	Message         string          `json:"message"`
	KeywordAnalysis KeywordAnalysis `json:"keyword_analysis"`
}

// Match scores resumeText against jobText on a 0-100 scale and analyses
// keyword coverage. numKeywords <= 0 uses the default of 10.
func Match(resumeText, jobText string, numKeywords int) MatchResult {
	if numKeywords <= 0 {
		numKeywords = defaultNumKeywords
	}

	resumeTokens := normalizeTokens(resumeText)
	jobTokens := normalizeTokens(jobText)

	score := cosine(termFreq(resumeTokens), termFreq(jobTokens)) * 100
	score = math.Round(score*100) / 100

	jobKeywords := topKeywords(jobTokens, numKeywords)
	resumeSet := make(map[string]struct{}, len(resumeTokens))
	for _, tok := range resumeTokens {
		resumeSet[tok] = struct{}{}
	}

	present := make([]string, 0, len(jobKeywords))
	missing := make([]string, 0, len(jobKeywords))
	for _, kw := range jobKeywords {
		if _, ok := resumeSet[kw]; ok {
			present = append(present, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	matchPct := 0.0
	if len(jobKeywords) > 0 {
		matchPct = math.Round(float64(len(present))/float64(len(jobKeywords))*10000) / 100
	}

	level, message := fitLevel(score)
	return MatchResult{
		MatchScore: score,
		FitLevel:   level,
		Message:    message,
		KeywordAnalysis: KeywordAnalysis{
			PresentKeywords: present,
			MissingKeywords: missing,
			MatchPercentage: matchPct,
		},
	}
}

func fitLevel(score float64) (string, string) {
	switch {
	case score < 40:
		return FitLow, "Low Fit: Consider improving your CV for this job"
	case score < 70:
		return FitGood, "Good Fit: Your CV aligns fairly well"
	default:
		return FitExcellent, "Excellent Fit: This job suits you very well!"
	}
}

// normalizeTokens lowercases, strips non-letters, splits and drops
// stopwords and short tokens.
func normalizeTokens(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) <= 2 {
			continue
		}
		if _, ok := stopwords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func termFreq(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

func cosine(a, b map[string]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for tok, va := range a {
		normA += va * va
		if vb, ok := b[tok]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if dot == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// topKeywords returns the n most frequent tokens, most frequent first,
// ties broken alphabetically.
func topKeywords(tokens []string, n int) []string {
	freq := termFreq(tokens)
	keywords := make([]string, 0, len(freq))
	for tok := range freq {
		keywords = append(keywords, tok)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if freq[keywords[i]] != freq[keywords[j]] {
			return freq[keywords[i]] > freq[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	if n > 0 && len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}
