package recommend

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// JobMatch is one scored catalog entry.
type JobMatch struct {
	JobID    string            `json:"job_id"`
	Title    string            `json:"title"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// tokenize lowercases, strips punctuation and splits on whitespace,
// dropping tokens shorter than three characters.
func tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// termFreq builds a term-frequency vector.
func termFreq(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

// cosine computes cosine similarity between two term-frequency vectors.
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

// rankJobs scores each job against the candidate text and returns the topN
// matches in descending score order. Ties break on job id so the ordering
// is stable.
func rankJobs(candidateText string, jobs []Job, topN int) []JobMatch {
	candidate := termFreq(tokenize(candidateText))

	matches := make([]JobMatch, 0, len(jobs))
	for _, job := range jobs {
		jobText := job.Title + " " + strings.Join(job.Skills, " ") + " " + job.Description
		score := cosine(candidate, termFreq(tokenize(jobText)))
		matches = append(matches, JobMatch{
			JobID:    job.ID,
			Title:    job.Title,
			Score:    score,
			Metadata: map[string]string{"company": job.Company},
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].JobID < matches[j].JobID
	})

	if topN > 0 && len(matches) > topN {
		matches = matches[:topN]
	}
	return matches
}

// topKeywords returns the n most frequent tokens of text, most frequent
// first, ties broken alphabetically.
func topKeywords(text string, n int) []string {
	freq := termFreq(tokenize(text))
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
