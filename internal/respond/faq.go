package respond

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"
	"strings"
	"unicode"
)

// FAQEntry is one intent's canned answer in the static table.
type FAQEntry struct {
	Text        string   `json:"text"`
	Keywords    []string `json:"keywords,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type faqDocument struct {
	Intents map[string]FAQEntry `json:"intents"`
}

// FAQ is the preloaded intent → response table. Lookup is three-tiered:
// exact normalized intent, substring match in either direction, then keyword
// containment in the user message. Ties within a tier resolve by sorted
// intent name, so matching is deterministic.
type FAQ struct {
	intents map[string]FAQEntry
	keys    []string
}

// NewFAQ builds a table from an in-memory intent map.
func NewFAQ(intents map[string]FAQEntry) *FAQ {
	if intents == nil {
		intents = map[string]FAQEntry{}
	}
	keys := make([]string, 0, len(intents))
	for k := range intents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &FAQ{intents: intents, keys: keys}
}

// LoadFAQ reads the JSON table from path. A missing or corrupt file yields
// an empty table and a warning; the pipeline still answers through its
// other stages.
func LoadFAQ(path string, logger *slog.Logger) *FAQ {
	data, err := os.ReadFile(path)
	if err != nil {
		if logger != nil {
			logger.Warn("faq: read file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return NewFAQ(nil)
	}

	var doc faqDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		if logger != nil {
			logger.Warn("faq: decode file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return NewFAQ(nil)
	}

	if logger != nil {
		logger.Info("faq: loaded", slog.String("path", path), slog.Int("intents", len(doc.Intents)))
	}
	return NewFAQ(doc.Intents)
}

// Len reports the number of loaded intents.
func (f *FAQ) Len() int {
	return len(f.keys)
}

// Find looks up an entry for the intent label, falling back to keyword
// containment in the user message. Returns the matched intent name.
func (f *FAQ) Find(intent, userMessage string) (string, FAQEntry, bool) {
	if len(f.keys) == 0 {
		return "", FAQEntry{}, false
	}

	normalized := normalizeIntent(intent)

	// Tier 1: exact match on normalized intent names.
	for _, key := range f.keys {
		if normalizeIntent(key) == normalized {
			return key, f.intents[key], true
		}
	}

	// Tier 2: substring match in either direction.
	if normalized != "" {
		for _, key := range f.keys {
			nk := normalizeIntent(key)
			if nk == "" {
				continue
			}
			if strings.Contains(nk, normalized) || strings.Contains(normalized, nk) {
				return key, f.intents[key], true
			}
		}
	}

	// Tier 3: any configured keyword appearing in the message.
	lowered := strings.ToLower(userMessage)
	for _, key := range f.keys {
		for _, kw := range f.intents[key].Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return key, f.intents[key], true
			}
		}
	}

	return "", FAQEntry{}, false
}

// DetectIntent scans the message against each intent's keywords and returns
// the first (sorted) intent whose keyword appears.
func (f *FAQ) DetectIntent(message string) (string, bool) {
	lowered := strings.ToLower(message)
	for _, key := range f.keys {
		for _, kw := range f.intents[key].Keywords {
			if kw != "" && strings.Contains(lowered, strings.ToLower(kw)) {
				return key, true
			}
		}
	}
	return "", false
}

// normalizeIntent lowercases and strips everything but letters, digits and
// underscores, so "CV_Advice" and "cv_advice" compare equal.
func normalizeIntent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
