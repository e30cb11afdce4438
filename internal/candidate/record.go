package candidate

import (
	"math"
	"strings"
)

// DefaultConfidence is assigned when the extractor does not report one.
const DefaultConfidence = 0.8

// MaxSnippetChars bounds the length of an evidence snippet.
const MaxSnippetChars = 120

// Record is a single trainee candidate extracted from a document.
type Record struct {
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	TrainingYear    string  `json:"trainingYear"`
	Confidence      float64 `json:"confidence"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Location        *string `json:"location"`
	EvidenceSnippet *string `json:"evidenceSnippet"`
}

// Key identifies duplicates across chunks.
type Key struct {
	Name         string
	Specialty    string
	TrainingYear string
}

// Key returns the deduplication key of r.
func (r Record) Key() Key {
	return Key{
		Name:         NormalizeName(r.Name),
		Specialty:    strings.ToLower(strings.TrimSpace(r.Specialty)),
		TrainingYear: strings.ToLower(strings.TrimSpace(r.TrainingYear)),
	}
}

// Snippet returns the evidence snippet or "" when absent.
func (r Record) Snippet() string {
	if r.EvidenceSnippet == nil {
		return ""
	}
	return *r.EvidenceSnippet
}

// HasSnippet reports whether r carries a non-blank evidence snippet.
func (r Record) HasSnippet() bool {
	return strings.TrimSpace(r.Snippet()) != ""
}

// NormalizeName lowercases, strips periods and collapses whitespace.
func NormalizeName(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, ".", "")
	return strings.Join(strings.Fields(s), " ")
}

// ClampConfidence maps a model-reported confidence into [0,1]. Missing or
// non-finite values become DefaultConfidence.
func ClampConfidence(v float64, present bool) float64 {
	if !present || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultConfidence
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// StringPtr returns a pointer to the trimmed s, or nil when s is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
