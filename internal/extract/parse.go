package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/heuristic"
)

// ParseError reports model output that was not valid JSON even after repair.
type ParseError struct {
	Err error
	// Length of the offending response; content is not retained.
	Length int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse extraction json (%d bytes): %v", e.Length, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

type response struct {
	Providers []provider `json:"providers"`
}

type provider struct {
	Name            looseString `json:"name"`
	Specialty       looseString `json:"specialty"`
	TrainingYear    looseString `json:"trainingYear"`
	Confidence      *looseFloat `json:"confidence"`
	Email           looseString `json:"email"`
	Phone           looseString `json:"phone"`
	Location        looseString `json:"location"`
	EvidenceSnippet looseString `json:"evidenceSnippet"`
}

// looseString accepts strings, numbers and null.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if b[0] == '{' || b[0] == '[' {
		*s = ""
		return nil
	}
	*s = looseString(b)
	return nil
}

// looseFloat accepts numbers and numeric strings.
type looseFloat float64

func (f *looseFloat) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	// Unreadable values become NaN, which ClampConfidence treats as missing.
	*f = looseFloat(math.NaN())
	switch t := v.(type) {
	case float64:
		*f = looseFloat(t)
	case string:
		if p, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			*f = looseFloat(p)
		}
	}
	return nil
}

// parseProviders decodes raw, repairing once by stripping code fences and
// anything outside the outermost braces.
func parseProviders(raw string) ([]provider, error) {
	var resp response
	err := json.Unmarshal([]byte(raw), &resp)
	if err == nil {
		return resp.Providers, nil
	}
	fixed, ok := repair(raw)
	if !ok {
		return nil, &ParseError{Err: err, Length: len(raw)}
	}
	resp = response{}
	if err2 := json.Unmarshal([]byte(fixed), &resp); err2 != nil {
		return nil, &ParseError{Err: err2, Length: len(raw)}
	}
	return resp.Providers, nil
}

func repair(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// finalize maps parsed entries to records, applying defaults and dropping
// blank names and staff.
func finalize(in []provider, opts Options, limit int) []candidate.Record {
	hint := strings.TrimSpace(opts.SpecialtyHint)
	out := make([]candidate.Record, 0, len(in))
	for _, p := range in {
		if len(out) >= limit {
			break
		}
		name := strings.TrimSpace(string(p.Name))
		if name == "" {
			continue
		}
		snippet := truncate(strings.TrimSpace(string(p.EvidenceSnippet)), candidate.MaxSnippetChars)
		if heuristic.LooksLikeStaff(snippet) {
			continue
		}
		r := candidate.Record{
			Name:            name,
			Specialty:       strings.TrimSpace(string(p.Specialty)),
			TrainingYear:    heuristic.NormalizeTrainingYear(string(p.TrainingYear)),
			Email:           candidate.StringPtr(string(p.Email)),
			Phone:           candidate.StringPtr(string(p.Phone)),
			Location:        candidate.StringPtr(string(p.Location)),
			EvidenceSnippet: candidate.StringPtr(snippet),
		}
		if p.Confidence != nil {
			r.Confidence = candidate.ClampConfidence(float64(*p.Confidence), true)
		} else {
			r.Confidence = candidate.ClampConfidence(0, false)
		}
		if r.Specialty == "" {
			r.Specialty = hint
		}
		if r.TrainingYear == "" {
			r.TrainingYear = heuristic.InferTrainingYear(snippet)
		}
		out = append(out, r)
	}
	return out
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}
