// Package heuristic holds the stateless pattern checks used to validate and
// enrich extracted trainee records.
package heuristic

import (
	"regexp"
	"strings"
)

var (
	pgyRe      = regexp.MustCompile(`(?i)\bPGY\s*[-–]?\s*([1-5])\b`)
	ordinalRe  = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth)[\s-]+year\b`)
	bareYearRe = regexp.MustCompile(`(?i)^(?:year\s*)?([1-5])$`)

	credentialRe = regexp.MustCompile(`(?i)\b(?:M\.?D|D\.?O|M\.?B\.?B\.?S)\b\.?`)
	staffRe      = regexp.MustCompile(`(?i)\b(?:director|coordinator|faculty|chief|attending|professor)|\bDIO\b`)
)

var ordinalYears = map[string]string{
	"first":  "PGY-1",
	"second": "PGY-2",
	"third":  "PGY-3",
	"fourth": "PGY-4",
	"fifth":  "PGY-5",
}

// InferTrainingYear returns "PGY-<n>" when text carries a PGY marker or an
// ordinal "<n>th year" phrase, else "".
func InferTrainingYear(text string) string {
	if m := pgyRe.FindStringSubmatch(text); m != nil {
		return "PGY-" + m[1]
	}
	if m := ordinalRe.FindStringSubmatch(text); m != nil {
		return ordinalYears[strings.ToLower(m[1])]
	}
	return ""
}

// NormalizeTrainingYear canonicalizes a model-reported training year such as
// "pgy 2", "PGY2", "Second Year" or "2" into "PGY-2". Values it cannot read
// are returned trimmed.
func NormalizeTrainingYear(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if y := InferTrainingYear(s); y != "" {
		return y
	}
	if m := bareYearRe.FindStringSubmatch(s); m != nil {
		return "PGY-" + m[1]
	}
	return s
}

// HasCredential reports whether text contains an MD, DO or MBBS token,
// with or without periods.
func HasCredential(text string) bool {
	return credentialRe.MatchString(text)
}

// LooksLikeStaff reports whether text reads like a staff or faculty mention
// rather than a trainee.
func LooksLikeStaff(text string) bool {
	return staffRe.MatchString(text)
}
