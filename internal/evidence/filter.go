// Package evidence merges extracted records and validates each one against
// the source document so that nothing the model invented survives.
package evidence

import (
	"strings"

	"github.com/hyperifyio/rosterscan/internal/candidate"
	"github.com/hyperifyio/rosterscan/internal/heuristic"
)

const (
	credentialBefore = 20
	credentialAfter  = 100
	snippetRadius    = candidate.MaxSnippetChars / 2
)

// Options controls evidence validation.
type Options struct {
	// RequireDegree drops records without an MD/DO/MBBS token near the name.
	RequireDegree bool
}

// Filter keeps only records provably present in source:
//
//  1. the trimmed name is non-empty;
//  2. the name occurs in source, case-insensitively;
//  3. with RequireDegree, a credential token appears between 20 characters
//     before and 100 characters after the name, or in a verified snippet;
//  4. a snippet that is missing, absent from source or does not contain
//     the name is replaced by the text within 60 characters of the name's
//     position;
//  5. records whose snippet reads like staff are dropped;
//  6. an empty training year is inferred from the snippet.
//
// Every returned snippet is a literal substring of source.
func Filter(records []candidate.Record, source string, opts Options) []candidate.Record {
	out := make([]candidate.Record, 0, len(records))
	for _, r := range records {
		if v, ok := validate(r, source, opts); ok {
			out = append(out, v)
		}
	}
	return out
}

func validate(r candidate.Record, source string, opts Options) (candidate.Record, bool) {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return r, false
	}
	start, end := indexFold(source, r.Name)
	if start < 0 {
		return r, false
	}

	// A model snippet only counts when it is in the source and names r.
	snippet := strings.TrimSpace(r.Snippet())
	verified := snippet != "" && strings.Contains(source, snippet)
	if verified {
		if i, _ := indexFold(snippet, r.Name); i < 0 {
			verified = false
		}
	}

	if opts.RequireDegree {
		near := window(source, start-credentialBefore, end+credentialAfter)
		if !heuristic.HasCredential(near) && !(verified && heuristic.HasCredential(snippet)) {
			return r, false
		}
	}

	if !verified {
		snippet = synthesizeSnippet(source, start)
	}
	if snippet == "" {
		return r, false
	}
	r.EvidenceSnippet = &snippet

	if heuristic.LooksLikeStaff(snippet) {
		return r, false
	}
	if strings.TrimSpace(r.TrainingYear) == "" {
		r.TrainingYear = heuristic.InferTrainingYear(snippet)
	}
	return r, true
}

// synthesizeSnippet takes the text within snippetRadius of pos. Whitespace is
// collapsed when the collapsed form still occurs verbatim in source;
// otherwise the trimmed raw window is kept.
func synthesizeSnippet(source string, pos int) string {
	raw := strings.TrimSpace(window(source, pos-snippetRadius, pos+snippetRadius))
	if c := collapse(raw); strings.Contains(source, c) {
		return c
	}
	return raw
}
