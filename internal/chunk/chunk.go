// Package chunk splits normalized document text into bounded segments that
// fit the extractor's input budget.
package chunk

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxChars keeps a chunk plus prompt well inside common model
// context windows.
const DefaultMaxChars = 5500

// MinMeaningfulChars is the non-whitespace size below which a chunk is not
// worth a model call.
const MinMeaningfulChars = 40

// boundaryRatio is how far into a chunk a newline must be to be used as the
// cut point instead of the hard limit.
const boundaryRatio = 0.6

// Split cuts text into ordered chunks of at most maxChars characters
// (runes). It prefers cutting just after a newline located past 60% of the
// chunk; otherwise it cuts at the hard limit. Cuts always fall on rune
// boundaries. Chunks concatenate back to text, minus any whitespace-only
// chunks, which are dropped. A non-positive maxChars selects DefaultMaxChars.
func Split(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if utf8.RuneCountInString(text) <= maxChars {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}

	out := make([]string, 0, len(text)/maxChars+1)
	for start := 0; start < len(text); {
		end := advance(text, start, maxChars)
		if end < len(text) {
			end = cutPoint(text, start, end)
		}
		if piece := text[start:end]; strings.TrimSpace(piece) != "" {
			out = append(out, piece)
		}
		start = end
	}
	return out
}

// advance returns the byte offset n runes after start, or len(text).
func advance(text string, start, n int) int {
	i := start
	for ; n > 0 && i < len(text); n-- {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}

// cutPoint moves a hard cut back to just after the last newline when that
// newline lies past boundaryRatio of the window, measured in runes.
func cutPoint(text string, start, end int) int {
	window := text[start:end]
	i := strings.LastIndexByte(window, '\n')
	if i < 0 {
		return end
	}
	if float64(utf8.RuneCountInString(window[:i])) > boundaryRatio*float64(utf8.RuneCountInString(window)) {
		return start + i + 1
	}
	return end
}

// Meaningful reports whether s holds enough non-whitespace characters to be
// worth extracting from.
func Meaningful(s string) bool {
	n := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		n++
		if n >= MinMeaningfulChars {
			return true
		}
	}
	return false
}
