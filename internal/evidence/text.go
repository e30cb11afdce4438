package evidence

import (
	"strings"
	"unicode/utf8"
)

// indexFold returns the byte span of the first case-insensitive occurrence
// of sub in s, or (-1, -1).
func indexFold(s, sub string) (int, int) {
	if sub == "" {
		return -1, -1
	}
	ls, lsub := strings.ToLower(s), strings.ToLower(sub)
	if len(ls) == len(s) && len(lsub) == len(sub) {
		i := strings.Index(ls, lsub)
		if i < 0 {
			return -1, -1
		}
		return i, i + len(sub)
	}
	// Lowercasing changed byte lengths; compare rune windows instead.
	n := utf8.RuneCountInString(sub)
	for i := range s {
		end := i
		for k := 0; k < n && end < len(s); k++ {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
		}
		if strings.EqualFold(s[i:end], sub) {
			return i, end
		}
	}
	return -1, -1
}

// window returns s[from:to] clamped to the string and widened outward to
// rune boundaries.
func window(s string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(s) {
		to = len(s)
	}
	for from > 0 && !utf8.RuneStart(s[from]) {
		from--
	}
	for to < len(s) && !utf8.RuneStart(s[to]) {
		to++
	}
	if from >= to {
		return ""
	}
	return s[from:to]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
