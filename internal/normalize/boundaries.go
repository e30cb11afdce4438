package normalize

import "regexp"

// sectionHeaderRe matches roster section headers that are not already at the
// start of a line. The preceding character is captured so the replacement
// can put a line break between it and the header.
var sectionHeaderRe = regexp.MustCompile(`(?i)([^\n])[ \t]*\b(Headshot of|Class of \d{4}|Categorical Residents|Preliminary Residents|Meet (?:The|Our) Residents|Current Residents|Chief Residents|PGY[ \t–-]?[1-5]\b)`)

// ForChunking starts a new line before recognized roster section headers so
// chunk boundaries fall between people rather than inside an entry.
func ForChunking(text string) string {
    out := sectionHeaderRe.ReplaceAllString(text, "$1\n$2")
    return Whitespace(out)
}
