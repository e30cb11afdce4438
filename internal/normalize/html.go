package normalize

import (
    "strings"

    "golang.org/x/net/html"
    "golang.org/x/text/unicode/norm"
)

// Block elements whose closing tag ends a line.
var closesLine = map[string]bool{
    "p": true, "div": true, "section": true, "article": true, "header": true,
    "footer": true, "li": true, "tr": true,
    "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Block elements whose opening tag starts a new line.
var opensLine = map[string]bool{
    "ul": true, "ol": true, "table": true, "thead": true, "tbody": true, "tr": true,
    "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// HTMLToText converts an HTML document into plain text in reading order.
// Image alt text becomes its own line, noscript fallbacks are kept, script
// and style bodies are dropped and block boundaries turn into newlines.
// Entities are decoded and whitespace is collapsed.
//
// Output is idempotent only when it holds no markup: an encoded "&lt;b&gt;"
// decodes to "<b>", which a second pass would read as a tag.
func HTMLToText(input string) string {
    var b strings.Builder
    collectText(&b, input)
    return Whitespace(norm.NFC.String(b.String()))
}

func collectText(b *strings.Builder, input string) {
    z := html.NewTokenizer(strings.NewReader(input))
    // raw holds the enclosing raw-text element (script, style, noscript),
    // whose body the tokenizer hands back as a single undecoded text token.
    raw := ""
    for {
        tt := z.Next()
        switch tt {
        case html.ErrorToken:
            return
        case html.TextToken:
            text := string(z.Text())
            switch raw {
            case "script", "style":
                continue
            case "noscript":
                // Some rosters only render inside the noscript fallback.
                collectText(b, text)
                continue
            }
            b.WriteString(text)
        case html.StartTagToken, html.SelfClosingTagToken:
            name, hasAttr := z.TagName()
            tag := string(name)
            if opensLine[tag] {
                b.WriteString("\n")
            }
            switch tag {
            case "script", "style", "noscript":
                if tt == html.StartTagToken {
                    raw = tag
                }
            case "br":
                b.WriteString("\n")
            case "img":
                if alt := altText(z, hasAttr); alt != "" {
                    b.WriteString("\n")
                    b.WriteString(alt)
                    b.WriteString("\n")
                }
            }
        case html.EndTagToken:
            name, _ := z.TagName()
            tag := string(name)
            if tag == raw {
                raw = ""
            }
            switch {
            case closesLine[tag] || tag == "br":
                b.WriteString("\n")
            case tag == "td" || tag == "th":
                b.WriteString(" ")
            }
        }
    }
}

func altText(z *html.Tokenizer, hasAttr bool) string {
    for hasAttr {
        var key, val []byte
        key, val, hasAttr = z.TagAttr()
        if strings.EqualFold(string(key), "alt") {
            return strings.TrimSpace(string(val))
        }
    }
    return ""
}

// Whitespace turns non-breaking spaces into spaces, collapses runs of
// spaces and tabs, trims every line and keeps at most one blank line
// between paragraphs.
func Whitespace(s string) string {
    s = strings.ReplaceAll(s, "\u00a0", " ")
    s = strings.ReplaceAll(s, "\r\n", "\n")
    s = strings.ReplaceAll(s, "\r", "\n")
    lines := strings.Split(s, "\n")
    out := make([]string, 0, len(lines))
    for _, line := range lines {
        trimmed := strings.TrimSpace(line)
        if trimmed == "" {
            // Keep at most one consecutive blank
            if len(out) == 0 || out[len(out)-1] == "" {
                continue
            }
            out = append(out, "")
            continue
        }
        out = append(out, collapseSpaces(trimmed))
    }
    for len(out) > 0 && out[len(out)-1] == "" {
        out = out[:len(out)-1]
    }
    return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' || r == '\f' || r == '\v' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}
