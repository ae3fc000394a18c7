package content

import (
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	cutMarker = regexp.MustCompile(`(?i)<cut\s*/?>`)
	cutClose  = regexp.MustCompile(`(?i)</cut>`)
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Cut splits text at the first cut marker. Without a marker the
// preview is the text truncated after the configured number of visible runes.
// Open tags in the preview are always closed.
func (p *Pipeline) Cut(text string) (preview, full string) {
	full = stripMarkers(text)
	if loc := cutMarker.FindStringIndex(text); loc != nil {
		head := cutClose.ReplaceAllString(text[:loc[0]], "")
		return strings.TrimSpace(Truncate(head, -1)), full
	}
	return Truncate(full, p.previewLength), full
}

// HasCut reports whether text carries a cut marker
func HasCut(text string) bool {
	return cutMarker.MatchString(text)
}

func stripMarkers(text string) string {
	return cutClose.ReplaceAllString(cutMarker.ReplaceAllString(text, ""), "")
}

// Truncate keeps at most limit visible runes of s, ending at a word boundary,
// and closes any tags left open. A negative limit only balances tags.
func Truncate(s string, limit int) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	var open []string
	count := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return s
			}
			closeTags(&b, open)
			return b.String()

		case html.TextToken:
			raw := z.Raw()
			text := html.UnescapeString(string(raw))
			n := utf8.RuneCountInString(text)
			if limit < 0 || count+n <= limit {
				b.Write(raw)
				count += n
				continue
			}
			b.WriteString(html.EscapeString(cutWords(text, limit-count)))
			closeTags(&b, open)
			return b.String()

		case html.StartTagToken:
			name, _ := z.TagName()
			b.Write(z.Raw())
			if !voidElements[string(name)] {
				open = append(open, string(name))
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] == string(name) {
					closeTags(&b, open[i+1:])
					b.Write(z.Raw())
					open = open[:i]
					break
				}
			}

		default:
			b.Write(z.Raw())
		}
	}
}

func closeTags(b *strings.Builder, open []string) {
	for i := len(open) - 1; i >= 0; i-- {
		b.WriteString("</")
		b.WriteString(open[i])
		b.WriteString(">")
	}
}

// cutWords keeps at most n runes of text, backing off to the last space
func cutWords(text string, n int) string {
	runes := []rune(text)
	if n <= 0 {
		return ""
	}
	if len(runes) <= n {
		return text
	}
	cut := runes[:n]
	if !unicode.IsSpace(runes[n]) {
		for i := len(cut) - 1; i > 0; i-- {
			if unicode.IsSpace(cut[i]) {
				cut = cut[:i]
				break
			}
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace)
}
