package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var mentionPattern = regexp.MustCompile(`(?:^|[^\p{L}\p{N}_@])@([\p{L}\p{N}_][\p{L}\p{N}_.\-]*)`)

// Mentions returns the distinct @names in text in order of appearance.
// Text inside code and pre blocks is ignored.
func Mentions(text string) []string {
	names := []string{}
	if !strings.Contains(text, "@") {
		return names
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return names
	}
	doc.Find("code, pre").Remove()

	var chunks []string
	for _, n := range doc.Nodes {
		collectText(n, &chunks)
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		for _, m := range mentionPattern.FindAllStringSubmatch(chunk, -1) {
			name := strings.TrimRight(m[1], ".-")
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, name)
		}
	}
	return names
}

func collectText(n *html.Node, out *[]string) {
	if n.Type == html.TextNode {
		*out = append(*out, n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, out)
	}
}
