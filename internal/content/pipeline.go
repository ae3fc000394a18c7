// Package content turns user supplied post text into sanitized HTML with a
// preview part, and extracts @name mentions from it.
package content

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/community-blog-api/internal/config"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Format is the markup language of raw input
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates s, falling back to def when s is empty
func ParseFormat(s string, def Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case FormatHTML:
		return FormatHTML, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Pipeline sanitizes, renders and cuts post text
type Pipeline struct {
	policy        *bluemonday.Policy
	markdown      goldmark.Markdown
	previewLength int
	defaultFormat Format
}

// New builds a pipeline from the configured allow-lists
func New(cfg config.ContentConfig) *Pipeline {
	return &Pipeline{
		policy:        newPolicy(cfg.AllowedTags, cfg.AllowedAttrs),
		markdown:      newMarkdown(),
		previewLength: cfg.PreviewLength,
		defaultFormat: Format(cfg.DefaultFormat),
	}
}

func newPolicy(tags, attrs []string) *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(tags...)
	if len(attrs) > 0 {
		p.AllowAttrs(attrs...).Globally()
	}
	for _, a := range attrs {
		if a == "href" || a == "src" {
			p.AllowStandardURLs()
			p.RequireNoFollowOnLinks(false)
			break
		}
	}
	return p
}

// Raw HTML passes through goldmark untouched; the sanitizer runs afterwards.
func newMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithUnsafe(),
		),
	)
}

// DefaultFormat returns the format assumed for requests without one
func (p *Pipeline) DefaultFormat() Format {
	return p.defaultFormat
}

// Parse strips every tag and attribute outside the allow-lists
func (p *Pipeline) Parse(text string) string {
	return strings.TrimSpace(p.policy.Sanitize(text))
}

// Render converts raw input of the given format to HTML
func (p *Pipeline) Render(raw string, format Format) (string, error) {
	if format != FormatMarkdown {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := p.markdown.Convert([]byte(raw), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return buf.String(), nil
}

// SetText renders raw input and splits it into sanitized preview and full
// text. The cut marker is not on the allow-list, so the split happens on the
// rendered text and each half is sanitized afterwards.
func (p *Pipeline) SetText(raw string, format Format) (preview, full string, err error) {
	rendered, err := p.Render(raw, format)
	if err != nil {
		return "", "", err
	}

	if !HasCut(rendered) {
		full = p.Parse(rendered)
		return Truncate(full, p.previewLength), full, nil
	}

	head, whole := p.Cut(rendered)
	return strings.TrimSpace(Truncate(p.Parse(head), -1)), p.Parse(whole), nil
}
