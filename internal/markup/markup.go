// Package markup renders an annotated HTML or Markdown document as line
// oriented text in which highlighted spans are wrapped in marker tokens.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"

	"github.com/ElSrJuez/notare/internal/outline"
)

// Format names the syntax of an incoming document.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

var ErrUnknownFormat = errors.New("unknown document format")

// ParseFormat maps a request value to a Format. Empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Elements dropped with their whole subtree before the walk.
var removedSelector = strings.Join([]string{
	"script", "style", "noscript", "template", "form", "input", "button", "select",
	"textarea", "iframe", "object", "embed", "svg", "canvas", "head",
}, ", ")

const highlightSelector = "mark, .notare-mark, [data-highlighted=\"true\"]"

// Converter is safe for concurrent use.
type Converter struct {
	md goldmark.Markdown
}

func NewConverter() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// Convert never fails: subtrees that cannot be rendered are dropped.
func (c *Converter) Convert(src string, format Format) string {
	if format == FormatMarkdown {
		return c.ConvertMarkdown(src)
	}
	return ConvertHTML(src)
}

// ConvertMarkdown renders src through goldmark with raw HTML kept, so inline
// <mark> tags survive, then converts the result.
func (c *Converter) ConvertMarkdown(src string) string {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(src), &buf); err != nil {
		return collapseText(stripMarkers(src))
	}
	return ConvertHTML(buf.String())
}

// ConvertHTML renders an HTML document or fragment.
func ConvertHTML(src string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return collapseText(stripMarkers(fallbackText(src)))
	}
	doc.Find(removedSelector).Remove()

	highlighted := make(map[*html.Node]bool)
	doc.Find(highlightSelector).Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			highlighted[n] = true
		}
	})

	w := &writer{highlighted: highlighted}
	for _, n := range doc.Nodes {
		w.walk(n)
	}
	// The walk emits sentinels; marker tokens spelled out by adjacent text
	// nodes are removed before the sentinels become real markers.
	out := emptySpan.ReplaceAllString(stripMarkers(w.finish()), "$1")
	return markerReplacer.Replace(out)
}

// Private use code points stand in for markers while rendering.
const (
	sentinelOpen  = "\uE000"
	sentinelClose = "\uE001"
)

var (
	emptySpan        = regexp.MustCompile("\uE000(\\s*)\uE001")
	markerReplacer   = strings.NewReplacer(sentinelOpen, outline.MarkOpen, sentinelClose, outline.MarkClose)
	sentinelStripper = strings.NewReplacer(sentinelOpen, "", sentinelClose, "")
)

// stripMarkers removes marker tokens present in source text. Removal repeats
// because deleting one token can join the halves of another.
func stripMarkers(s string) string {
	for strings.Contains(s, outline.MarkOpen) || strings.Contains(s, outline.MarkClose) {
		s = strings.ReplaceAll(s, outline.MarkOpen, "")
		s = strings.ReplaceAll(s, outline.MarkClose, "")
	}
	return s
}

func collapseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// fallbackText keeps only the text tokens of src.
func fallbackText(src string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
			b.WriteByte(' ')
		}
	}
}
