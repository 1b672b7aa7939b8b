// Package outline turns marked document text into a slide outline by asking a
// language model.
package outline

//go:generate mockgen -source=outline.go -destination=mocks/provider_mock.go -package=mocks Provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Marker tokens wrapped around highlighted spans in the text given to a provider.
const (
	MarkOpen  = "<<mark>>"
	MarkClose = "<</mark>>"
)

// Slide is one entry of an outline. Bullets carry no length bounds.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

// Outline is the ordered slide list produced for one request.
type Outline struct {
	Slides []Slide `json:"slides"`
}

// Provider generates an outline with a single outbound request.
type Provider interface {
	Name() string
	GenerateOutline(ctx context.Context, markedText string) (Outline, error)
}

var (
	errNoSlides        = errors.New("outline has no slides")
	errInvalidResponse = errors.New("provider response is not a valid outline")
)

// decode parses raw provider output into an Outline.
func decode(raw string) (Outline, error) {
	var o Outline
	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(&o); err != nil {
		return Outline{}, fmt.Errorf("%w: %v", errInvalidResponse, err)
	}
	return normalize(o)
}

func normalize(o Outline) (Outline, error) {
	if len(o.Slides) == 0 {
		return Outline{}, errNoSlides
	}
	for i := range o.Slides {
		if o.Slides[i].Bullets == nil {
			o.Slides[i].Bullets = []string{}
		}
	}
	return o, nil
}

// extractJSONObject trims text surrounding the first JSON object in s.
func extractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}
