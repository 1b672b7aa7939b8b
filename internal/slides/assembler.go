// Package slides populates a template with the slides of an outline.
package slides

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ElSrJuez/notare/internal/outline"
	"github.com/ElSrJuez/notare/internal/pptx"
	"github.com/ElSrJuez/notare/internal/template"
)

// Fallback frames used when a layout lacks the placeholder a text needs.
var (
	TitleFrame = pptx.Rect{X: 457200, Y: 274320, Width: 8229600, Height: 914400}
	BodyFrame  = pptx.Rect{X: 457200, Y: 1371600, Width: 8229600, Height: 4572000}
)

// BulletSize is the font size of bullet paragraphs in hundredths of a point.
const BulletSize = 1800

// Placement values reported per text target.
const (
	PlacedPlaceholder = "placeholder"
	PlacedTextBox     = "text_box"
	PlacedNone        = "none"
)

var (
	titleTypes          = []string{pptx.PlaceholderTitle, pptx.PlaceholderCenterTitle}
	bodyTypes           = []string{pptx.PlaceholderBody, pptx.PlaceholderObject}
	titleSlideBodyTypes = []string{pptx.PlaceholderSubtitle, pptx.PlaceholderBody, pptx.PlaceholderObject}
)

// SlideSummary records how one outline entry was laid out.
type SlideSummary struct {
	Index   int    `json:"index"`
	Role    string `json:"role"`
	Layout  string `json:"layout"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Bullets int    `json:"bullets"`
}

// Result is the populated deck and a summary per slide.
type Result struct {
	Deck   *pptx.Presentation
	Slides []SlideSummary
}

// Assembler writes outlines into template decks.
type Assembler struct {
	logger *zap.Logger
}

func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger}
}

// Build appends one slide per outline entry to t.Deck. Entry 0 uses
// titleLayout, the rest contentLayout. Outline content never causes an
// error; only a slide that cannot be created does.
func (a *Assembler) Build(o outline.Outline, t *template.Template, titleLayout, contentLayout template.LayoutDescriptor) (*Result, error) {
	res := &Result{Deck: t.Deck, Slides: make([]SlideSummary, 0, len(o.Slides))}
	for i, spec := range o.Slides {
		role, layout := template.RoleContent, contentLayout
		if i == 0 {
			role, layout = template.RoleTitle, titleLayout
		}

		slide, err := t.Deck.AddSlide(layout.Layout())
		if err != nil {
			return nil, &AssemblyError{Slide: i, Layout: layout.Name, Err: err}
		}

		summary := SlideSummary{
			Index:   i,
			Role:    role.String(),
			Layout:  layout.Name,
			Title:   writeTitle(slide, spec.Title),
			Bullets: len(spec.Bullets),
		}
		if role == template.RoleTitle {
			summary.Body = writeSubtitle(slide, spec.Bullets)
		} else {
			summary.Body = writeBullets(slide, spec.Bullets)
		}
		res.Slides = append(res.Slides, summary)

		a.logger.Debug("slide assembled",
			zap.Int("slide", i),
			zap.String("role", summary.Role),
			zap.String("layout", summary.Layout),
			zap.String("title_placement", summary.Title),
			zap.String("body_placement", summary.Body),
			zap.Int("bullets", summary.Bullets),
		)
	}
	return res, nil
}

// writeTitle always leaves the title visible on the slide.
func writeTitle(slide *pptx.Slide, title string) string {
	if sh := slide.Placeholder(titleTypes...); sh != nil {
		sh.SetText(title)
		return PlacedPlaceholder
	}
	slide.AddTextBox("Title", TitleFrame).SetText(title)
	return PlacedTextBox
}

// writeBullets fills the body of a content slide. A body is created even for
// an empty list so every content slide has one.
func writeBullets(slide *pptx.Slide, bullets []string) string {
	paras := paragraphs(bullets)
	if sh := slide.Placeholder(bodyTypes...); sh != nil {
		sh.SetParagraphs(paras)
		return PlacedPlaceholder
	}
	slide.AddTextBox("Content", BodyFrame).SetParagraphs(paras)
	return PlacedTextBox
}

// writeSubtitle places bullets of the opening slide under its title. With
// no bullets and no suitable placeholder nothing is added.
func writeSubtitle(slide *pptx.Slide, bullets []string) string {
	if sh := slide.Placeholder(titleSlideBodyTypes...); sh != nil {
		sh.SetParagraphs(paragraphs(bullets))
		return PlacedPlaceholder
	}
	if len(bullets) == 0 {
		return PlacedNone
	}
	slide.AddTextBox("Subtitle", BodyFrame).SetParagraphs(paragraphs(bullets))
	return PlacedTextBox
}

func paragraphs(bullets []string) []pptx.Paragraph {
	out := make([]pptx.Paragraph, 0, len(bullets))
	for _, b := range bullets {
		out = append(out, pptx.Paragraph{Text: b, Level: 0, Size: BulletSize})
	}
	return out
}

// AssemblyError reports a slide that could not be created.
type AssemblyError struct {
	Slide  int
	Layout string
	Err    error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble slide %d with layout %q: %v", e.Slide, e.Layout, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
