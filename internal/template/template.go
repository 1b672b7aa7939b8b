// Package template loads slide templates and reasons about their layouts.
package template

import (
	"os"
	"strings"
	"sync"

	"github.com/ElSrJuez/notare/internal/pptx"
)

// PlaceholderKind is the structural capability of a layout placeholder.
type PlaceholderKind uint8

const (
	KindTitle PlaceholderKind = 1 << iota
	KindBody
	KindOther
)

func (k PlaceholderKind) String() string {
	switch k {
	case KindTitle:
		return "TITLE"
	case KindBody:
		return "BODY"
	case KindOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// KindSet is a set of placeholder kinds.
type KindSet uint8

// Has reports whether k is in the set.
func (s KindSet) Has(k PlaceholderKind) bool {
	return uint8(s)&uint8(k) != 0
}

func (s KindSet) with(k PlaceholderKind) KindSet {
	return KindSet(uint8(s) | uint8(k))
}

// Kinds lists the members in TITLE, BODY, OTHER order.
func (s KindSet) Kinds() []PlaceholderKind {
	var out []PlaceholderKind
	for _, k := range []PlaceholderKind{KindTitle, KindBody, KindOther} {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s KindSet) String() string {
	kinds := s.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return "{" + strings.Join(names, ",") + "}"
}

func kindOf(placeholderType string) PlaceholderKind {
	switch placeholderType {
	case pptx.PlaceholderTitle, pptx.PlaceholderCenterTitle:
		return KindTitle
	case pptx.PlaceholderBody, pptx.PlaceholderObject, "":
		return KindBody
	default:
		return KindOther
	}
}

// LayoutDescriptor is a template layout reduced to its name and placeholder kinds.
type LayoutDescriptor struct {
	Index int
	Name  string
	Kinds KindSet

	layout *pptx.Layout
}

// Layout returns the underlying presentation layout.
func (d LayoutDescriptor) Layout() *pptx.Layout {
	return d.layout
}

func describe(l *pptx.Layout) LayoutDescriptor {
	d := LayoutDescriptor{Index: l.Index, Name: l.Name, layout: l}
	for _, ph := range l.Placeholders {
		d.Kinds = d.Kinds.with(kindOf(ph.Type))
	}
	return d
}

// Source values of a loaded Template.
const (
	SourceUpload    = "upload"
	SourceBuiltin   = "builtin"
	SourceDirectory = "directory"
)

// Template is a loaded presentation with its layouts described. It is owned
// by one request and must be closed when the request is done with it.
type Template struct {
	Deck    *pptx.Presentation
	Layouts []LayoutDescriptor
	Source  string
	Path    string

	tempPath  string
	closeOnce sync.Once
	closeErr  error
}

func newTemplate(deck *pptx.Presentation, source string) *Template {
	t := &Template{Deck: deck, Source: source}
	for _, l := range deck.Layouts() {
		t.Layouts = append(t.Layouts, describe(l))
	}
	return t
}

// LayoutNamed returns the first layout whose name matches exactly.
func (t *Template) LayoutNamed(name string) (LayoutDescriptor, bool) {
	for _, l := range t.Layouts {
		if l.Name == name {
			return l, true
		}
	}
	return LayoutDescriptor{}, false
}

// Close releases the staged copy of an uploaded template. It is safe to call
// more than once.
func (t *Template) Close() error {
	if t == nil {
		return nil
	}
	t.closeOnce.Do(func() {
		t.closeErr = removeStaged(t.tempPath)
	})
	return t.closeErr
}

func removeStaged(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
