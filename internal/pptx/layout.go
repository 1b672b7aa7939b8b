package pptx

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
)

// Placeholder types as written in <p:ph type="...">. A placeholder without a
// type attribute is an object placeholder.
const (
	PlaceholderTitle       = "title"
	PlaceholderCenterTitle = "ctrTitle"
	PlaceholderSubtitle    = "subTitle"
	PlaceholderBody        = "body"
	PlaceholderObject      = "obj"
	PlaceholderDate        = "dt"
	PlaceholderFooter      = "ftr"
	PlaceholderSlideNumber = "sldNum"
	PlaceholderHeader      = "hdr"
)

// Placeholder describes one placeholder shape of a layout.
type Placeholder struct {
	Type  string
	Index int
	Name  string

	typeAttr string
	idxAttr  string
	hasIdx   bool
}

// Layout is a slide layout reachable from a slide master.
type Layout struct {
	Index        int
	Name         string
	Part         string
	Placeholders []Placeholder
}

// HasPlaceholder reports whether the layout carries a placeholder of any of
// the given types.
func (l *Layout) HasPlaceholder(types ...string) bool {
	for _, ph := range l.Placeholders {
		for _, t := range types {
			if ph.Type == t {
				return true
			}
		}
	}
	return false
}

func (p *Presentation) loadLayouts() error {
	presRels, err := p.rels(p.mainPart)
	if err != nil {
		return err
	}
	pres, err := p.doc(p.mainPart)
	if err != nil {
		return err
	}

	var masters []string
	for _, id := range children(child(pres.Root(), "sldMasterIdLst"), "sldMasterId") {
		if rel, ok := presRels.byID(relID(id)); ok {
			masters = append(masters, presRels.resolve(rel))
		}
	}

	p.layouts = nil
	seen := make(map[string]struct{})
	for _, master := range masters {
		parts, err := p.masterLayouts(master)
		if err != nil {
			return err
		}
		for _, part := range parts {
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			layout, err := p.parseLayout(part)
			if err != nil {
				return err
			}
			layout.Index = len(p.layouts)
			p.layouts = append(p.layouts, layout)
		}
	}
	return nil
}

// masterLayouts lists layout parts in sldLayoutIdLst order, falling back to
// relationship order when the list is absent.
func (p *Presentation) masterLayouts(master string) ([]string, error) {
	doc, err := p.doc(master)
	if err != nil {
		return nil, err
	}
	rels, err := p.rels(master)
	if err != nil {
		return nil, err
	}

	var parts []string
	if lst := child(doc.Root(), "sldLayoutIdLst"); lst != nil {
		for _, id := range children(lst, "sldLayoutId") {
			if rel, ok := rels.byID(relID(id)); ok && !rel.External {
				parts = append(parts, rels.resolve(rel))
			}
		}
		return parts, nil
	}
	for _, rel := range rels.list() {
		if rel.Type == relTypeSlideLayout && !rel.External {
			parts = append(parts, rels.resolve(rel))
		}
	}
	return parts, nil
}

func (p *Presentation) parseLayout(part string) (*Layout, error) {
	doc, err := p.doc(part)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", part, err)
	}
	cSld := child(doc.Root(), "cSld")
	layout := &Layout{Part: part}
	if cSld != nil {
		layout.Name, _ = attr(cSld, "name")
	}
	for _, sp := range descendants(walkPath(doc.Root(), "cSld", "spTree"), "sp") {
		if ph, ok := readPlaceholder(sp); ok {
			layout.Placeholders = append(layout.Placeholders, ph)
		}
	}
	return layout, nil
}

func readPlaceholder(sp *etree.Element) (Placeholder, bool) {
	nvSpPr := child(sp, "nvSpPr")
	ph := walkPath(nvSpPr, "nvPr", "ph")
	if ph == nil {
		return Placeholder{}, false
	}
	var out Placeholder
	out.typeAttr, _ = attr(ph, "type")
	out.Type = out.typeAttr
	if out.Type == "" {
		out.Type = PlaceholderObject
	}
	out.idxAttr, out.hasIdx = attr(ph, "idx")
	if out.hasIdx {
		out.Index, _ = strconv.Atoi(out.idxAttr)
	}
	if cNvPr := child(nvSpPr, "cNvPr"); cNvPr != nil {
		out.Name, _ = attr(cNvPr, "name")
	}
	return out, true
}

func (p *Presentation) loadSlides() error {
	pres, err := p.doc(p.mainPart)
	if err != nil {
		return err
	}
	presRels, err := p.rels(p.mainPart)
	if err != nil {
		return err
	}

	p.slides = nil
	for _, id := range children(child(pres.Root(), "sldIdLst"), "sldId") {
		rel, ok := presRels.byID(relID(id))
		if !ok {
			continue
		}
		part := presRels.resolve(rel)
		doc, err := p.doc(part)
		if err != nil {
			return err
		}
		slide := &Slide{deck: p, Part: part, doc: doc}
		slideRels, err := p.rels(part)
		if err != nil {
			return err
		}
		if lr, ok := slideRels.firstOfType(relTypeSlideLayout); ok {
			slide.Layout = p.layoutByPart(slideRels.resolve(lr))
		}
		p.slides = append(p.slides, slide)
	}
	return nil
}

func (p *Presentation) layoutByPart(part string) *Layout {
	for _, l := range p.layouts {
		if l.Part == part {
			return l
		}
	}
	return nil
}
