package pptx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrUnknownLayout is returned when AddSlide receives a layout that does not
// belong to the presentation.
var ErrUnknownLayout = errors.New("pptx: layout not part of this presentation")

// Rect is a shape frame in EMU.
type Rect struct {
	X, Y, Width, Height int64
}

// Paragraph is one line of text. Size is in hundredths of a point; zero
// inherits the placeholder size.
type Paragraph struct {
	Text  string
	Level int
	Size  int
}

// Slide is a slide part of the presentation.
type Slide struct {
	deck   *Presentation
	Part   string
	Layout *Layout
	doc    *etree.Document
}

// Shape wraps a <p:sp> element of a slide.
type Shape struct {
	el *etree.Element
}

// skippedPlaceholders are layout placeholders not copied onto new slides.
var skippedPlaceholders = map[string]struct{}{
	PlaceholderDate:        {},
	PlaceholderFooter:      {},
	PlaceholderSlideNumber: {},
	PlaceholderHeader:      {},
}

// AddSlide appends a slide built from layout. Title and body placeholders
// of the layout are instantiated as empty shapes on the slide.
func (p *Presentation) AddSlide(layout *Layout) (*Slide, error) {
	if layout == nil || p.layoutByPart(layout.Part) != layout {
		return nil, ErrUnknownLayout
	}

	part := p.nextSlidePart()
	doc := newXMLDocument()
	root := doc.CreateElement("p:sld")
	root.CreateAttr("xmlns:a", nsDrawing)
	root.CreateAttr("xmlns:r", nsRelationships)
	root.CreateAttr("xmlns:p", nsPresentation)
	spTree := root.CreateElement("p:cSld").CreateElement("p:spTree")
	grp := spTree.CreateElement("p:nvGrpSpPr")
	cNvPr := grp.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	grp.CreateElement("p:cNvGrpSpPr")
	grp.CreateElement("p:nvPr")
	spTree.CreateElement("p:grpSpPr")
	root.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")

	slide := &Slide{deck: p, Part: part, Layout: layout, doc: doc}
	for _, ph := range layout.Placeholders {
		if _, skip := skippedPlaceholders[ph.Type]; skip {
			continue
		}
		slide.addPlaceholder(ph)
	}

	slideRels := newRelationships(part)
	slideRels.add(relTypeSlideLayout, relativeTarget(part, layout.Part))
	p.docs[part] = doc
	p.keepRels(slideRels)
	p.addOverride(part, contentTypeSlide)

	if err := p.registerSlide(part); err != nil {
		p.deletePart(part)
		return nil, err
	}
	p.slides = append(p.slides, slide)
	return slide, nil
}

// registerSlide links part from the presentation and appends it to sldIdLst.
func (p *Presentation) registerSlide(part string) error {
	pres, err := p.doc(p.mainPart)
	if err != nil {
		return err
	}
	presRels, err := p.rels(p.mainPart)
	if err != nil {
		return err
	}
	root := pres.Root()
	rid := presRels.add(relTypeSlide, relativeTarget(p.mainPart, part))
	p.keepRels(presRels)

	lst := child(root, "sldIdLst")
	if lst == nil {
		lst = etree.NewElement(qualify(root.Space, "sldIdLst"))
		at := 0
		for _, name := range []string{"sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst"} {
			if el := child(root, name); el != nil && el.Index()+1 > at {
				at = el.Index() + 1
			}
		}
		root.InsertChildAt(at, lst)
	}

	next := 255
	for _, existing := range children(lst, "sldId") {
		if v, ok := attr(existing, "id"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > next {
				next = n
			}
		}
	}
	rPrefix := prefixFor(root, nsRelationships, "r")
	sldID := lst.CreateElement(qualify(root.Space, "sldId"))
	sldID.CreateAttr("id", strconv.Itoa(next+1))
	sldID.CreateAttr(qualify(rPrefix, "id"), rid)
	return nil
}

func (s *Slide) spTree() *etree.Element {
	return walkPath(s.doc.Root(), "cSld", "spTree")
}

func (s *Slide) nextShapeID() int {
	highest := 1
	for _, c := range descendants(s.doc.Root(), "cNvPr") {
		if v, ok := attr(c, "id"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > highest {
				highest = n
			}
		}
	}
	return highest + 1
}

func (s *Slide) addPlaceholder(ph Placeholder) *Shape {
	id := s.nextShapeID()
	sp := s.spTree().CreateElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	name := ph.Name
	if name == "" {
		name = fmt.Sprintf("Placeholder %d", id-1)
	}
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("p:cNvSpPr").CreateElement("a:spLocks").CreateAttr("noGrp", "1")
	phEl := nv.CreateElement("p:nvPr").CreateElement("p:ph")
	if ph.typeAttr != "" {
		phEl.CreateAttr("type", ph.typeAttr)
	}
	if ph.hasIdx {
		phEl.CreateAttr("idx", ph.idxAttr)
	}
	sp.CreateElement("p:spPr")
	body := sp.CreateElement("p:txBody")
	body.CreateElement("a:bodyPr")
	body.CreateElement("a:lstStyle")
	appendEmptyParagraph(body)
	return &Shape{el: sp}
}

// AddTextBox adds a free text box at r.
func (s *Slide) AddTextBox(name string, r Rect) *Shape {
	id := s.nextShapeID()
	sp := s.spTree().CreateElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("p:cNvSpPr").CreateAttr("txBox", "1")
	nv.CreateElement("p:nvPr")

	spPr := sp.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(r.X, 10))
	off.CreateAttr("y", strconv.FormatInt(r.Y, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(r.Width, 10))
	ext.CreateAttr("cy", strconv.FormatInt(r.Height, 10))
	geom := spPr.CreateElement("a:prstGeom")
	geom.CreateAttr("prst", "rect")
	geom.CreateElement("a:avLst")
	spPr.CreateElement("a:noFill")

	body := sp.CreateElement("p:txBody")
	bodyPr := body.CreateElement("a:bodyPr")
	bodyPr.CreateAttr("wrap", "square")
	bodyPr.CreateAttr("rtlCol", "0")
	bodyPr.CreateElement("a:spAutoFit")
	body.CreateElement("a:lstStyle")
	appendEmptyParagraph(body)
	return &Shape{el: sp}
}

// Shapes returns every top-level shape of the slide.
func (s *Slide) Shapes() []*Shape {
	var out []*Shape
	for _, sp := range children(s.spTree(), "sp") {
		out = append(out, &Shape{el: sp})
	}
	return out
}

// Placeholder returns the first placeholder shape whose type is one of types.
func (s *Slide) Placeholder(types ...string) *Shape {
	for _, sh := range s.Shapes() {
		t := sh.PlaceholderType()
		if t == "" {
			continue
		}
		for _, want := range types {
			if t == want {
				return sh
			}
		}
	}
	return nil
}

// Name returns the shape's cNvPr name.
func (sh *Shape) Name() string {
	if c := walkPath(sh.el, "nvSpPr", "cNvPr"); c != nil {
		v, _ := attr(c, "name")
		return v
	}
	return ""
}

// PlaceholderType returns the placeholder type, or "" for ordinary shapes.
func (sh *Shape) PlaceholderType() string {
	ph := walkPath(sh.el, "nvSpPr", "nvPr", "ph")
	if ph == nil {
		return ""
	}
	if t, _ := attr(ph, "type"); t != "" {
		return t
	}
	return PlaceholderObject
}

// IsTextBox reports whether the shape is a free text box.
func (sh *Shape) IsTextBox() bool {
	c := walkPath(sh.el, "nvSpPr", "cNvSpPr")
	if c == nil {
		return false
	}
	v, _ := attr(c, "txBox")
	return v == "1" || v == "true"
}

// Frame returns the explicit position of the shape, if any.
func (sh *Shape) Frame() (Rect, bool) {
	xfrm := walkPath(sh.el, "spPr", "xfrm")
	off, ext := child(xfrm, "off"), child(xfrm, "ext")
	if off == nil || ext == nil {
		return Rect{}, false
	}
	parse := func(e *etree.Element, key string) int64 {
		v, _ := attr(e, key)
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return Rect{
		X:      parse(off, "x"),
		Y:      parse(off, "y"),
		Width:  parse(ext, "cx"),
		Height: parse(ext, "cy"),
	}, true
}

// SetText replaces the shape's text with a single paragraph.
func (sh *Shape) SetText(text string) {
	sh.SetParagraphs([]Paragraph{{Text: text}})
}

// SetParagraphs replaces the shape's text. An empty list leaves the shape
// with one empty terminating paragraph.
func (sh *Shape) SetParagraphs(paras []Paragraph) {
	body := child(sh.el, "txBody")
	if body == nil {
		body = sh.el.CreateElement("p:txBody")
		body.CreateElement("a:bodyPr")
		body.CreateElement("a:lstStyle")
	}
	for _, p := range children(body, "p") {
		body.RemoveChild(p)
	}
	if len(paras) == 0 {
		appendEmptyParagraph(body)
		return
	}
	for _, para := range paras {
		p := body.CreateElement("a:p")
		p.CreateElement("a:pPr").CreateAttr("lvl", strconv.Itoa(para.Level))
		r := p.CreateElement("a:r")
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "en-US")
		if para.Size > 0 {
			rPr.CreateAttr("sz", strconv.Itoa(para.Size))
		}
		rPr.CreateAttr("dirty", "0")
		r.CreateElement("a:t").SetText(cleanText(para.Text))
	}
}

// Paragraphs returns the text of each paragraph that carries at least one
// run or field. Empty terminating paragraphs are not reported.
func (sh *Shape) Paragraphs() []string {
	var out []string
	for _, p := range children(child(sh.el, "txBody"), "p") {
		runs := 0
		var b strings.Builder
		for _, c := range p.ChildElements() {
			switch c.Tag {
			case "r", "fld":
				runs++
				if t := child(c, "t"); t != nil {
					b.WriteString(t.Text())
				}
			case "br":
				b.WriteString("\n")
			}
		}
		if runs > 0 {
			out = append(out, b.String())
		}
	}
	return out
}

// Text joins the shape's paragraphs with newlines.
func (sh *Shape) Text() string {
	return strings.Join(sh.Paragraphs(), "\n")
}

func appendEmptyParagraph(body *etree.Element) {
	end := body.CreateElement("a:p").CreateElement("a:endParaRPr")
	end.CreateAttr("lang", "en-US")
	end.CreateAttr("dirty", "0")
}

func (p *Presentation) contentTypes() (*etree.Element, error) {
	doc, err := p.doc(contentTypesPart)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: empty %s", ErrNotPresentation, contentTypesPart)
	}
	return doc.Root(), nil
}

func (p *Presentation) addOverride(part string, contentType string) {
	root, err := p.contentTypes()
	if err != nil {
		return
	}
	p.removeOverride(part)
	el := root.CreateElement("Override")
	el.CreateAttr("PartName", "/"+part)
	el.CreateAttr("ContentType", contentType)
}

func (p *Presentation) removeOverride(part string) {
	root, err := p.contentTypes()
	if err != nil {
		return
	}
	for _, el := range children(root, "Override") {
		if strings.TrimPrefix(el.SelectAttrValue("PartName", ""), "/") == part {
			root.RemoveChild(el)
		}
	}
}

// ContentType returns the override content type registered for part.
func (p *Presentation) ContentType(part string) string {
	root, err := p.contentTypes()
	if err != nil {
		return ""
	}
	for _, el := range children(root, "Override") {
		if strings.TrimPrefix(el.SelectAttrValue("PartName", ""), "/") == part {
			return el.SelectAttrValue("ContentType", "")
		}
	}
	return ""
}
