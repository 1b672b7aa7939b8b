// Package pptx reads, edits and writes PresentationML packages.
//
// Only the parts needed to add text slides are interpreted. Every other part
// of the package is carried through byte for byte.
package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/klauspost/compress/zip"
)

var (
	// ErrNotPresentation is returned when a package has no presentation part.
	ErrNotPresentation = errors.New("pptx: not a presentation package")
	// ErrPackageTooLarge is returned when the expanded package exceeds MaxExpandedBytes.
	ErrPackageTooLarge = errors.New("pptx: expanded package too large")
)

// MaxExpandedBytes bounds the total uncompressed size of a package.
const MaxExpandedBytes int64 = 256 << 20

var slidePartPattern = regexp.MustCompile(`slides/slide(\d+)\.xml$`)

// Presentation is an in-memory PresentationML package.
type Presentation struct {
	parts    map[string][]byte
	docs     map[string]*etree.Document
	mainPart string
	layouts  []*Layout
	slides   []*Slide
}

// Open reads the package stored in the named file.
func Open(name string) (*Presentation, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	defer r.Close()
	return fromZip(&r.Reader)
}

// Read reads a package from r.
func Read(r io.ReaderAt, size int64) (*Presentation, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	return fromZip(zr)
}

// ReadBytes reads a package held in memory.
func ReadBytes(data []byte) (*Presentation, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

// New returns the built-in deck: a 4:3 package with one master and the
// standard Title Slide, Title and Content, Section Header, Title Only and
// Blank layouts.
func New() (*Presentation, error) {
	return load(defaultDeckParts())
}

func fromZip(zr *zip.Reader) (*Presentation, error) {
	files := make(map[string][]byte, len(zr.File))
	var total int64
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		total += int64(f.UncompressedSize64)
		if total > MaxExpandedBytes {
			return nil, ErrPackageTooLarge
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(io.LimitReader(rc, MaxExpandedBytes+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %s: %w", f.Name, err)
		}
		files[f.Name] = data
	}
	return load(files)
}

func load(files map[string][]byte) (*Presentation, error) {
	p := &Presentation{
		parts: files,
		docs:  make(map[string]*etree.Document),
	}
	if !p.has(contentTypesPart) {
		return nil, fmt.Errorf("%w: missing %s", ErrNotPresentation, contentTypesPart)
	}

	rootRels, err := p.rels("")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	office, ok := rootRels.firstOfType(relTypeOfficeDocument)
	if !ok {
		return nil, fmt.Errorf("%w: no officeDocument relationship", ErrNotPresentation)
	}
	p.mainPart = rootRels.resolve(office)

	pres, err := p.doc(p.mainPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPresentation, err)
	}
	if pres.Root() == nil || pres.Root().Tag != "presentation" {
		return nil, fmt.Errorf("%w: %s is not a presentation part", ErrNotPresentation, p.mainPart)
	}

	if err := p.loadLayouts(); err != nil {
		return nil, err
	}
	if err := p.loadSlides(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Presentation) has(name string) bool {
	if _, ok := p.docs[name]; ok {
		return true
	}
	_, ok := p.parts[name]
	return ok
}

// doc returns the parsed XML of a part, parsing it on first use.
func (p *Presentation) doc(name string) (*etree.Document, error) {
	if d, ok := p.docs[name]; ok {
		return d, nil
	}
	raw, ok := p.parts[name]
	if !ok {
		return nil, fmt.Errorf("part %s not found", name)
	}
	d := etree.NewDocument()
	if err := d.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	p.docs[name] = d
	return d, nil
}

func (p *Presentation) deletePart(name string) {
	delete(p.parts, name)
	delete(p.docs, name)
	delete(p.parts, relsPartFor(name))
	delete(p.docs, relsPartFor(name))
	p.removeOverride(name)
}

// Layouts returns the slide layouts in master order.
func (p *Presentation) Layouts() []*Layout {
	return p.layouts
}

// Slides returns the slides in presentation order.
func (p *Presentation) Slides() []*Slide {
	return p.slides
}

// PartNames lists every part currently in the package.
func (p *Presentation) PartNames() []string {
	seen := make(map[string]struct{}, len(p.parts)+len(p.docs))
	for name := range p.parts {
		seen[name] = struct{}{}
	}
	for name := range p.docs {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RemoveSlides deletes every slide together with its notes, relationships,
// content-type overrides and any section or custom-show references to it.
func (p *Presentation) RemoveSlides() error {
	pres, err := p.doc(p.mainPart)
	if err != nil {
		return err
	}
	root := pres.Root()
	presRels, err := p.rels(p.mainPart)
	if err != nil {
		return err
	}

	if lst := child(root, "sldIdLst"); lst != nil {
		for _, sldID := range children(lst, "sldId") {
			id := relID(sldID)
			rel, ok := presRels.byID(id)
			if !ok {
				continue
			}
			if err := p.removeSlidePart(presRels.resolve(rel)); err != nil {
				return err
			}
			presRels.remove(id)
		}
		root.RemoveChild(lst)
	}

	// Dangling slide relationships are dropped as well.
	for _, rel := range presRels.list() {
		if rel.Type == relTypeSlide {
			if err := p.removeSlidePart(presRels.resolve(rel)); err != nil {
				return err
			}
			presRels.remove(rel.ID)
		}
	}

	if custShows := child(root, "custShowLst"); custShows != nil {
		root.RemoveChild(custShows)
	}
	if ext := child(root, "extLst"); ext != nil {
		for _, section := range descendants(ext, "sldIdLst") {
			for _, ref := range section.ChildElements() {
				section.RemoveChild(ref)
			}
		}
	}

	p.slides = nil
	return nil
}

func (p *Presentation) removeSlidePart(part string) error {
	if p.has(relsPartFor(part)) {
		slideRels, err := p.rels(part)
		if err != nil {
			return err
		}
		for _, rel := range slideRels.list() {
			if rel.Type == relTypeNotesSlide && !rel.External {
				p.deletePart(slideRels.resolve(rel))
			}
		}
	}
	p.deletePart(part)
	return nil
}

func (p *Presentation) nextSlidePart() string {
	highest := 0
	for _, name := range p.PartNames() {
		m := slidePartPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return path.Join(path.Dir(p.mainPart), "slides", fmt.Sprintf("slide%d.xml", highest+1))
}

// Save writes the package as a zip archive.
func (p *Presentation) Save(w io.Writer) error {
	for name, d := range p.docs {
		data, err := d.WriteToBytes()
		if err != nil {
			return fmt.Errorf("serialize %s: %w", name, err)
		}
		p.parts[name] = data
	}

	names := make([]string, 0, len(p.parts))
	for name := range p.parts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return partOrder(names[i]) < partOrder(names[j]) ||
			(partOrder(names[i]) == partOrder(names[j]) && names[i] < names[j])
	})

	zw := zip.NewWriter(w)
	modified := time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, name := range names {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return fmt.Errorf("write part %s: %w", name, err)
		}
	}
	return zw.Close()
}

// Bytes returns the serialized package.
func (p *Presentation) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile writes the package to the named file.
func (p *Presentation) SaveFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := p.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func partOrder(name string) int {
	switch name {
	case contentTypesPart:
		return 0
	case rootRelsPart:
		return 1
	}
	return 2
}
