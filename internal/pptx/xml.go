package pptx

import (
	"path"
	"strings"

	"github.com/beevik/etree"
)

const (
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"

	relTypeOfficeDocument = nsRelationships + "/officeDocument"
	relTypeSlide          = nsRelationships + "/slide"
	relTypeSlideLayout    = nsRelationships + "/slideLayout"
	relTypeSlideMaster    = nsRelationships + "/slideMaster"
	relTypeNotesSlide     = nsRelationships + "/notesSlide"

	contentTypeSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	contentTypesPart = "[Content_Types].xml"
	rootRelsPart     = "_rels/.rels"

	xmlHeader = `version="1.0" encoding="UTF-8" standalone="yes"`
)

// child returns the first direct child with the given local name.
func child(e *etree.Element, local string) *etree.Element {
	if e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			return c
		}
	}
	return nil
}

func children(e *etree.Element, local string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == local {
			out = append(out, c)
		}
	}
	return out
}

// descendants walks e depth-first in document order.
func descendants(e *etree.Element, local string) []*etree.Element {
	if e == nil {
		return nil
	}
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(n *etree.Element) {
		for _, c := range n.ChildElements() {
			if c.Tag == local {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(e)
	return out
}

// walkPath follows direct children by local name.
func walkPath(e *etree.Element, locals ...string) *etree.Element {
	cur := e
	for _, l := range locals {
		cur = child(cur, l)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// relID returns the value of the namespaced id attribute (r:id) of e.
func relID(e *etree.Element) string {
	for _, a := range e.Attr {
		if a.Key == "id" && a.Space != "" {
			return a.Value
		}
	}
	return ""
}

func attr(e *etree.Element, key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Key == key && a.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}

// prefixFor finds the prefix bound to uri on root, declaring fallback when absent.
func prefixFor(root *etree.Element, uri string, fallback string) string {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == uri {
			return a.Key
		}
	}
	root.CreateAttr("xmlns:"+fallback, uri)
	return fallback
}

func qualify(prefix string, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", xmlHeader)
	return doc
}

func relsPartFor(part string) string {
	if part == "" {
		return rootRelsPart
	}
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

func resolveTarget(source string, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget expresses to relative to the directory holding from.
func relativeTarget(from string, to string) string {
	fromDir := strings.Split(path.Dir(from), "/")
	toParts := strings.Split(to, "/")

	i := 0
	for i < len(fromDir) && i < len(toParts)-1 && fromDir[i] == toParts[i] {
		i++
	}

	out := make([]string, 0, len(fromDir)-i+len(toParts)-i)
	for j := i; j < len(fromDir); j++ {
		if fromDir[j] == "." {
			continue
		}
		out = append(out, "..")
	}
	out = append(out, toParts[i:]...)
	return strings.Join(out, "/")
}

// cleanText drops runes that are not legal in XML 1.0 character data.
func cleanText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20:
			return -1
		case r >= 0xD800 && r <= 0xDFFF:
			return -1
		case r == 0xFFFE || r == 0xFFFF:
			return -1
		}
		return r
	}, s)
}
