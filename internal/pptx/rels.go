package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Relationship is one entry of a part's .rels file.
type Relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

type relationships struct {
	source string
	doc    *etree.Document
}

func newRelationships(source string) *relationships {
	doc := newXMLDocument()
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", nsPackageRels)
	return &relationships{source: source, doc: doc}
}

func (r *relationships) list() []Relationship {
	root := r.doc.Root()
	if root == nil {
		return nil
	}
	out := make([]Relationship, 0)
	for _, el := range children(root, "Relationship") {
		mode, _ := attr(el, "TargetMode")
		out = append(out, Relationship{
			ID:       el.SelectAttrValue("Id", ""),
			Type:     el.SelectAttrValue("Type", ""),
			Target:   el.SelectAttrValue("Target", ""),
			External: strings.EqualFold(mode, "External"),
		})
	}
	return out
}

func (r *relationships) byID(id string) (Relationship, bool) {
	for _, rel := range r.list() {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

func (r *relationships) firstOfType(relType string) (Relationship, bool) {
	for _, rel := range r.list() {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// resolve maps an internal relationship to the part name it points at.
func (r *relationships) resolve(rel Relationship) string {
	return resolveTarget(r.source, rel.Target)
}

func (r *relationships) nextID() string {
	used := make(map[string]struct{})
	for _, rel := range r.list() {
		used[rel.ID] = struct{}{}
	}
	for n := len(used) + 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if _, taken := used[id]; !taken {
			return id
		}
	}
}

func (r *relationships) add(relType string, target string) string {
	id := r.nextID()
	el := r.doc.Root().CreateElement("Relationship")
	el.CreateAttr("Id", id)
	el.CreateAttr("Type", relType)
	el.CreateAttr("Target", target)
	return id
}

func (r *relationships) remove(id string) {
	root := r.doc.Root()
	for _, el := range children(root, "Relationship") {
		if el.SelectAttrValue("Id", "") == id {
			root.RemoveChild(el)
		}
	}
}

// rels returns the relationships of part. A missing .rels file yields an
// empty set that is only persisted once passed to keepRels.
func (p *Presentation) rels(part string) (*relationships, error) {
	name := relsPartFor(part)
	if !p.has(name) {
		return newRelationships(part), nil
	}
	doc, err := p.doc(name)
	if err != nil {
		return nil, fmt.Errorf("read relationships of %s: %w", part, err)
	}
	return &relationships{source: part, doc: doc}, nil
}

func (p *Presentation) keepRels(r *relationships) {
	p.docs[relsPartFor(r.source)] = r.doc
}
