package markup

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

type listState struct {
	ordered bool
	next    int
}

// writer accumulates rendered lines. Inline text is whitespace collapsed
// outside <pre>; block elements are separated by one blank line.
type writer struct {
	highlighted map[*html.Node]bool

	lines     []string
	line      strings.Builder
	started   bool
	hasText   bool
	needSpace bool
	needBlank bool

	quoteDepth int
	lists      []listState
	itemPrefix string
	heading    string
	pre        int

	highlight int
	markOpen  bool
}

func (w *writer) walk(n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		w.children(n)
	case html.ElementNode:
		w.element(n)
	case html.TextNode:
		w.text(sentinelStripper.Replace(stripMarkers(n.Data)))
	}
}

func (w *writer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *writer) element(n *html.Node) {
	hl := w.highlighted[n]
	if hl {
		w.highlight++
	}

	switch tag := n.Data; tag {
	case "br":
		w.newline()
	case "hr":
		w.block()
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(tag[1:])
		w.block()
		w.heading = strings.Repeat("#", level) + " "
		w.children(n)
		w.newline()
		w.heading = ""
		w.block()
	case "ul", "ol":
		w.block()
		w.lists = append(w.lists, listState{ordered: tag == "ol", next: listStart(n)})
		w.children(n)
		w.newline()
		w.lists = w.lists[:len(w.lists)-1]
		w.block()
	case "li":
		w.newline()
		w.itemPrefix = w.nextItemPrefix()
		w.children(n)
		w.newline()
		w.itemPrefix = ""
	case "blockquote":
		w.block()
		w.quoteDepth++
		w.children(n)
		w.newline()
		w.quoteDepth--
		w.block()
	case "pre":
		w.block()
		w.pre++
		w.children(n)
		w.pre--
		w.block()
	case "tr":
		w.newline()
		w.children(n)
		w.newline()
	case "td", "th":
		if w.hasText {
			w.needSpace = false
			w.line.WriteString(" | ")
		}
		w.children(n)
	case "p", "div", "section", "article", "main", "header", "footer", "nav", "aside",
		"figure", "figcaption", "address", "table", "dl", "dt", "dd", "details", "summary":
		w.block()
		w.children(n)
		w.block()
	default:
		w.children(n)
	}

	if hl {
		w.highlight--
		if w.highlight == 0 {
			w.closeMark()
		}
	}
}

func listStart(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key == "start" {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil {
				return v
			}
		}
	}
	return 1
}

func (w *writer) nextItemPrefix() string {
	if len(w.lists) == 0 {
		return "- "
	}
	top := &w.lists[len(w.lists)-1]
	indent := strings.Repeat("  ", len(w.lists)-1)
	if !top.ordered {
		return indent + "- "
	}
	p := indent + strconv.Itoa(top.next) + ". "
	top.next++
	return p
}

func (w *writer) text(s string) {
	if w.pre > 0 {
		w.preformatted(s)
		return
	}
	if s == "" {
		return
	}
	if isSpace(s[0]) {
		w.needSpace = true
	}
	for _, f := range strings.Fields(s) {
		w.word(f)
		w.needSpace = true
	}
	if !isSpace(s[len(s)-1]) {
		w.needSpace = false
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f'
}

func (w *writer) word(s string) {
	w.start()
	if w.needSpace && w.hasText {
		w.line.WriteByte(' ')
	}
	w.needSpace = false
	w.openMark()
	w.line.WriteString(s)
	w.hasText = true
}

func (w *writer) preformatted(s string) {
	for i, seg := range strings.Split(s, "\n") {
		if i > 0 {
			if !w.hasText {
				w.needBlank = true
			}
			w.newline()
		}
		w.start()
		if strings.TrimSpace(seg) == "" {
			w.line.WriteString(seg)
			continue
		}
		w.openMark()
		w.line.WriteString(strings.TrimRight(seg, "\r"))
		w.hasText = true
	}
}

func (w *writer) start() {
	if w.started {
		return
	}
	w.started = true
	w.line.WriteString(strings.Repeat("> ", w.quoteDepth))
	switch {
	case w.itemPrefix != "":
		w.line.WriteString(w.itemPrefix)
		w.itemPrefix = ""
	case len(w.lists) > 0:
		w.line.WriteString(strings.Repeat("  ", len(w.lists)))
	}
	w.line.WriteString(w.heading)
}

func (w *writer) openMark() {
	if w.highlight > 0 && !w.markOpen {
		w.line.WriteString(sentinelOpen)
		w.markOpen = true
	}
}

func (w *writer) closeMark() {
	if w.markOpen {
		w.line.WriteString(sentinelClose)
		w.markOpen = false
	}
}

// newline ends the current line. An open marker is closed here and reopened
// on the next line that carries text.
func (w *writer) newline() {
	w.closeMark()
	if w.hasText {
		if w.needBlank && len(w.lines) > 0 {
			w.lines = append(w.lines, "")
		}
		w.needBlank = false
		w.lines = append(w.lines, strings.TrimRight(w.line.String(), " \t"))
	}
	w.line.Reset()
	w.started = false
	w.hasText = false
	w.needSpace = false
}

// block ends the line and asks for a blank separator, except inside lists
// where items stay on consecutive lines.
func (w *writer) block() {
	w.newline()
	if len(w.lists) == 0 {
		w.needBlank = true
	}
}

func (w *writer) finish() string {
	w.newline()
	return strings.Join(w.lines, "\n")
}
