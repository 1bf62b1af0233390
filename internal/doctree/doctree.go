package doctree

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/dgallion1/mdpage/internal/blocks"
)

// NodeRef is a handle into a Tree's node arena.
type NodeRef int

const noRef NodeRef = -1

// minHeadingLines is the heading count, synthetic title included, a document
// must exceed before it gets a table of contents.
const minHeadingLines = 2

// Heading is one node of the outline.
type Heading struct {
	RawLine       string    // marker line as written
	Level         int       // 1..6
	Text          string    // heading text without markers
	SlugID        string    // lowercase, spaces as hyphens
	SlugIDEncoded string    // fragment-safe form of SlugID
	Children      []NodeRef // in document order
}

// Tree is a heading outline. Nodes live in an arena and refer to their
// children by index.
type Tree struct {
	nodes []Heading
	roots []NodeRef
}

// Len returns the number of headings in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Empty reports whether the tree has no headings.
func (t *Tree) Empty() bool { return len(t.nodes) == 0 }

// Roots returns the level-1 nodes.
func (t *Tree) Roots() []NodeRef { return t.roots }

// Node returns the heading for ref.
func (t *Tree) Node(ref NodeRef) Heading { return t.nodes[ref] }

// Walk visits every node depth-first in pre-order.
func (t *Tree) Walk(fn func(ref NodeRef, depth int)) {
	var visit func(refs []NodeRef, depth int)
	visit = func(refs []NodeRef, depth int) {
		for _, ref := range refs {
			fn(ref, depth)
			visit(t.nodes[ref].Children, depth+1)
		}
	}
	visit(t.roots, 0)
}

var headingMarker = regexp.MustCompile(`^ {0,3}#{2,6}(?:[ \t]|$)`)

// HeadingLines returns the level 2..6 heading lines of the prose segments.
// Fenced segments never contribute headings.
func HeadingLines(segs []blocks.Segment) []string {
	var lines []string
	for _, seg := range segs {
		if !seg.Prose() {
			continue
		}
		for _, line := range blocks.Lines(seg.Text) {
			content, _ := blocks.TrimEOL(line)
			if headingMarker.MatchString(content) {
				lines = append(lines, content)
			}
		}
	}
	return lines
}

// Build turns heading lines into an outline rooted at a synthetic level-1
// title heading. Documents with fewer than two real headings produce an
// empty tree.
//
// A heading deeper than any open ancestor slot (a level 4 directly under a
// level 2, say) attaches to the nearest shallower heading still open.
func Build(title string, lines []string) *Tree {
	all := make([]string, 0, len(lines)+1)
	all = append(all, "# "+title)
	all = append(all, lines...)

	t := &Tree{}
	if len(all) <= minHeadingLines {
		return t
	}

	// stack[i] holds the open heading of level i+1, or noRef.
	var stack []NodeRef
	for _, line := range all {
		h, ok := parseHeading(line)
		if !ok {
			continue
		}
		ref := NodeRef(len(t.nodes))
		t.nodes = append(t.nodes, h)

		if h.Level == 1 {
			t.roots = append(t.roots, ref)
			stack = append(stack[:0], ref)
			continue
		}

		if parent := nearest(stack, h.Level-2); parent != noRef {
			t.nodes[parent].Children = append(t.nodes[parent].Children, ref)
		} else {
			t.roots = append(t.roots, ref)
		}

		for len(stack) < h.Level-1 {
			stack = append(stack, noRef)
		}
		stack = append(stack[:h.Level-1], ref)
	}
	return t
}

func nearest(stack []NodeRef, i int) NodeRef {
	for i = min(i, len(stack)-1); i >= 0; i-- {
		if stack[i] != noRef {
			return stack[i]
		}
	}
	return noRef
}

func parseHeading(line string) (Heading, bool) {
	raw := strings.TrimSpace(line)
	level := 0
	for level < len(raw) && raw[level] == '#' {
		level++
	}
	if level < 1 || level > 6 {
		return Heading{}, false
	}
	text := HeadingText(raw)
	return Heading{
		RawLine:       raw,
		Level:         level,
		Text:          text,
		SlugID:        Slug(text),
		SlugIDEncoded: SlugEncoded(text),
	}, true
}

// HeadingText strips heading markers from both ends of a line.
func HeadingText(line string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "#"))
}

// Slug lowercases text and replaces spaces with hyphens.
func Slug(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), " ", "-")
}

// AnchorID is the element id a heading with this text carries in the
// rendered page: its slug without backticks.
func AnchorID(text string) string {
	return strings.ReplaceAll(Slug(text), "`", "")
}

// SlugEncoded is AnchorID percent-encoded for use as a URL fragment.
func SlugEncoded(text string) string {
	return url.PathEscape(AnchorID(text))
}

// RenderTOC serializes the tree as nested lists, pre-order. An empty tree
// renders as the empty string.
func RenderTOC(t *Tree) string {
	if t.Empty() {
		return ""
	}
	var b strings.Builder
	writeList(&b, t, t.roots)
	return b.String()
}

func writeList(b *strings.Builder, t *Tree, refs []NodeRef) {
	b.WriteString("<ul>")
	for _, ref := range refs {
		n := t.nodes[ref]
		b.WriteString(`<li><a href="#`)
		b.WriteString(html.EscapeString(n.SlugIDEncoded))
		b.WriteString(`" title="`)
		b.WriteString(html.EscapeString(n.RawLine))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(n.Text))
		b.WriteString("</a>")
		if len(n.Children) > 0 {
			writeList(b, t, n.Children)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}
