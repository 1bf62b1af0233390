package page

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultFormatTimeout bounds a single formatter run.
const DefaultFormatTimeout = 10 * time.Second

// Warning kinds.
const (
	WarnImage  = "image"
	WarnFormat = "format"
)

// Warning is a problem that did not stop a page from being written.
type Warning struct {
	Kind    string
	Title   string // document title
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Title, w.Message)
}

// FormatFunc pretty-prints an HTML document.
type FormatFunc func(doc string) (string, error)

// FormatOptions configure Format.
type FormatOptions struct {
	Timeout time.Duration
}

// GoHTML indents the block structure of a page with github.com/yosssi/gohtml.
// Elements holding text or inline markup are written out unformatted, so the
// text a browser shows is the same before and after.
func GoHTML(src string) (string, error) {
	root, err := parseForFormat(src)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	if keepWhole(root) {
		return src, nil
	}

	k := &keeper{prefix: "mdpagekeep" + strings.ReplaceAll(uuid.NewString(), "-", "")}
	if err := k.hide(root); err != nil {
		return "", err
	}
	var skeleton strings.Builder
	if err := html.Render(&skeleton, root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	out := gohtml.Format(skeleton.String())
	if len(k.pairs) > 0 {
		out = strings.NewReplacer(k.pairs...).Replace(out)
	}
	if strings.TrimSpace(out) == "" {
		return "", errors.New("formatter produced no output")
	}
	return out, nil
}

// parseForFormat returns a document node holding src. Input without an
// <html> element is parsed as body content so no wrapper is added.
func parseForFormat(src string) (*html.Node, error) {
	lower := strings.ToLower(src)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		return html.Parse(strings.NewReader(src))
	}
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return nil, err
	}
	doc := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		doc.AppendChild(n)
	}
	return doc, nil
}

// keptElements are always written out as they are.
var keptElements = map[atom.Atom]bool{
	atom.P: true, atom.Li: true, atom.Dt: true, atom.Dd: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Td: true, atom.Th: true, atom.Caption: true, atom.Figcaption: true,
	atom.Summary: true, atom.Legend: true, atom.Title: true, atom.Pre: true,
	atom.Textarea: true, atom.Script: true, atom.Style: true,
}

// blockElements may be reindented. Any other element, custom ones included,
// is treated as inline.
var blockElements = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Meta: true, atom.Link: true, atom.Base: true,
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true, atom.Details: true,
	atom.Dialog: true, atom.Div: true, atom.Dl: true, atom.Fieldset: true, atom.Figure: true,
	atom.Footer: true, atom.Form: true, atom.Header: true, atom.Hgroup: true, atom.Hr: true,
	atom.Main: true, atom.Nav: true, atom.Ol: true, atom.Section: true, atom.Table: true,
	atom.Thead: true, atom.Tbody: true, atom.Tfoot: true, atom.Tr: true, atom.Colgroup: true,
	atom.Col: true, atom.Ul: true, atom.Noscript: true, atom.Template: true,
}

// keepWhole reports whether reindenting the children of n could add or drop
// visible whitespace.
func keepWhole(n *html.Node) bool {
	if n.Type == html.ElementNode && (keptElements[n.DataAtom] || !blockElements[n.DataAtom]) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		case html.ElementNode:
			if !keptElements[c.DataAtom] && !blockElements[c.DataAtom] {
				return true
			}
		}
	}
	return false
}

// keeper swaps elements that must not be reindented for unique text markers
// and remembers their markup.
type keeper struct {
	prefix string
	pairs  []string // marker, markup, marker, markup...
}

func (k *keeper) hide(n *html.Node) error {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode {
			if keepWhole(c) {
				var b strings.Builder
				if err := html.Render(&b, c); err != nil {
					return fmt.Errorf("render html: %w", err)
				}
				marker := fmt.Sprintf("%s_%d_", k.prefix, len(k.pairs)/2)
				k.pairs = append(k.pairs, marker, b.String())
				n.InsertBefore(&html.Node{Type: html.TextNode, Data: marker}, c)
				n.RemoveChild(c)
			} else if err := k.hide(c); err != nil {
				return err
			}
		}
		c = next
	}
	return nil
}

type formatResult struct {
	out string
	err error
}

// Format runs fn over doc. When fn fails, panics or outlives the timeout
// the input is returned unchanged together with a single warning.
func Format(ctx context.Context, doc string, opts FormatOptions, fn FormatFunc) (string, *Warning) {
	if fn == nil {
		fn = GoHTML
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultFormatTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Buffered so an abandoned formatter can still finish and exit.
	done := make(chan formatResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- formatResult{err: fmt.Errorf("formatter panic: %v", r)}
			}
		}()
		out, err := fn(doc)
		done <- formatResult{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return doc, formatWarning(r.err)
		}
		return r.out, nil
	case <-ctx.Done():
		return doc, formatWarning(fmt.Errorf("formatter did not finish: %w", ctx.Err()))
	}
}

func formatWarning(err error) *Warning {
	return &Warning{
		Kind:    WarnFormat,
		Message: "page left unformatted: " + Sanitize(err.Error()),
	}
}

// Sanitize strips terminal escape sequences and control characters from a
// diagnostic message.
func Sanitize(msg string) string {
	msg = ansi.Strip(msg)
	msg = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, msg)
	return strings.Join(strings.Fields(msg), " ")
}
