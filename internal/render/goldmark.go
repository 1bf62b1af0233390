package render

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/dgallion1/mdpage/internal/blocks"
	"github.com/dgallion1/mdpage/internal/doctree"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used for fenced code.
const DefaultStyle = "github"

// Options adjust a single Render call.
type Options struct {
	// RewriteLinks points relative links to .md/.markdown documents at the
	// .html page exported for them.
	RewriteLinks bool
}

// Renderer turns markdown text into an HTML fragment.
type Renderer interface {
	Render(ctx context.Context, markdown string, opts Options) (string, error)
}

// Goldmark renders GitHub flavoured markdown with footnotes, definition
// lists, inline-styled code highlighting and heading ids that match the
// table of contents.
type Goldmark struct {
	md goldmark.Markdown
}

var rewriteLinksKey = parser.NewContextKey()

// HasStyle reports whether name is a known highlighting style.
func HasStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// NewGoldmark returns a Goldmark renderer highlighting code with the named
// chroma style. Unknown styles fall back to DefaultStyle.
func NewGoldmark(style string) *Goldmark {
	if !HasStyle(style) {
		style = DefaultStyle
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			extension.DefinitionList,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(false),
					chromahtml.TabWidth(4),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(linkTransformer{}, 100),
				util.Prioritized(imageSizeTransformer{}, 110),
			),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Goldmark{md: md}
}

// Render converts text to HTML. Colon callouts are rendered as block quotes
// and " =WxH" image sizes become width and height attributes.
func (g *Goldmark) Render(ctx context.Context, markdown string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	segs, sizes := stripImageSizes(CalloutsToQuotes(blocks.Scan(markdown)))
	src := []byte(blocks.Join(segs))

	pc := parser.NewContext(parser.WithIDs(slugIDs{}))
	pc.Set(imageSizesKey, sizes)
	if opts.RewriteLinks {
		pc.Set(rewriteLinksKey, true)
	}

	var buf bytes.Buffer
	if err := g.md.Convert(src, &buf, parser.WithContext(pc)); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// slugIDs names headings the way doctree links to them. Repeated headings
// share an id; the table of contents links to the first.
type slugIDs struct{}

func (slugIDs) Generate(value []byte, _ ast.NodeKind) []byte {
	id := doctree.AnchorID(doctree.HeadingText(string(value)))
	if id == "" {
		id = "heading"
	}
	return []byte(id)
}

func (slugIDs) Put([]byte) {}

type linkTransformer struct{}

func (linkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	if on, _ := pc.Get(rewriteLinksKey).(bool); !on {
		return
	}
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if link, ok := n.(*ast.Link); ok {
			link.Destination = []byte(PageLink(string(link.Destination)))
		}
		return ast.WalkContinue, nil
	})
}

// PageLink maps a relative link to a markdown document onto the exported
// page. Other links are returned unchanged.
func PageLink(dest string) string {
	if u, err := url.Parse(dest); err != nil || u.Scheme != "" || u.Host != "" {
		return dest
	}
	p, rest := dest, ""
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		p, rest = dest[:i], dest[i:]
	}
	ext := path.Ext(p)
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return strings.TrimSuffix(p, ext) + ".html" + rest
	}
	return dest
}
