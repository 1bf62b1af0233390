package page

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/mdpage/internal/blocks"
	"github.com/dgallion1/mdpage/internal/doctree"
	"github.com/dgallion1/mdpage/internal/images"
	"github.com/dgallion1/mdpage/internal/postprocess"
	"github.com/dgallion1/mdpage/internal/render"
)

// Doc is one document to build.
type Doc struct {
	Path string // source file, used to resolve relative images
	Root string // workspace root for "/" image sources; empty uses the document directory
	Text string
	Nav  string // navigation menu; empty for single-document export
}

// Result is a built page.
type Result struct {
	Title    string
	HTML     string
	TOC      *doctree.Tree
	Images   []images.Reference
	Warnings []Warning
}

// Builder runs the single-document pipeline: front matter, block scan,
// outline, image placeholders, render, image inlining, assembly,
// post-processing and formatting.
type Builder struct {
	Renderer      render.Renderer
	RenderOptions render.Options
	Format        FormatFunc // nil uses GoHTML
	FormatOptions FormatOptions
	SkipFormat    bool
	Logger        *slog.Logger
}

// Build produces the page for doc. Image and formatting problems are
// returned as warnings; an error means no page could be made.
func (b *Builder) Build(ctx context.Context, doc Doc) (Result, error) {
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("doc", doc.Path)

	meta, body := doctree.SplitFrontMatter(doc.Text)
	title := doctree.TitleOf(meta, body)
	segs := blocks.Scan(body)
	toc := doctree.Build(title, doctree.HeadingLines(segs))
	segs, refs := images.Rewrite(segs)

	content, err := b.Renderer.Render(ctx, blocks.Join(segs), b.RenderOptions)
	if err != nil {
		return Result{}, fmt.Errorf("render %s: %w", doc.Path, err)
	}

	var warnings []Warning
	content, imgWarnings := images.Resolve(content, refs, images.Base{
		DocDir:        filepath.Dir(doc.Path),
		WorkspaceRoot: doc.Root,
		DocTitle:      title,
	})
	for _, w := range imgWarnings {
		msg := fmt.Sprintf("image %s not inlined (%s): %v", w.Src, w.Path, w.Err)
		warnings = append(warnings, Warning{Kind: WarnImage, Title: title, Message: Sanitize(msg)})
	}

	html, err := Assemble(Page{Title: title, Nav: doc.Nav, Content: content, TOC: doctree.RenderTOC(toc)})
	if err != nil {
		return Result{}, err
	}
	if html, err = postprocess.Apply(html); err != nil {
		return Result{}, fmt.Errorf("post-process %s: %w", doc.Path, err)
	}

	if !b.SkipFormat {
		var w *Warning
		html, w = Format(ctx, html, b.FormatOptions, b.Format)
		if w != nil {
			w.Title = title
			warnings = append(warnings, *w)
		}
	}

	log.Debug("page built",
		"title", title,
		"headings", toc.Len(),
		"images", len(refs),
		"warnings", len(warnings),
	)
	return Result{Title: title, HTML: html, TOC: toc, Images: refs, Warnings: warnings}, nil
}
