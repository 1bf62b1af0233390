package page

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/mdpage/internal/render"
)

func newBuilder() *Builder {
	return &Builder{
		Renderer:   render.NewGoldmark(render.DefaultStyle),
		SkipFormat: true,
	}
}

func TestBuild_NoHeadings(t *testing.T) {
	res, err := newBuilder().Build(context.Background(), Doc{Path: "plain.md", Text: "Just some text.\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Title != "Untitled" {
		t.Errorf("expected fallback title, got %q", res.Title)
	}
	if !res.TOC.Empty() {
		t.Errorf("expected empty outline, got %d nodes", res.TOC.Len())
	}
	if !strings.Contains(res.HTML, "<title>Untitled</title>") {
		t.Errorf("expected fallback title in page")
	}
	if !strings.Contains(res.HTML, `<aside class="toc"`) {
		t.Errorf("expected TOC panel to be present")
	}
	if strings.Contains(res.HTML, "<li") {
		t.Errorf("expected no list items in page:\n%s", res.HTML)
	}
	if strings.Contains(res.HTML, `<nav class="file-nav"`) {
		t.Errorf("expected navigation panel to be omitted")
	}
}

func TestBuild_TOCLinksMatchHeadingIDs(t *testing.T) {
	doc := "# Guide\n\nIntro.\n\n## Getting Started\n\n### Use `mdpage` Today\n\n```\n## not a heading\n```\n"
	res, err := newBuilder().Build(context.Background(), Doc{Path: "guide.md", Text: doc})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, id := range []string{"guide", "getting-started", "use-mdpage-today"} {
		if !strings.Contains(res.HTML, `href="#`+id+`"`) {
			t.Errorf("missing TOC link to %q", id)
		}
		if !strings.Contains(res.HTML, `id="`+id+`"`) {
			t.Errorf("missing heading id %q", id)
		}
	}
	if strings.Contains(res.HTML, `href="#not-a-heading"`) {
		t.Errorf("fenced heading reached the TOC")
	}
}

func TestBuild_FrontMatterTitle(t *testing.T) {
	doc := "---\ntitle: From Meta\n---\n# Heading\n"
	res, err := newBuilder().Build(context.Background(), Doc{Path: "m.md", Text: doc})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Title != "From Meta" {
		t.Errorf("expected front matter title, got %q", res.Title)
	}
	if strings.Contains(res.HTML, "title: From Meta") {
		t.Errorf("front matter rendered into page")
	}
}

func TestBuild_Images(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "docs")
	if err := os.MkdirAll(filepath.Join(docDir, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docDir, "img", "ok.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := "# Pics\n\n![Fine](img/ok.png)\n\n![Gone](img/missing.png)\n\n```\n![Code](img/code.png)\n```\n"
	res, err := newBuilder().Build(context.Background(), Doc{Path: filepath.Join(docDir, "pics.md"), Root: root, Text: doc})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.Contains(res.HTML, `src="data:image/png;base64,`) {
		t.Errorf("expected inlined image")
	}
	if !strings.Contains(res.HTML, `title="Fine"`) {
		t.Errorf("expected alt copied to title")
	}
	if !strings.Contains(res.HTML, "![Code](img/code.png)") {
		t.Errorf("expected fenced image left as code")
	}
	if len(res.Images) != 2 {
		t.Errorf("expected 2 image references, got %d", len(res.Images))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Kind != WarnImage {
		t.Fatalf("expected one image warning, got %+v", res.Warnings)
	}
	if w := res.Warnings[0]; w.Title != "Pics" || !strings.Contains(w.Message, "missing.png") {
		t.Errorf("warning should name document and image: %+v", w)
	}
}

func TestBuild_SizedImage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "s.png"), []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := newBuilder().Build(context.Background(), Doc{Path: filepath.Join(dir, "s.md"), Text: "# S\n\n![S](s.png =250x)\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Images) != 1 || len(res.Warnings) != 0 {
		t.Fatalf("expected one inlined image, got images=%d warnings=%+v", len(res.Images), res.Warnings)
	}
	if !strings.Contains(res.HTML, `src="data:image/png;base64,`) || !strings.Contains(res.HTML, `width="250"`) {
		t.Errorf("expected sized data URI image in:\n%s", res.HTML)
	}
	if strings.Contains(res.HTML, "=250x") || strings.Contains(res.HTML, "TOBE_BASE64") {
		t.Errorf("expected no leftover annotation or placeholder in:\n%s", res.HTML)
	}
}

func TestBuild_FormatFailureKeepsPage(t *testing.T) {
	doc := Doc{Path: "f.md", Text: "# F\n\n## A\n\n## B\n"}

	plain, err := newBuilder().Build(context.Background(), doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	b := newBuilder()
	b.SkipFormat = false
	b.Format = func(string) (string, error) { return "", errors.New("cannot parse") }
	res, err := b.Build(context.Background(), doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.HTML != plain.HTML {
		t.Errorf("expected unformatted page on formatter failure")
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %d", len(res.Warnings))
	}
	if w := res.Warnings[0]; w.Kind != WarnFormat || w.Title != "F" {
		t.Errorf("unexpected warning %+v", w)
	}
}

func TestBuild_DefaultFormatter(t *testing.T) {
	b := newBuilder()
	b.SkipFormat = false
	res, err := b.Build(context.Background(), Doc{Path: "d.md", Text: "# D\n\ntext\n"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", res.Warnings)
	}
	if !strings.Contains(res.HTML, "text") {
		t.Errorf("content missing from formatted page")
	}
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, string, render.Options) (string, error) {
	return "", errors.New("engine down")
}

func TestBuild_RenderError(t *testing.T) {
	b := &Builder{Renderer: failingRenderer{}, SkipFormat: true}
	if _, err := b.Build(context.Background(), Doc{Path: "x.md", Text: "# x"}); err == nil {
		t.Fatal("expected render error")
	}
}

func TestAssemble_Nav(t *testing.T) {
	with, err := Assemble(Page{Title: "T", Nav: "<ul><li>n</li></ul>", Content: "<p>c</p>"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !strings.Contains(with, `<nav class="file-nav"`) || !strings.Contains(with, "has-nav") {
		t.Errorf("expected navigation panel")
	}

	without, err := Assemble(Page{Title: "T <&>", Content: "<p>c</p>"})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if strings.Contains(without, `<nav class="file-nav"`) {
		t.Errorf("expected navigation panel to be omitted")
	}
	if !strings.Contains(without, "<title>T &lt;&amp;&gt;</title>") {
		t.Errorf("expected escaped title")
	}
	if !strings.Contains(without, ".toc-box") {
		t.Errorf("expected embedded stylesheet")
	}
}
