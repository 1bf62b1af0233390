package images

import (
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/dgallion1/mdpage/internal/blocks"
	"github.com/yuin/goldmark/util"
)

const (
	placeholderPrefix = "./TOBE_BASE64_IMGPATH_"
	placeholderSuffix = "_TO_BE_BASE64_IMGPATH"
)

// Reference is one local image source found in a document.
type Reference struct {
	OriginalSrc  string
	AltText      string
	ResolvedPath string // set by Resolve
	Placeholder  string
}

// Base locates the files a document's images are relative to.
type Base struct {
	DocDir        string
	WorkspaceRoot string // used for sources starting with "/"; DocDir when empty
	DocTitle      string
}

// Warning reports an image that could not be inlined.
type Warning struct {
	DocTitle string
	Src      string
	Path     string
	Err      error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%s: image %s (%s): %v", w.DocTitle, w.Src, w.Path, w.Err)
}

func (w Warning) Unwrap() error { return w.Err }

// imageLine matches a line holding exactly one image reference, optionally
// with a " =WxH" size, a quoted title and a trailing {...} annotation.
var imageLine = regexp.MustCompile(`^(\s*!\[([^\]]*)\]\()([^)\s]+)((?:\s+=\d*x\d*)?(?:\s+"[^"]*")?\)\s*(?:\{[^}]*\})?\s*)$`)

var remotePrefixes = []string{"http://", "https://", "data:image/", "data:application/"}

// Placeholder returns the token that stands in for src until Resolve.
func Placeholder(src string) string {
	return placeholderPrefix + src + placeholderSuffix
}

// IsPlaceholder reports whether src is already a placeholder token.
func IsPlaceholder(src string) bool {
	return strings.HasPrefix(src, placeholderPrefix) && strings.HasSuffix(src, placeholderSuffix)
}

func eligible(src string) bool {
	if IsPlaceholder(src) {
		return false
	}
	for _, p := range remotePrefixes {
		if strings.HasPrefix(src, p) {
			return false
		}
	}
	return true
}

// Rewrite replaces local image sources in prose segments with placeholder
// tokens. It returns a new segment slice and the distinct sources rewritten,
// in first-seen order. Fenced segments pass through unchanged.
func Rewrite(segs []blocks.Segment) ([]blocks.Segment, []Reference) {
	out := make([]blocks.Segment, 0, len(segs))
	var refs []Reference
	seen := make(map[string]bool)

	for _, seg := range segs {
		if !seg.Prose() {
			out = append(out, seg)
			continue
		}

		var b strings.Builder
		changed := false
		for _, line := range blocks.Lines(seg.Text) {
			content, eol := blocks.TrimEOL(line)
			m := imageLine.FindStringSubmatch(content)
			if m == nil || !eligible(m[3]) {
				b.WriteString(line)
				continue
			}
			src := m[3]
			ph := Placeholder(src)
			if !seen[src] {
				seen[src] = true
				refs = append(refs, Reference{OriginalSrc: src, AltText: m[2], Placeholder: ph})
			}
			b.WriteString(m[1] + ph + m[4] + eol)
			changed = true
		}

		if changed {
			seg.Text = b.String()
		}
		out = append(out, seg)
	}
	return out, refs
}

// Resolve inlines every referenced image into rendered HTML. Each reference's
// ResolvedPath is filled in. An unreadable image produces a warning and its
// placeholder is left in place.
func Resolve(doc string, refs []Reference, base Base) (string, []Warning) {
	var warnings []Warning
	for i := range refs {
		ref := &refs[i]
		data, path, err := read(ref.OriginalSrc, base)
		ref.ResolvedPath = path
		if err != nil {
			warnings = append(warnings, Warning{DocTitle: base.DocTitle, Src: ref.OriginalSrc, Path: path, Err: err})
			continue
		}
		uri := DataURI(path, data)
		for _, form := range placeholderForms(ref.Placeholder) {
			doc = strings.ReplaceAll(doc, form, uri)
		}
	}
	return doc, warnings
}

// AbsPath resolves src against the document directory, or against the
// workspace root when src starts with "/".
func AbsPath(src string, base Base) string {
	if strings.HasPrefix(src, "/") && base.WorkspaceRoot != "" {
		return filepath.Join(base.WorkspaceRoot, filepath.FromSlash(src))
	}
	return filepath.Join(base.DocDir, filepath.FromSlash(src))
}

func read(src string, base Base) ([]byte, string, error) {
	path := AbsPath(src, base)
	data, err := os.ReadFile(path)
	if err == nil {
		return data, path, nil
	}
	// Sources are often written percent-encoded ("my%20chart.png").
	if unescaped, uerr := url.PathUnescape(src); uerr == nil && unescaped != src {
		alt := AbsPath(unescaped, base)
		if data, aerr := os.ReadFile(alt); aerr == nil {
			return data, alt, nil
		}
	}
	return nil, path, err
}

// DataURI encodes data as an image data URI whose subtype is the lowercased
// file extension.
func DataURI(path string, data []byte) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "svg":
		ext = "svg+xml"
	case "":
		ext = "png"
		if ct := http.DetectContentType(data); strings.HasPrefix(ct, "image/") {
			ext = strings.TrimPrefix(ct, "image/")
		}
	}
	return "data:image/" + ext + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// placeholderForms lists the spellings a placeholder can take in rendered
// HTML: as written, URL-escaped by the renderer, and HTML-escaped.
func placeholderForms(ph string) []string {
	escaped := string(util.URLEscape([]byte(ph), true))
	forms := []string{ph}
	for _, f := range []string{escaped, html.EscapeString(escaped), html.EscapeString(ph)} {
		if !slices.Contains(forms, f) {
			forms = append(forms, f)
		}
	}
	return forms
}
