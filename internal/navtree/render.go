package navtree

import (
	"html"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Render returns the navigation menu of the whole tree as seen from the page
// of target. Links are relative to target's directory; target and its
// ancestor folders are marked active. The tree itself is not touched.
func Render(t *Tree, target string) string {
	root := t.Root()
	if len(root.Files) == 0 && len(root.Folders) == 0 {
		return ""
	}
	r := renderer{tree: t, target: target, dir: path.Dir(target)}
	var b strings.Builder
	r.folder(&b, root)
	return b.String()
}

type renderer struct {
	tree   *Tree
	target string
	dir    string
}

func (r renderer) folder(b *strings.Builder, f Folder) {
	b.WriteString("<ul>")
	for _, file := range f.Files {
		class := "nav-file"
		if file.RelativePath == r.target {
			class += " active"
		}
		b.WriteString(`<li class="` + class + `"><a href="`)
		b.WriteString(html.EscapeString(escapePath(RelativeHref(r.dir, HTMLPath(file.RelativePath)))))
		b.WriteString(`" title="`)
		b.WriteString(html.EscapeString(file.FileName))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(file.Title))
		b.WriteString("</a></li>")
	}
	for _, ref := range f.Folders {
		sub := r.tree.Folder(ref)
		class := "nav-folder"
		if strings.HasPrefix(r.target, sub.Path+"/") {
			class += " active"
		}
		b.WriteString(`<li class="` + class + `"><span class="nav-folder-label" data-href="`)
		b.WriteString(html.EscapeString(escapePath(RelativeHref(r.dir, sub.Path))))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(sub.AliasName))
		b.WriteString("</span>")
		r.folder(b, sub)
		b.WriteString("</li>")
	}
	b.WriteString("</ul>")
}

// HTMLPath swaps the extension of a slash-separated document path for .html.
func HTMLPath(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	return p + ".html"
}

// RelativeHref returns the slash-separated path of to as seen from the
// directory fromDir. Both are relative to the same root.
func RelativeHref(fromDir, to string) string {
	rel, err := filepath.Rel(filepath.FromSlash(fromDir), filepath.FromSlash(to))
	if err != nil {
		return to
	}
	return filepath.ToSlash(rel)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
