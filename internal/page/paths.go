package page

import (
	"path/filepath"
	"strings"

	"github.com/dgallion1/mdpage/internal/navtree"
)

// OutputPath returns where the page for src is written. The extension is
// swapped for .html. With outDir set, src's position relative to root is
// kept under outDir; a src outside root lands directly in outDir.
func OutputPath(src, outDir, root string) string {
	out := src
	if outDir != "" {
		rel, err := filepath.Rel(root, src)
		if root == "" || err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			rel = filepath.Base(src)
		}
		out = filepath.Join(outDir, rel)
	}
	out = filepath.FromSlash(navtree.HTMLPath(filepath.ToSlash(out)))
	return upperDrive(out)
}

func upperDrive(p string) string {
	if len(p) >= 2 && p[1] == ':' && p[0] >= 'a' && p[0] <= 'z' {
		return strings.ToUpper(p[:1]) + p[1:]
	}
	return p
}
