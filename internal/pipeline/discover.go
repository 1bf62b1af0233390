package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Precondition failures. They abort an export before anything is written.
var (
	ErrNoDocument  = errors.New("no document")
	ErrUnsupported = errors.New("unsupported document type")
	ErrNoWorkspace = errors.New("no workspace root")
	ErrNoDocuments = errors.New("no documents found")
)

// SupportedExtensions lists the document extensions mdpage exports.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// IsSupported reports whether filename has a supported extension.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// Discover walks root and returns the supported documents under it as
// sorted slash-separated paths relative to root. Hidden directories and
// paths matching any exclude glob are skipped. A glob without a slash is
// matched against base names.
func Discover(root string, exclude []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoWorkspace, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNoWorkspace, root)
	}

	var docs []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || excluded(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsSupported(d.Name()) || excluded(rel, exclude) {
			return nil
		}
		docs = append(docs, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(docs)
	return docs, nil
}

func excluded(rel string, globs []string) bool {
	base := path.Base(rel)
	for _, g := range globs {
		target := rel
		if !strings.Contains(g, "/") {
			target = base
		}
		if ok, _ := path.Match(g, target); ok {
			return true
		}
	}
	return false
}
