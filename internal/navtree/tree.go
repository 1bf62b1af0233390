package navtree

import (
	"path"
	"slices"
	"strings"
)

// FolderRef is a handle into a Tree's folder arena.
type FolderRef int

// RootRef is the folder standing for the export root.
const RootRef FolderRef = 0

// Folder is a directory of the workspace.
type Folder struct {
	Path      string // slash-separated, relative to the root; "" for the root
	Name      string
	AliasName string // label shown in the menu
	Folders   []FolderRef
	Files     []FileEntry
}

// FileEntry is a document inside a folder.
type FileEntry struct {
	FileName     string
	Title        string
	RelativePath string
}

// TitleFunc returns the display title of the document at a relative path.
type TitleFunc func(relPath string) string

// Tree is the folder hierarchy of one export. It is not modified after Build
// and may be shared by concurrent renders.
type Tree struct {
	folders []Folder
}

// Len returns the number of folders, the root included.
func (t *Tree) Len() int { return len(t.folders) }

// Folder returns the folder for ref.
func (t *Tree) Folder(ref FolderRef) Folder { return t.folders[ref] }

// Root returns the root folder.
func (t *Tree) Root() Folder { return t.folders[RootRef] }

// Build creates the tree for a list of slash-separated document paths
// relative to the root. Paths are sorted first; sibling order follows the
// sorted order. aliases maps a folder path to the label shown for it.
func Build(paths []string, titles TitleFunc, aliases map[string]string) *Tree {
	sorted := make([]string, len(paths))
	for i, p := range paths {
		sorted[i] = path.Clean(p)
	}
	slices.Sort(sorted)

	t := &Tree{folders: []Folder{{}}}
	for _, p := range sorted {
		parts := strings.Split(strings.Trim(p, "/"), "/")
		cur := RootRef
		for _, name := range parts[:len(parts)-1] {
			if name == "" {
				continue
			}
			cur = t.child(cur, name, aliases)
		}

		title := ""
		if titles != nil {
			title = titles(p)
		}
		t.folders[cur].Files = append(t.folders[cur].Files, FileEntry{
			FileName:     parts[len(parts)-1],
			Title:        title,
			RelativePath: p,
		})
	}
	return t
}

// child returns the subfolder of parent called name, creating it when absent.
func (t *Tree) child(parent FolderRef, name string, aliases map[string]string) FolderRef {
	for _, ref := range t.folders[parent].Folders {
		if t.folders[ref].Name == name {
			return ref
		}
	}

	p := path.Join(t.folders[parent].Path, name)
	alias := name
	if a, ok := aliases[p]; ok && a != "" {
		alias = a
	}
	ref := FolderRef(len(t.folders))
	t.folders = append(t.folders, Folder{Path: p, Name: name, AliasName: alias})
	t.folders[parent].Folders = append(t.folders[parent].Folders, ref)
	return ref
}
