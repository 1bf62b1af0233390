package postprocess

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Apply parses the page and:
//   - copies each image's alt text into its title, unless it has one;
//   - moves the id of every footnote reference superscript onto an empty
//     span placed just before it.
func Apply(page string) (string, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var refs []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Img:
				titleFromAlt(n)
			case atom.Sup:
				if isFootnoteRef(n) {
					refs = append(refs, n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	for _, sup := range refs {
		hoistID(sup)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func titleFromAlt(img *html.Node) {
	alt, _ := attr(img, "alt")
	if alt == "" {
		return
	}
	if _, ok := attr(img, "title"); ok {
		return
	}
	img.Attr = append(img.Attr, html.Attribute{Key: "title", Val: alt})
}

func isFootnoteRef(sup *html.Node) bool {
	if id, _ := attr(sup, "id"); id == "" {
		return false
	}
	var found bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			class, _ := attr(n, "class")
			href, _ := attr(n, "href")
			if slices.Contains(strings.Fields(class), "footnote-ref") || strings.HasPrefix(href, "#fn") {
				found = true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(sup)
	return found
}

func hoistID(sup *html.Node) {
	if sup.Parent == nil {
		return
	}
	id, _ := attr(sup, "id")
	sup.Parent.InsertBefore(&html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     []html.Attribute{{Key: "id", Val: id}},
	}, sup)
	sup.Attr = slices.DeleteFunc(sup.Attr, func(a html.Attribute) bool { return a.Key == "id" })
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
