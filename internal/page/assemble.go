package page

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed assets/page.html.tmpl assets/page.css
var assets embed.FS

var (
	pageTmpl = template.Must(template.ParseFS(assets, "assets/page.html.tmpl"))
	pageCSS  = mustRead("assets/page.css")
)

func mustRead(name string) string {
	b, err := assets.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Page holds the parts of an assembled page. Nav, Content and TOC are
// trusted HTML fragments.
type Page struct {
	Title   string
	Nav     string // omitted when empty
	Content string
	TOC     string
}

// Assemble renders p into a complete HTML document with embedded styling.
func Assemble(p Page) (string, error) {
	data := struct {
		Title   string
		CSS     template.CSS
		Nav     template.HTML
		Content template.HTML
		TOC     template.HTML
	}{
		Title:   p.Title,
		CSS:     template.CSS(pageCSS),
		Nav:     template.HTML(p.Nav),
		Content: template.HTML(p.Content),
		TOC:     template.HTML(p.TOC),
	}

	var b strings.Builder
	if err := pageTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return b.String(), nil
}
