package doctree

import (
	"regexp"
	"strings"

	"github.com/dgallion1/mdpage/internal/blocks"
	"gopkg.in/yaml.v3"
)

// FallbackTitle names documents without any heading.
const FallbackTitle = "Untitled"

// FrontMatter is the YAML header of a document.
type FrontMatter struct {
	Title string `yaml:"title"`
}

var (
	atxHeading  = regexp.MustCompile(`^ {0,3}#{1,6}(?:[ \t]|$)`)
	htmlComment = regexp.MustCompile(`(?s)<!--.*?-->`)
)

// SplitFrontMatter separates a leading "---" YAML block from the body. Text
// whose header does not parse as YAML is returned unchanged.
func SplitFrontMatter(text string) (FrontMatter, string) {
	var fm FrontMatter
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return fm, text
	}

	lines := blocks.Lines(text)
	for i := 1; i < len(lines); i++ {
		content, _ := blocks.TrimEOL(lines[i])
		if content != "---" && content != "..." {
			continue
		}
		if err := yaml.Unmarshal([]byte(strings.Join(lines[1:i], "")), &fm); err != nil {
			return FrontMatter{}, text
		}
		return fm, strings.Join(lines[i+1:], "")
	}
	return fm, text
}

// Title returns the document title: the front matter title if set, else the
// first ATX heading outside fenced code, else FallbackTitle.
func Title(text string) string {
	return TitleOf(SplitFrontMatter(text))
}

// TitleOf is Title for a document whose front matter is already split off.
func TitleOf(meta FrontMatter, body string) string {
	if t := strings.TrimSpace(meta.Title); t != "" {
		return t
	}
	body = htmlComment.ReplaceAllString(body, "")
	for _, seg := range blocks.Scan(body) {
		if !seg.Prose() {
			continue
		}
		for _, line := range blocks.Lines(seg.Text) {
			content, _ := blocks.TrimEOL(line)
			if !atxHeading.MatchString(content) {
				continue
			}
			if text := HeadingText(content); text != "" {
				return text
			}
		}
	}
	return FallbackTitle
}
