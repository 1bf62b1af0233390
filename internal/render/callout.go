package render

import (
	"strings"

	"github.com/dgallion1/mdpage/internal/blocks"
)

// CalloutsToQuotes rewrites colon callouts as block quotes headed by their
// tag in bold. Other segments are returned as they are.
func CalloutsToQuotes(segs []blocks.Segment) []blocks.Segment {
	out := make([]blocks.Segment, len(segs))
	for i, seg := range segs {
		if seg.Kind == blocks.Callout {
			seg.Text = quote(seg)
		}
		out[i] = seg
	}
	return out
}

func quote(seg blocks.Segment) string {
	lines := blocks.Lines(seg.Text)
	body := lines[1:]
	if seg.Closed && len(body) > 0 {
		body = body[:len(body)-1]
	}

	var b strings.Builder
	if seg.Tag != "" {
		b.WriteString("> **" + seg.Tag + "**\n>\n")
	}
	for _, line := range body {
		content, _ := blocks.TrimEOL(line)
		if strings.TrimSpace(content) == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> " + content + "\n")
	}
	// A blank line keeps the next paragraph out of the quote.
	b.WriteString("\n")
	return b.String()
}
