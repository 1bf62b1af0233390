package blocks

import "strings"

// Kind classifies a run of document lines.
type Kind int

const (
	Plain   Kind = iota // prose
	Fenced              // backtick code fence
	Callout             // colon-delimited container
)

func (k Kind) String() string {
	switch k {
	case Fenced:
		return "fenced"
	case Callout:
		return "callout"
	default:
		return "plain"
	}
}

// Segment is a run of whole lines of one Kind. For Fenced and Callout
// segments the first line is the opening delimiter and, when Closed is set,
// the last line is the closing delimiter.
type Segment struct {
	Text   string
	Kind   Kind
	Tag    string // text after the opening delimiter
	Closed bool
}

// Prose reports whether headings and images inside the segment count as
// document structure. Only fenced code is excluded.
func (s Segment) Prose() bool {
	return s.Kind != Fenced
}

// delimiter is an open fence or callout.
type delimiter struct {
	char  byte
	count int
}

func (d delimiter) kind() Kind {
	if d.char == ':' {
		return Callout
	}
	return Fenced
}

// Scan splits text into segments whose concatenation is text.
//
// Delimiters are only recognised at the start of a line, after optional
// spaces or tabs. A block is closed by the first line holding only a run of
// the same character at least as long as the opener; an unclosed block runs
// to the end of the text.
func Scan(text string) []Segment {
	var (
		segs  []Segment
		open  *delimiter
		tag   string
		start int
	)
	for pos := 0; pos < len(text); {
		next := len(text)
		if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
			next = pos + i + 1
		}
		line := text[pos:next]

		switch {
		case open == nil:
			if d, t, ok := opener(line); ok {
				if pos > start {
					segs = append(segs, Segment{Text: text[start:pos], Kind: Plain})
				}
				open, tag, start = &d, t, pos
			}
		case closes(line, *open):
			segs = append(segs, Segment{Text: text[start:next], Kind: open.kind(), Tag: tag, Closed: true})
			open, tag, start = nil, "", next
		}
		pos = next
	}

	if start < len(text) {
		seg := Segment{Text: text[start:], Kind: Plain}
		if open != nil {
			seg.Kind, seg.Tag = open.kind(), tag
		}
		segs = append(segs, seg)
	}
	return segs
}

// Join concatenates segment texts.
func Join(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Lines splits s into lines that keep their terminators, so joining the
// result gives back s.
func Lines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// TrimEOL splits a line into its content and its terminator.
func TrimEOL(line string) (content, eol string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	}
	return line, ""
}

func opener(line string) (delimiter, string, bool) {
	content, _ := TrimEOL(line)
	s := strings.TrimLeft(content, " \t")
	if s == "" || (s[0] != '`' && s[0] != ':') {
		return delimiter{}, "", false
	}
	n := run(s, s[0])
	if n < 3 {
		return delimiter{}, "", false
	}
	return delimiter{char: s[0], count: n}, strings.TrimSpace(s[n:]), true
}

func closes(line string, d delimiter) bool {
	s := strings.TrimSpace(line)
	return len(s) >= d.count && run(s, d.char) == len(s)
}

func run(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
