package blocks

import (
	"testing"
)

func TestScan_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain text only",
		"# Title\n\nSome text.\n",
		"intro\n```go\nfunc main() {}\n```\noutro\n",
		"::: warning\n## Inside\n:::\n",
		"a\r\n```\r\ncode\r\n```\r\nb",
		"```\nnever closed\n## heading\n",
		"text\n````\n```\nnested\n```\n````\nafter",
		"::: note\n```\ncode in callout\n```\n:::\ntrailing",
		"no newline at end ```inline```",
	}
	for _, in := range inputs {
		segs := Scan(in)
		if got := Join(segs); got != in {
			t.Errorf("Join(Scan(%q)) = %q", in, got)
		}
	}
}

func TestScan_NoDelimiters(t *testing.T) {
	in := "# Title\n\nParagraph.\n"
	segs := Scan(in)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Kind != Plain || segs[0].Text != in {
		t.Errorf("expected single plain segment equal to input, got %+v", segs[0])
	}
}

func TestScan_Empty(t *testing.T) {
	if segs := Scan(""); len(segs) != 0 {
		t.Errorf("expected no segments for empty input, got %d", len(segs))
	}
}

func TestScan_FenceAndCallout(t *testing.T) {
	in := "intro\n```python\nprint(1)\n```\nmiddle\n::: tip Title\nbody\n:::\nend\n"
	segs := Scan(in)

	want := []struct {
		kind Kind
		text string
		tag  string
	}{
		{Plain, "intro\n", ""},
		{Fenced, "```python\nprint(1)\n```\n", "python"},
		{Plain, "middle\n", ""},
		{Callout, "::: tip Title\nbody\n:::\n", "tip Title"},
		{Plain, "end\n", ""},
	}
	if len(segs) != len(want) {
		t.Fatalf("expected %d segments, got %d: %+v", len(want), len(segs), segs)
	}
	for i, w := range want {
		if segs[i].Kind != w.kind {
			t.Errorf("seg[%d]: expected kind %v, got %v", i, w.kind, segs[i].Kind)
		}
		if segs[i].Text != w.text {
			t.Errorf("seg[%d]: expected text %q, got %q", i, w.text, segs[i].Text)
		}
		if segs[i].Tag != w.tag {
			t.Errorf("seg[%d]: expected tag %q, got %q", i, w.tag, segs[i].Tag)
		}
	}
	if !segs[1].Closed || !segs[3].Closed {
		t.Error("expected fence and callout to be closed")
	}
}

func TestScan_Unterminated(t *testing.T) {
	in := "before\n```\ncode\n## not a heading\n"
	segs := Scan(in)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	last := segs[1]
	if last.Kind != Fenced {
		t.Errorf("expected trailing fenced segment, got %v", last.Kind)
	}
	if last.Closed {
		t.Error("expected unterminated fence to be reported open")
	}
	if last.Text != "```\ncode\n## not a heading\n" {
		t.Errorf("unexpected fenced text %q", last.Text)
	}
}

func TestScan_CloserMustMatchCharacter(t *testing.T) {
	// A colon run does not close a backtick fence.
	in := "```\n:::\nstill code\n```\n"
	segs := Scan(in)
	if len(segs) != 1 || segs[0].Kind != Fenced {
		t.Fatalf("expected one fenced segment, got %+v", segs)
	}
}

func TestScan_LongerOpenerNeedsLongerCloser(t *testing.T) {
	in := "````\n```\ninner\n```\n````\nafter\n"
	segs := Scan(in)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(segs), segs)
	}
	if segs[0].Text != "````\n```\ninner\n```\n````\n" {
		t.Errorf("unexpected fenced text %q", segs[0].Text)
	}
	if segs[1].Text != "after\n" {
		t.Errorf("unexpected trailing text %q", segs[1].Text)
	}
}

func TestScan_IndentedOpener(t *testing.T) {
	in := "- item\n  ```\n  code\n  ```\n"
	segs := Scan(in)
	if len(segs) != 2 || segs[1].Kind != Fenced {
		t.Fatalf("expected plain then fenced, got %+v", segs)
	}
}

func TestScan_TwoBackticksIsNotAFence(t *testing.T) {
	segs := Scan("``not a fence``\n")
	if len(segs) != 1 || segs[0].Kind != Plain {
		t.Fatalf("expected one plain segment, got %+v", segs)
	}
}

func TestLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\n", []string{"a\n"}},
		{"a\nb", []string{"a\n", "b"}},
		{"a\r\n\nb\n", []string{"a\r\n", "\n", "b\n"}},
	}
	for _, tt := range tests {
		got := Lines(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("Lines(%q) = %q, want %q", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Lines(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestSegmentProse(t *testing.T) {
	if !(Segment{Kind: Plain}).Prose() || !(Segment{Kind: Callout}).Prose() {
		t.Error("plain and callout segments should be prose")
	}
	if (Segment{Kind: Fenced}).Prose() {
		t.Error("fenced segments should not be prose")
	}
}
