package postprocess

import (
	"strings"
	"testing"
)

func wrap(body string) string {
	return "<!DOCTYPE html><html><head><title>t</title></head><body>" + body + "</body></html>"
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		notWant []string
	}{
		{
			name: "img alt copied to title",
			body: `<p><img src="a.png" alt="A chart"></p>`,
			want: []string{`<img src="a.png" alt="A chart" title="A chart"/>`},
		},
		{
			name:    "existing title kept",
			body:    `<img src="a.png" alt="alt" title="own">`,
			want:    []string{`title="own"`},
			notWant: []string{`title="alt"`},
		},
		{
			name:    "empty alt adds no title",
			body:    `<img src="a.png" alt="">`,
			notWant: []string{"title="},
		},
		{
			name: "footnote reference id hoisted",
			body: `<p>Text<sup id="fnref:1"><a href="#fn:1" class="footnote-ref" role="doc-noteref">1</a></sup></p>`,
			want: []string{`Text<span id="fnref:1"></span><sup><a href="#fn:1" class="footnote-ref" role="doc-noteref">1</a></sup>`},
		},
		{
			name: "href alone identifies a footnote",
			body: `<sup id="r2"><a href="#fn-2">2</a></sup>`,
			want: []string{`<span id="r2"></span><sup><a href="#fn-2">2</a></sup>`},
		},
		{
			name: "ordinary superscript untouched",
			body: `x<sup id="sq">2</sup>`,
			want: []string{`x<sup id="sq">2</sup>`},
		},
		{
			name: "doctype kept",
			body: `<p>hi</p>`,
			want: []string{"<!DOCTYPE html>"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(wrap(tt.body))
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in:\n%s", w, got)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("did not expect %q in:\n%s", w, got)
				}
			}
		})
	}
}

func TestApply_MultipleFootnotes(t *testing.T) {
	body := `<p>a<sup id="fnref:1"><a href="#fn:1" class="footnote-ref">1</a></sup>` +
		`b<sup id="fnref:2"><a href="#fn:2" class="footnote-ref">2</a></sup></p>`
	got, err := Apply(wrap(body))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if n := strings.Count(got, "<span id=\"fnref:"); n != 2 {
		t.Errorf("expected 2 hoisted ids, got %d in %s", n, got)
	}
	if strings.Contains(got, `<sup id=`) {
		t.Errorf("superscripts still carry ids: %s", got)
	}
}
