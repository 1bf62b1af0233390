package render

import (
	"regexp"
	"strings"

	"github.com/dgallion1/mdpage/internal/blocks"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// inlineImage matches an inline image, capturing an optional " =WxH" size
// on its destination as in ![alt](src =250x) or ![alt](src =250x100 "title").
var inlineImage = regexp.MustCompile(`(!\[[^\]]*\]\()([^)\s]+)(?:\s+=(\d*)x(\d*))?((?:\s+"[^"]*")?\))`)

var imageSizesKey = parser.NewContextKey()

type imageSize struct {
	width, height string
}

// imageSizes queues one entry per image occurrence, in document order, for
// each destination that is sized at least once. Unsized occurrences hold an
// empty entry.
type imageSizes map[string][]imageSize

// stripImageSizes removes size annotations from prose segments so goldmark
// parses the images, and returns the sizes it removed.
func stripImageSizes(segs []blocks.Segment) ([]blocks.Segment, imageSizes) {
	sizes := imageSizes{}
	sized := map[string]bool{}
	out := make([]blocks.Segment, len(segs))
	for i, seg := range segs {
		if seg.Prose() && strings.Contains(seg.Text, "](") {
			seg.Text = inlineImage.ReplaceAllStringFunc(seg.Text, func(m string) string {
				g := inlineImage.FindStringSubmatch(m)
				s := imageSize{width: g[3], height: g[4]}
				if s != (imageSize{}) {
					sized[g[2]] = true
				}
				sizes[g[2]] = append(sizes[g[2]], s)
				return g[1] + g[2] + g[5]
			})
		}
		out[i] = seg
	}
	for dest := range sizes {
		if !sized[dest] {
			delete(sizes, dest)
		}
	}
	return out, sizes
}

type imageSizeTransformer struct{}

func (imageSizeTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	sizes, _ := pc.Get(imageSizesKey).(imageSizes)
	if len(sizes) == 0 {
		return
	}
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		img, ok := n.(*ast.Image)
		if !entering || !ok {
			return ast.WalkContinue, nil
		}
		dest := string(img.Destination)
		queue := sizes[dest]
		if len(queue) == 0 {
			return ast.WalkContinue, nil
		}
		s := queue[0]
		sizes[dest] = queue[1:]
		if s.width != "" {
			img.SetAttributeString("width", []byte(s.width))
		}
		if s.height != "" {
			img.SetAttributeString("height", []byte(s.height))
		}
		return ast.WalkContinue, nil
	})
}
