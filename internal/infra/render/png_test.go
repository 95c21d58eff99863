package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

func TestRenderPNG(t *testing.T) {
	g := &mindmap.Graph{
		Nodes: []mindmap.Node{
			{ID: "root", Label: "Go", Category: mindmap.CategoryRoot},
			{ID: "c1", Label: "Concurrency", Category: mindmap.CategoryCore},
			{ID: "p1", Label: "CLI tool", Category: mindmap.CategoryProject},
		},
		Edges: []mindmap.Edge{{From: "root", To: "c1"}, {From: "c1", To: "p1"}},
	}
	l := mindmap.Arrange(g)

	out, err := PNG{}.RenderPNG(l, "Go")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	b := img.Bounds()
	assert.Equal(t, int(l.Width+NodeWidth+2*Margin), b.Dx())
	assert.Equal(t, int(l.Height+NodeHeight+2*Margin+titleBand), b.Dy())

	// a point just inside the root box carries the root color
	x, y := Origin(l.Nodes[0].Position)
	r, gr, bl, _ := img.At(int(x)+12, int(y)+4).RGBA()
	assert.Equal(t, [3]uint32{0x1E, 0xAE, 0xDB}, [3]uint32{r >> 8, gr >> 8, bl >> 8})
}

func TestRenderEmptyLayout(t *testing.T) {
	out, err := PNG{}.RenderPNG(mindmap.Layout{}, "")
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(out))
	assert.NoError(t, err)
}
