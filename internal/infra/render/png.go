// Package render draws laid-out mind maps as PNG images.
package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/bryanwahyu/skillscope/internal/domain/mindmap"
)

const (
	NodeWidth  = 160.0
	NodeHeight = 56.0
	Margin     = 40.0
	titleBand  = 40.0
	background = "#FFFFFF"
	textColor  = "#FFFFFF"
	titleColor = "#222222"
)

// PNG renders with the built-in bitmap font, so no font files are needed at runtime.
type PNG struct{}

// Origin is the top-left corner of a node box on the canvas.
func Origin(p mindmap.Position) (float64, float64) {
	return p.X + Margin, p.Y + Margin + titleBand
}

func (PNG) RenderPNG(l mindmap.Layout, title string) ([]byte, error) {
	w := int(math.Ceil(l.Width + NodeWidth + 2*Margin))
	h := int(math.Ceil(l.Height + NodeHeight + 2*Margin + titleBand))

	dc := gg.NewContext(w, h)
	dc.SetHexColor(background)
	dc.Clear()

	if title != "" {
		dc.SetHexColor(titleColor)
		dc.DrawStringAnchored(title, float64(w)/2, Margin, 0.5, 0.5)
	}

	centers := make(map[string][2]float64, len(l.Nodes))
	for _, n := range l.Nodes {
		x, y := Origin(n.Position)
		centers[n.ID] = [2]float64{x + NodeWidth/2, y + NodeHeight/2}
	}

	dc.SetLineWidth(2)
	for _, e := range l.Edges {
		from, ok1 := centers[e.From]
		to, ok2 := centers[e.To]
		if !ok1 || !ok2 {
			continue
		}
		dc.SetHexColor(e.Color)
		dc.DrawLine(from[0], from[1], to[0], to[1])
		dc.Stroke()
	}

	for _, n := range l.Nodes {
		x, y := Origin(n.Position)
		dc.SetHexColor(n.Color)
		dc.DrawRoundedRectangle(x, y, NodeWidth, NodeHeight, 8)
		dc.Fill()
		dc.SetHexColor(textColor)
		dc.DrawStringWrapped(n.Label, x+NodeWidth/2, y+NodeHeight/2, 0.5, 0.5, NodeWidth-16, 1.3, gg.AlignCenter)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
