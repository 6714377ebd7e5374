package sketch

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
)

// RenderPNG rasterizes a drawing to PNG bytes. The optional label is
// drawn in the top-left corner for export listings.
func RenderPNG(d Drawing, label string) ([]byte, error) {
	width, height := d.Width, d.Height
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 600
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	for _, stroke := range d.Lines {
		if len(stroke.Points) == 0 {
			continue
		}

		dc.SetHexColor(brushColor(stroke.BrushColor))
		radius := stroke.BrushRadius
		if radius <= 0 {
			radius = 1
		}

		if len(stroke.Points) == 1 {
			// a tap leaves a dot
			p := stroke.Points[0]
			dc.DrawCircle(p.X, p.Y, radius)
			dc.Fill()
			continue
		}

		dc.SetLineWidth(radius * 2)
		for i := 0; i < len(stroke.Points)-1; i++ {
			p1 := stroke.Points[i]
			p2 := stroke.Points[i+1]
			dc.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
			dc.Stroke()
		}
	}

	if label != "" {
		ttfFont, err := truetype.Parse(gomono.TTF)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font: %v", err)
		}
		face := truetype.NewFace(ttfFont, &truetype.Options{
			Size:    12.0,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		dc.SetFontFace(face)
		dc.SetColor(color.Black)
		dc.DrawString(label, 4, 14)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode sketch PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// brushColor maps a stored brush color to a drawable hex color.
func brushColor(c string) string {
	if len(c) > 0 && c[0] == '#' {
		return c
	}
	switch c {
	case "red":
		return "#df4b26"
	case "black":
		return "#000000"
	case "blue":
		return "#2662df"
	default:
		return "#df4b26"
	}
}
