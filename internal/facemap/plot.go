package facemap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// render draws the point set onto a white canvas: thumbnails (or text-only
// labels) centered at their scaled coordinates, the title at the top.
func render(points []Point, opts Options) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if opts.Title != "" {
		drawLabel(canvas, opts.Title, opts.Width/2, basicfont.Face7x13.Height*2, color.RGBA{0, 0, 0, 255})
	}

	for _, p := range points {
		// Coordinates are in [0,1]; keep thumbnails fully inside the canvas.
		cx := int(p.X * float64(opts.Width-opts.ThumbSize))
		cy := int(p.Y * float64(opts.Height-opts.ThumbSize))

		if p.Thumb != nil {
			target := image.Rect(cx, cy, cx+opts.ThumbSize, cy+opts.ThumbSize)
			xdraw.Draw(canvas, target, p.Thumb, p.Thumb.Bounds().Min, xdraw.Over)
		}
		drawLabel(canvas, p.Label, cx+opts.ThumbSize/2, cy+opts.ThumbSize+basicfont.Face7x13.Height, color.RGBA{40, 40, 40, 255})
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode map: %w", err)
	}
	return buf.Bytes(), nil
}

// drawLabel draws text horizontally centered on x at baseline y.
func drawLabel(dst *image.RGBA, text string, x, y int, c color.RGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Round()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x-width/2, y),
	}
	d.DrawString(text)
}
