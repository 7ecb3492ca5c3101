package workflow

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/faceatlas/faceatlas/internal/embedding"
)

const (
	annotateLineWidth = 4
	annotateMaxSize   = 1280
	jpegQuality       = 85
)

// annotateFaces draws a box and label over every detected face and returns
// the photo re-encoded as JPEG, downscaled to a sane size.
func annotateFaces(photo []byte, faces []embedding.Face, labels []string) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)

	red := color.RGBA{255, 0, 0, 255}
	for i, face := range faces {
		if len(face.BBox) != 4 {
			continue
		}
		x1, y1 := int(face.BBox[0]), int(face.BBox[1])
		x2, y2 := int(face.BBox[2]), int(face.BBox[3])

		for w := range annotateLineWidth {
			drawHLine(dst, x1, x2, y1+w, red)
			drawHLine(dst, x1, x2, y2-w, red)
			drawVLine(dst, y1, y2, x1+w, red)
			drawVLine(dst, y1, y2, x2-w, red)
		}

		if i < len(labels) {
			drawText(dst, labels[i], x1, y2+basicfont.Face7x13.Height+2, red)
		}
	}

	resized := resizeToMax(dst, annotateMaxSize)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode annotated photo: %w", err)
	}
	return buf.Bytes(), nil
}

// drawHLine draws a horizontal line on the image.
func drawHLine(dst *image.RGBA, x1, x2, y int, c color.RGBA) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := x1; x <= x2; x++ {
		if x >= bounds.Min.X && x < bounds.Max.X {
			dst.Set(x, y, c)
		}
	}
}

// drawVLine draws a vertical line on the image.
func drawVLine(dst *image.RGBA, y1, y2, x int, c color.RGBA) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := y1; y <= y2; y++ {
		if y >= bounds.Min.Y && y < bounds.Max.Y {
			dst.Set(x, y, c)
		}
	}
}

// drawText draws a label at baseline (x, y).
func drawText(dst *image.RGBA, text string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// resizeToMax scales the image down so neither dimension exceeds maxSize,
// keeping the aspect ratio. Smaller images pass through unchanged.
func resizeToMax(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= maxSize && height <= maxSize {
		return img
	}

	var newWidth, newHeight int
	if width > height {
		newWidth = maxSize
		newHeight = height * maxSize / width
	} else {
		newHeight = maxSize
		newWidth = width * maxSize / height
	}

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)
	return resized
}
