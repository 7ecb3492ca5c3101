package facemap

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// makeThumbnail decodes the image, crops it to the face bounding box when one
// is given, and scales the result to a size×size square thumbnail. Without a
// usable bbox the whole image is used.
func makeThumbnail(data []byte, bbox []float64, size int) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	src := img.Bounds()
	crop := faceRect(bbox, src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, crop, draw.Over, nil)
	return dst, nil
}

// faceRect converts a [x1, y1, x2, y2] pixel bbox into an image.Rectangle
// clamped to bounds. Falls back to the full bounds when the bbox is missing
// or degenerate.
func faceRect(bbox []float64, bounds image.Rectangle) image.Rectangle {
	if len(bbox) != 4 {
		return bounds
	}

	r := image.Rect(int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3]))
	r = r.Intersect(bounds)
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return bounds
	}
	return r
}
