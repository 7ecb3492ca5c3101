// Package facemap assembles every known face (enrolled identities plus the
// reference catalog) into one labeled point set, projects it to 2-D through
// an external projector and renders the result as a PNG similarity map.
package facemap

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/faceatlas/faceatlas/internal/catalog"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/identity"
)

// ErrInsufficientData is returned when fewer than two points are available;
// a 2-D projection is undefined below that.
var ErrInsufficientData = errors.New("need at least two faces to draw a map")

// Projector reduces N embeddings of equal dimensionality to N 2-D
// coordinates. The math lives outside this package.
type Projector interface {
	Project(ctx context.Context, embeddings [][]float32) ([][2]float64, error)
}

// CatalogLister is the catalog surface the assembler needs.
type CatalogLister interface {
	ListAll(ctx context.Context) ([]catalog.Entry, error)
}

// Point is one face on the map. Coordinates are normalized into the unit
// square with the y-range compressed below the title margin. Thumb is nil
// when no thumbnail could be produced; the renderer then falls back to a
// text-only label.
type Point struct {
	Label string
	X, Y  float64
	Thumb image.Image
}

// Map is the assembled similarity map.
type Map struct {
	PNG    []byte
	Points []Point
}

// Options controls map geometry.
type Options struct {
	Width     int
	Height    int
	ThumbSize int
	TopMargin float64 // fraction of the y-axis reserved for the title
	Title     string
}

// Assembler gathers identities and catalog entries into one point set.
type Assembler struct {
	identities identity.Store
	catalog    CatalogLister
	provider   embedding.Provider
	projector  Projector
	opts       Options
}

// NewAssembler creates an assembler over the given stores.
func NewAssembler(ids identity.Store, cat CatalogLister, provider embedding.Provider, projector Projector, opts Options) *Assembler {
	return &Assembler{
		identities: ids,
		catalog:    cat,
		provider:   provider,
		projector:  projector,
		opts:       opts,
	}
}

// source is one gathered point before projection.
type source struct {
	label     string
	embedding []float32
	image     []byte
	bbox      []float64 // known face bbox, nil when the image needs re-detection
}

// Assemble gathers all points, projects them, normalizes coordinates and
// renders the PNG. Order is identities first, then catalog entries.
func (a *Assembler) Assemble(ctx context.Context) (*Map, error) {
	sources, err := a.gather(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) < 2 {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientData, len(sources))
	}

	embeddings := make([][]float32, len(sources))
	for i, s := range sources {
		embeddings[i] = s.embedding
	}

	raw, err := a.projector.Project(ctx, embeddings)
	if err != nil {
		return nil, fmt.Errorf("projecting %d embeddings: %w", len(embeddings), err)
	}

	coords := normalize(raw, a.opts.TopMargin)

	points := make([]Point, len(sources))
	for i, s := range sources {
		points[i] = Point{
			Label: s.label,
			X:     coords[i][0],
			Y:     coords[i][1],
			Thumb: a.thumbnail(ctx, s),
		}
	}

	png, err := render(points, a.opts)
	if err != nil {
		return nil, fmt.Errorf("rendering map: %w", err)
	}

	return &Map{PNG: png, Points: points}, nil
}

// gather collects identities then catalog entries.
func (a *Assembler) gather(ctx context.Context) ([]source, error) {
	ids, err := a.identities.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identities: %w", err)
	}

	var sources []source
	for _, id := range ids {
		sources = append(sources, source{label: id.Name, embedding: id.Embedding, image: id.Image})
	}

	entries, err := a.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing catalog: %w", err)
	}
	for _, e := range entries {
		img, err := catalog.ReadImage(e)
		if err != nil {
			// The embedding is still usable; only the thumbnail is lost.
			img = nil
		}
		sources = append(sources, source{label: e.Name, embedding: e.Embedding, image: img, bbox: e.BBox})
	}

	return sources, nil
}

// thumbnail crops the point's source image to its face region and downscales
// it. Any failure degrades to a nil thumbnail, never an error.
func (a *Assembler) thumbnail(ctx context.Context, s source) image.Image {
	if len(s.image) == 0 {
		return nil
	}

	bbox := s.bbox
	if bbox == nil {
		// Identity images were stored without a bbox; re-detect, best effort.
		if faces, err := a.provider.Detect(ctx, s.image); err == nil && len(faces) > 0 {
			bbox = faces[0].BBox
		}
	}

	thumb, err := makeThumbnail(s.image, bbox, a.opts.ThumbSize)
	if err != nil {
		return nil
	}
	return thumb
}

// normalize scales raw projector output into the unit square. The x-range
// maps to [0,1]; the y-range is compressed into [topMargin,1] so the title
// has room at the top. Degenerate axes collapse to the center.
func normalize(raw [][2]float64, topMargin float64) [][2]float64 {
	minX, maxX := raw[0][0], raw[0][0]
	minY, maxY := raw[0][1], raw[0][1]
	for _, p := range raw {
		minX = min(minX, p[0])
		maxX = max(maxX, p[0])
		minY = min(minY, p[1])
		maxY = max(maxY, p[1])
	}

	out := make([][2]float64, len(raw))
	for i, p := range raw {
		x := 0.5
		if maxX > minX {
			x = (p[0] - minX) / (maxX - minX)
		}
		y := 0.5
		if maxY > minY {
			y = (p[1] - minY) / (maxY - minY)
		}
		out[i] = [2]float64{x, topMargin + (1-topMargin)*y}
	}
	return out
}
