package facemap

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/faceatlas/faceatlas/internal/catalog"
	"github.com/faceatlas/faceatlas/internal/embedding/mock"
	"github.com/faceatlas/faceatlas/internal/identity"
	"github.com/faceatlas/faceatlas/internal/identity/memory"
)

// fakeProjector spreads points along the diagonal.
type fakeProjector struct {
	err   error
	calls int
}

func (f *fakeProjector) Project(ctx context.Context, embeddings [][]float32) ([][2]float64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][2]float64, len(embeddings))
	for i := range out {
		out[i] = [2]float64{float64(i) * 10, float64(i) * -5}
	}
	return out, nil
}

// fakeCatalog returns a fixed entry list.
type fakeCatalog struct {
	entries []catalog.Entry
	err     error
}

func (f *fakeCatalog) ListAll(ctx context.Context) ([]catalog.Entry, error) {
	return f.entries, f.err
}

func testOptions() Options {
	return Options{Width: 400, Height: 300, ThumbSize: 32, TopMargin: 0.12, Title: "Face similarity map"}
}

// testPNG returns the bytes of a small solid-color PNG.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestAssemble_InsufficientData(t *testing.T) {
	store := memory.NewStore()
	asm := NewAssembler(store, &fakeCatalog{}, mock.NewProvider(), &fakeProjector{}, testOptions())

	_, err := asm.Assemble(context.Background())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData with 0 points, got %v", err)
	}

	store.Enroll(context.Background(), identity.Identity{Name: "Ada", Embedding: []float32{1, 2}})
	_, err = asm.Assemble(context.Background())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData with 1 point, got %v", err)
	}
}

func TestAssemble_CoordinatesInUnitSquare(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Enroll(ctx, identity.Identity{Name: "Ada", Embedding: []float32{1, 0}})
	store.Enroll(ctx, identity.Identity{Name: "Grace", Embedding: []float32{0, 1}})

	cat := &fakeCatalog{entries: []catalog.Entry{
		{Name: "Marie Curie", Embedding: []float32{1, 1}},
	}}

	opts := testOptions()
	asm := NewAssembler(store, cat, mock.NewProvider(), &fakeProjector{}, opts)

	m, err := asm.Assemble(ctx)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if len(m.Points) != 3 {
		t.Fatalf("expected a coordinate for every input point, got %d", len(m.Points))
	}

	for _, p := range m.Points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Errorf("point %s outside unit square: (%f, %f)", p.Label, p.X, p.Y)
		}
		if p.Y < opts.TopMargin {
			t.Errorf("point %s inside reserved title margin: y=%f", p.Label, p.Y)
		}
	}

	// Identities come first, catalog entries after.
	if m.Points[0].Label != "Ada" || m.Points[2].Label != "Marie Curie" {
		t.Errorf("unexpected point order: %s ... %s", m.Points[0].Label, m.Points[2].Label)
	}

	if len(m.PNG) == 0 {
		t.Fatal("expected rendered PNG")
	}
	if _, err := png.Decode(bytes.NewReader(m.PNG)); err != nil {
		t.Errorf("rendered map is not a valid PNG: %v", err)
	}
}

func TestAssemble_ThumbnailFailureDegradesToLabel(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	// Image bytes that do not decode; the point must survive without a thumb.
	store.Enroll(ctx, identity.Identity{Name: "Ada", Embedding: []float32{1, 0}, Image: []byte("not an image")})
	store.Enroll(ctx, identity.Identity{Name: "Grace", Embedding: []float32{0, 1}})

	asm := NewAssembler(store, &fakeCatalog{}, mock.NewProvider(), &fakeProjector{}, testOptions())

	m, err := asm.Assemble(ctx)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	for _, p := range m.Points {
		if p.Thumb != nil {
			t.Errorf("expected no thumbnail for %s", p.Label)
		}
	}
}

func TestAssemble_IdentityThumbnailFromStoredImage(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Enroll(ctx, identity.Identity{Name: "Ada", Embedding: []float32{1, 0}, Image: testPNG(t)})
	store.Enroll(ctx, identity.Identity{Name: "Grace", Embedding: []float32{0, 1}})

	opts := testOptions()
	asm := NewAssembler(store, &fakeCatalog{}, mock.NewProvider(), &fakeProjector{}, opts)

	m, err := asm.Assemble(ctx)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	thumb := m.Points[0].Thumb
	if thumb == nil {
		t.Fatal("expected thumbnail from stored identity image")
	}
	if thumb.Bounds().Dx() != opts.ThumbSize || thumb.Bounds().Dy() != opts.ThumbSize {
		t.Errorf("expected %dx%d thumbnail, got %v", opts.ThumbSize, opts.ThumbSize, thumb.Bounds())
	}
}

func TestAssemble_CatalogThumbnailUsesKnownBBox(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "face.png")
	if err := os.WriteFile(imgPath, testPNG(t), 0600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	store := memory.NewStore()
	store.Enroll(ctx, identity.Identity{Name: "Ada", Embedding: []float32{1, 0}})

	provider := mock.NewProvider()
	cat := &fakeCatalog{entries: []catalog.Entry{
		{Name: "Marie Curie", Embedding: []float32{0, 1}, BBox: []float64{2, 2, 18, 18}, ImagePath: imgPath},
	}}

	asm := NewAssembler(store, cat, provider, &fakeProjector{}, testOptions())
	m, err := asm.Assemble(ctx)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if m.Points[1].Thumb == nil {
		t.Error("expected catalog thumbnail from indexed image")
	}
	if provider.Calls != 0 {
		t.Errorf("expected no re-detection when bbox is known, got %d calls", provider.Calls)
	}
}

func TestAssemble_ProjectorErrorPropagates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	store.Enroll(ctx, identity.Identity{Name: "Ada", Embedding: []float32{1, 0}})
	store.Enroll(ctx, identity.Identity{Name: "Grace", Embedding: []float32{0, 1}})

	wantErr := errors.New("projector down")
	asm := NewAssembler(store, &fakeCatalog{}, mock.NewProvider(), &fakeProjector{err: wantErr}, testOptions())

	_, err := asm.Assemble(ctx)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected projector error to propagate, got %v", err)
	}
}

func TestNormalize_DegenerateAxisCollapsesToCenter(t *testing.T) {
	out := normalize([][2]float64{{5, 1}, {5, 2}}, 0.1)
	for _, p := range out {
		if p[0] != 0.5 {
			t.Errorf("expected degenerate x-axis to collapse to 0.5, got %f", p[0])
		}
	}
	if out[0][1] != 0.1 || out[1][1] != 1.0 {
		t.Errorf("expected y normalized to [margin,1], got %v", out)
	}
}
