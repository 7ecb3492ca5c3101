package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/embedding/mock"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func oneFace(emb []float32) []embedding.Face {
	return []embedding.Face{{BBox: []float64{0, 0, 10, 10}, Embedding: emb, DetScore: 0.9}}
}

func TestListAll_FirstSingleFaceImageWins(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()

	// a.jpg has two faces, b.jpg has one; b.jpg must be indexed.
	writeFile(t, filepath.Join(dir, "Marie Curie", "a.jpg"), []byte("two-faces"))
	writeFile(t, filepath.Join(dir, "Marie Curie", "b.jpg"), []byte("one-face"))
	provider.SetFaces([]byte("two-faces"), []embedding.Face{
		{Embedding: []float32{1}}, {Embedding: []float32{2}},
	})
	provider.SetFaces([]byte("one-face"), oneFace([]float32{3, 4}))

	store := NewStore(dir, provider)
	entries, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Name != "Marie Curie" {
		t.Errorf("expected entry name from directory, got '%s'", entries[0].Name)
	}
	if entries[0].Embedding[0] != 3 {
		t.Errorf("expected embedding from single-face image, got %v", entries[0].Embedding)
	}
	if filepath.Base(entries[0].ImagePath) != "b.jpg" {
		t.Errorf("expected b.jpg indexed, got %s", entries[0].ImagePath)
	}
}

func TestListAll_SkipsGroupsWithNoQualifyingImage(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()

	writeFile(t, filepath.Join(dir, "Nobody", "face.jpg"), []byte("no-face"))
	writeFile(t, filepath.Join(dir, "Somebody", "face.jpg"), []byte("face"))
	provider.SetFaces([]byte("face"), oneFace([]float32{1}))

	store := NewStore(dir, provider)
	entries, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Somebody" {
		t.Errorf("expected only 'Somebody', got %+v", entries)
	}
}

func TestListAll_IgnoresNonImageFiles(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()

	writeFile(t, filepath.Join(dir, "Ada", "notes.txt"), []byte("face"))
	provider.SetFaces([]byte("face"), oneFace([]float32{1}))

	store := NewStore(dir, provider)
	entries, err := store.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries from non-image files, got %d", len(entries))
	}
}

func TestListAll_RescansEveryCall(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()

	writeFile(t, filepath.Join(dir, "Ada", "face.jpg"), []byte("face"))
	provider.SetFaces([]byte("face"), oneFace([]float32{1}))

	store := NewStore(dir, provider)
	store.ListAll(context.Background())
	first := provider.Calls
	store.ListAll(context.Background())

	if provider.Calls <= first {
		t.Error("expected a fresh provider scan on every ListAll call")
	}
}

func TestListAll_ProviderErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()
	provider.DetectError = embedding.ErrProviderUnavailable

	writeFile(t, filepath.Join(dir, "Ada", "face.jpg"), []byte("face"))

	store := NewStore(dir, provider)
	_, err := store.ListAll(context.Background())
	if !errors.Is(err, embedding.ErrProviderUnavailable) {
		t.Errorf("expected provider error to propagate, got %v", err)
	}
}

func TestListAll_ProgressCallback(t *testing.T) {
	dir := t.TempDir()
	provider := mock.NewProvider()

	writeFile(t, filepath.Join(dir, "A", "face.jpg"), []byte("face"))
	writeFile(t, filepath.Join(dir, "B", "face.jpg"), []byte("face"))
	provider.SetFaces([]byte("face"), oneFace([]float32{1}))

	store := NewStore(dir, provider)
	var calls []int
	store.OnProgress(func(done, total int) {
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
		calls = append(calls, done)
	})

	store.ListAll(context.Background())
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("expected progress 1,2 got %v", calls)
	}
}
