// Package catalog indexes the read-only reference catalog: a directory tree
// with one subdirectory per entry (the entry name) holding one or more images
// of that person.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faceatlas/faceatlas/internal/embedding"
)

// Entry is one catalog person: the embedding of their indexed reference
// image and the path to that image.
type Entry struct {
	Name      string
	Embedding []float32
	BBox      []float64 // face bounding box in the indexed image, [x1, y1, x2, y2] pixels
	ImagePath string
}

// Progress reports scan progress after each catalog group.
type Progress func(done, total int)

// Store scans the catalog directory. Every ListAll call re-scans the whole
// tree and re-invokes the embedding provider; there is no cache. This keeps
// the store trivially consistent with the directory contents at the cost of
// repeated provider calls on large catalogs.
type Store struct {
	dir      string
	provider embedding.Provider
	progress Progress
}

// NewStore creates a catalog store rooted at dir.
func NewStore(dir string, provider embedding.Provider) *Store {
	return &Store{dir: dir, provider: provider}
}

// OnProgress registers a progress callback for subsequent scans.
func (s *Store) OnProgress(fn Progress) {
	s.progress = fn
}

// ListAll scans every catalog group in lexicographic order. Within a group,
// images are tried in lexicographic order and the first image with exactly
// one detected face is indexed; groups with no qualifying image are skipped.
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	groups, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir %s: %w", s.dir, err)
	}

	var dirs []os.DirEntry
	for _, g := range groups {
		if g.IsDir() {
			dirs = append(dirs, g)
		}
	}

	entries := make([]Entry, 0, len(dirs))
	for i, g := range dirs {
		entry, ok, err := s.scanGroup(ctx, g.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, entry)
		}
		if s.progress != nil {
			s.progress(i+1, len(dirs))
		}
	}

	return entries, nil
}

// scanGroup finds the first image in the group directory with exactly one
// detected face. Returns ok=false when no image qualifies.
func (s *Store) scanGroup(ctx context.Context, name string) (Entry, bool, error) {
	groupDir := filepath.Join(s.dir, name)
	files, err := os.ReadDir(groupDir)
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading catalog group %s: %w", name, err)
	}

	for _, f := range files {
		if f.IsDir() || !isImageFile(f.Name()) {
			continue
		}

		path := filepath.Join(groupDir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return Entry{}, false, fmt.Errorf("reading catalog image %s: %w", path, err)
		}

		faces, err := s.provider.Detect(ctx, data)
		if err != nil {
			return Entry{}, false, fmt.Errorf("detecting faces in %s: %w", path, err)
		}
		if len(faces) != 1 {
			continue
		}

		return Entry{Name: name, Embedding: faces[0].Embedding, BBox: faces[0].BBox, ImagePath: path}, true, nil
	}

	return Entry{}, false, nil
}

// ReadImage loads the reference image of a catalog entry.
func ReadImage(e Entry) ([]byte, error) {
	data, err := os.ReadFile(e.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("reading catalog image %s: %w", e.ImagePath, err)
	}
	return data, nil
}

// isImageFile reports whether the filename has a known image extension.
func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return true
	}
	return false
}
