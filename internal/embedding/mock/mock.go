// Package mock provides an in-memory embedding provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/faceatlas/faceatlas/internal/embedding"
)

// Provider is a mock implementation of embedding.Provider. Detection results
// are keyed by the image content as a string, so tests can script responses
// per image.
type Provider struct {
	mu    sync.RWMutex
	faces map[string][]embedding.Face

	// DetectError is returned by Detect when set.
	DetectError error

	// Calls counts Detect invocations.
	Calls int
}

// NewProvider creates an empty mock provider.
func NewProvider() *Provider {
	return &Provider{faces: make(map[string][]embedding.Face)}
}

// SetFaces scripts the detection result for an image.
func (p *Provider) SetFaces(image []byte, faces []embedding.Face) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.faces[string(image)] = faces
}

// Detect returns the scripted faces for the image, or no faces when the
// image was never scripted.
func (p *Provider) Detect(ctx context.Context, image []byte) ([]embedding.Face, error) {
	p.mu.Lock()
	p.Calls++
	p.mu.Unlock()

	if p.DetectError != nil {
		return nil, p.DetectError
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.faces[string(image)], nil
}
