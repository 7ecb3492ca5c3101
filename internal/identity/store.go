// Package identity defines the durable store of enrolled face identities:
// one embedding and one reference image per name.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidName is returned when an identity name is empty or cannot be
	// used as a store key.
	ErrInvalidName = errors.New("invalid identity name")

	// ErrStoreUnavailable wraps persistence I/O failures.
	ErrStoreUnavailable = errors.New("identity store unavailable")
)

// Identity is a named, enrolled face embedding. Image holds the reference
// photo the identity was enrolled from; it may be nil for stores that do not
// keep images.
type Identity struct {
	Name      string
	Embedding []float32
	Image     []byte
}

// Store persists identities keyed by name. Enrolling an existing name
// overwrites the slot (re-enroll semantics); names differing only in case or
// diacritics share a slot.
type Store interface {
	// Enroll stores or overwrites the identity. Fails with ErrInvalidName
	// when the name does not validate.
	Enroll(ctx context.Context, id Identity) error

	// ListAll returns every identity in stable order within a call.
	ListAll(ctx context.Context) ([]Identity, error)

	// ResetAll deletes every identity. Idempotent.
	ResetAll(ctx context.Context) error
}

// NearestFinder is implemented by stores that support accelerated
// nearest-identity lookup. Results are ordered by ascending distance.
type NearestFinder interface {
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]Identity, []float64, error)
}
