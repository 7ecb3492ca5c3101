// Package memory provides a mutex-guarded in-memory identity store. It backs
// tests and database-less runs; the postgres package provides durability.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/faceatlas/faceatlas/internal/identity"
	"github.com/faceatlas/faceatlas/internal/match"
)

// Store is an in-memory implementation of identity.Store. All methods are
// safe for concurrent use; reads return deep copies so callers never observe
// a torn record.
type Store struct {
	mu         sync.RWMutex
	identities map[string]identity.Identity // keyed by identity.Key

	// Error injection for tests.
	EnrollError  error
	ListAllError error
	ResetError   error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{identities: make(map[string]identity.Identity)}
}

// Enroll stores or overwrites the identity under its normalized key.
func (s *Store) Enroll(ctx context.Context, id identity.Identity) error {
	if s.EnrollError != nil {
		return s.EnrollError
	}

	name, err := identity.ValidateName(id.Name)
	if err != nil {
		return err
	}
	id.Name = name

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities[identity.Key(name)] = copyIdentity(id)
	return nil
}

// ListAll returns all identities ordered by key.
func (s *Store) ListAll(ctx context.Context) ([]identity.Identity, error) {
	if s.ListAllError != nil {
		return nil, s.ListAllError
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.identities))
	for k := range s.identities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]identity.Identity, 0, len(keys))
	for _, k := range keys {
		out = append(out, copyIdentity(s.identities[k]))
	}
	return out, nil
}

// ResetAll deletes every identity. Calling it on an empty store is a no-op.
func (s *Store) ResetAll(ctx context.Context) error {
	if s.ResetError != nil {
		return s.ResetError
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.identities = make(map[string]identity.Identity)
	return nil
}

// FindSimilar returns up to limit identities ordered by ascending Euclidean
// distance to the query embedding.
func (s *Store) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]identity.Identity, []float64, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		id   identity.Identity
		dist float64
	}
	results := make([]scored, 0, len(all))
	for _, id := range all {
		d, err := match.Distance(embedding, id.Embedding)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, scored{id: id, dist: d})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].dist < results[j].dist })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	ids := make([]identity.Identity, len(results))
	dists := make([]float64, len(results))
	for i, r := range results {
		ids[i] = r.id
		dists[i] = r.dist
	}
	return ids, dists, nil
}

func copyIdentity(id identity.Identity) identity.Identity {
	out := identity.Identity{Name: id.Name}
	if id.Embedding != nil {
		out.Embedding = append([]float32(nil), id.Embedding...)
	}
	if id.Image != nil {
		out.Image = append([]byte(nil), id.Image...)
	}
	return out
}
