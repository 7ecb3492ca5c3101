package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/pgvector/pgvector-go"

	"github.com/faceatlas/faceatlas/internal/identity"
)

// Repository is the PostgreSQL-backed identity.Store. Mutations are
// serialized by a store-scoped mutex so concurrent enroll/reset calls from
// different sessions never interleave their read-modify-write.
type Repository struct {
	pool *Pool

	writeMu sync.Mutex

	hnswMu      sync.RWMutex
	hnswIndex   *Index
	hnswEnabled bool
}

// NewRepository creates a new PostgreSQL identity repository.
func NewRepository(pool *Pool) *Repository {
	return &Repository{pool: pool}
}

// Enroll stores or overwrites the identity under its normalized key (upsert).
func (r *Repository) Enroll(ctx context.Context, id identity.Identity) error {
	name, err := identity.ValidateName(id.Name)
	if err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	vec := pgvector.NewVector(id.Embedding)
	_, err = r.pool.db.ExecContext(ctx, `
		INSERT INTO identities (key, name, embedding, image, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (key)
		DO UPDATE SET name = $2, embedding = $3, image = $4, created_at = NOW()
	`, identity.Key(name), name, vec, id.Image)
	if err != nil {
		return fmt.Errorf("%w: enroll %q: %v", identity.ErrStoreUnavailable, name, err)
	}

	r.hnswMu.RLock()
	idx := r.hnswIndex
	r.hnswMu.RUnlock()
	if idx != nil {
		idx.Add(identity.Identity{Name: name, Embedding: id.Embedding, Image: id.Image})
	}

	return nil
}

// ListAll returns every identity ordered by key.
func (r *Repository) ListAll(ctx context.Context) ([]identity.Identity, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT name, embedding, image
		FROM identities
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list identities: %v", identity.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []identity.Identity
	for rows.Next() {
		var id identity.Identity
		var vec pgvector.Vector
		if err := rows.Scan(&id.Name, &vec, &id.Image); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		id.Embedding = vec.Slice()
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list identities: %v", identity.ErrStoreUnavailable, err)
	}

	return out, nil
}

// ResetAll deletes every identity. Idempotent.
func (r *Repository) ResetAll(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if _, err := r.pool.db.ExecContext(ctx, "DELETE FROM identities"); err != nil {
		return fmt.Errorf("%w: reset identities: %v", identity.ErrStoreUnavailable, err)
	}

	r.hnswMu.Lock()
	if r.hnswIndex != nil {
		r.hnswIndex = NewIndex()
	}
	r.hnswMu.Unlock()

	return nil
}

// FindSimilar returns up to limit identities ordered by ascending Euclidean
// distance. Uses the in-memory HNSW index when enabled, otherwise pgvector.
func (r *Repository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]identity.Identity, []float64, error) {
	r.hnswMu.RLock()
	idx := r.hnswIndex
	enabled := r.hnswEnabled
	r.hnswMu.RUnlock()

	if enabled && idx != nil {
		return idx.Search(embedding, limit)
	}
	return r.findSimilarPostgres(ctx, embedding, limit)
}

// findSimilarPostgres queries PostgreSQL using the pgvector <-> operator.
func (r *Repository) findSimilarPostgres(ctx context.Context, embedding []float32, limit int) ([]identity.Identity, []float64, error) {
	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT name, embedding, image, embedding <-> $1 AS distance
		FROM identities
		ORDER BY distance
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: find similar: %v", identity.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var ids []identity.Identity
	var dists []float64
	for rows.Next() {
		var id identity.Identity
		var v pgvector.Vector
		var d float64
		if err := rows.Scan(&id.Name, &v, &id.Image, &d); err != nil {
			return nil, nil, fmt.Errorf("scan similar identity: %w", err)
		}
		id.Embedding = v.Slice()
		ids = append(ids, id)
		dists = append(dists, d)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: find similar: %v", identity.ErrStoreUnavailable, err)
	}

	return ids, dists, nil
}

// EnableHNSW builds the in-memory HNSW index from all stored identities and
// switches FindSimilar to the indexed path.
func (r *Repository) EnableHNSW(ctx context.Context) error {
	all, err := r.ListAll(ctx)
	if err != nil {
		return err
	}

	idx := NewIndex()
	for _, id := range all {
		idx.Add(id)
	}

	r.hnswMu.Lock()
	r.hnswIndex = idx
	r.hnswEnabled = true
	r.hnswMu.Unlock()

	return nil
}

// HNSWCount returns the number of identities in the HNSW index.
func (r *Repository) HNSWCount() int {
	r.hnswMu.RLock()
	defer r.hnswMu.RUnlock()
	if r.hnswIndex == nil {
		return 0
	}
	return r.hnswIndex.Len()
}
