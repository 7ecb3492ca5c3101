package postgres

import (
	"sync"

	"github.com/coder/hnsw"

	"github.com/faceatlas/faceatlas/internal/identity"
	"github.com/faceatlas/faceatlas/internal/match"
)

// hnswMaxNeighbors is the M parameter of the HNSW graph.
const hnswMaxNeighbors = 16

// Index wraps an HNSW graph over identity embeddings, keyed by the
// normalized identity key.
type Index struct {
	mu         sync.RWMutex
	graph      *hnsw.Graph[string]
	keyToIdent map[string]identity.Identity
}

// NewIndex creates a new empty index.
func NewIndex() *Index {
	return &Index{keyToIdent: make(map[string]identity.Identity)}
}

// Add inserts or replaces an identity in the index.
func (ix *Index) Add(id identity.Identity) {
	if len(id.Embedding) == 0 {
		return
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.graph == nil {
		g := hnsw.NewGraph[string]()
		g.M = hnswMaxNeighbors
		g.Ml = 1.0 / float64(hnswMaxNeighbors)
		g.Distance = hnsw.EuclideanDistance
		ix.graph = g
	}

	key := identity.Key(id.Name)
	ix.graph.Add(hnsw.MakeNode(key, id.Embedding))
	ix.keyToIdent[key] = id
}

// Search returns the k nearest identities and their Euclidean distances.
func (ix *Index) Search(query []float32, k int) ([]identity.Identity, []float64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if ix.graph == nil {
		return nil, nil, nil
	}

	neighbors := ix.graph.Search(query, k)

	ids := make([]identity.Identity, 0, len(neighbors))
	dists := make([]float64, 0, len(neighbors))
	for _, n := range neighbors {
		id, ok := ix.keyToIdent[n.Key]
		if !ok {
			continue
		}
		// Recompute the exact distance from the node value; the graph's
		// internal ordering is approximate.
		d, err := match.Distance(query, n.Value)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		dists = append(dists, d)
	}

	return ids, dists, nil
}

// Len returns the number of identities in the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.keyToIdent)
}
