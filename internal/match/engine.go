// Package match implements distance computation and identity selection over
// face embedding vectors. All functions are pure and safe for concurrent use.
package match

import (
	"errors"
	"fmt"
	"math"
)

// Unknown is the label reported when no candidate is close enough to the query.
const Unknown = "Unknown"

var (
	// ErrDimensionMismatch is returned when two embeddings have different lengths.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")

	// ErrNoCandidates is returned when matching against an empty candidate set.
	ErrNoCandidates = errors.New("no candidates to match against")
)

// Candidate pairs a label with its enrolled embedding.
type Candidate struct {
	Label     string
	Embedding []float32
}

// Result is the outcome of a single match request.
type Result struct {
	Label    string
	Distance float64
}

// Distance computes the Euclidean distance between two embeddings.
// Lower distance means more similar faces.
func Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// BestMatch returns the candidate with the minimal distance to the query.
// Ties are broken by first occurrence in candidates.
func BestMatch(query []float32, candidates []Candidate) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	best := Result{Distance: math.Inf(1)}
	for _, c := range candidates {
		d, err := Distance(query, c.Embedding)
		if err != nil {
			return Result{}, fmt.Errorf("candidate %q: %w", c.Label, err)
		}
		if d < best.Distance {
			best = Result{Label: c.Label, Distance: d}
		}
	}
	return best, nil
}

// LabelWithThreshold labels the query with its globally nearest candidate,
// or Unknown when the nearest candidate is farther than threshold.
//
// Policy: the selection is always the global minimum distance, never the
// first candidate under the threshold. When two candidates are both within
// threshold the closer one wins, independent of enrollment order.
func LabelWithThreshold(query []float32, candidates []Candidate, threshold float64) (Result, error) {
	best, err := BestMatch(query, candidates)
	if err != nil {
		return Result{}, err
	}
	if best.Distance > threshold {
		return Result{Label: Unknown, Distance: best.Distance}, nil
	}
	return best, nil
}
