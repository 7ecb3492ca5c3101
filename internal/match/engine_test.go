package match

import (
	"errors"
	"math"
	"testing"
)

func TestDistance_Euclidean(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{3, 4, 0}

	d, err := Distance(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(d-5.0) > 1e-9 {
		t.Errorf("expected distance 5.0, got %f", d)
	}
}

func TestDistance_Identical(t *testing.T) {
	a := []float32{0.1, 0.2, 0.3}

	d, err := Distance(a, a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != 0 {
		t.Errorf("expected distance 0 for identical vectors, got %f", d)
	}
}

func TestDistance_DimensionMismatch(t *testing.T) {
	_, err := Distance([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestBestMatch_PicksMinimum(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{Label: "far", Embedding: []float32{10, 0}},
		{Label: "near", Embedding: []float32{1.5, 0}},
		{Label: "middle", Embedding: []float32{3, 0}},
	}

	res, err := BestMatch(query, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "near" {
		t.Errorf("expected label 'near', got '%s'", res.Label)
	}
	if math.Abs(res.Distance-0.5) > 1e-6 {
		t.Errorf("expected distance 0.5, got %f", res.Distance)
	}
}

func TestBestMatch_TieBreaksByOrder(t *testing.T) {
	query := []float32{0, 0}
	candidates := []Candidate{
		{Label: "first", Embedding: []float32{1, 0}},
		{Label: "second", Embedding: []float32{0, 1}},
	}

	res, err := BestMatch(query, candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "first" {
		t.Errorf("expected tie broken by first occurrence, got '%s'", res.Label)
	}
}

func TestBestMatch_Empty(t *testing.T) {
	_, err := BestMatch([]float32{1}, nil)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}

func TestBestMatch_DimensionMismatch(t *testing.T) {
	_, err := BestMatch([]float32{1, 2}, []Candidate{{Label: "bad", Embedding: []float32{1}}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestLabelWithThreshold_WithinThreshold(t *testing.T) {
	query := []float32{0, 0}
	candidates := []Candidate{
		{Label: "ada", Embedding: []float32{0.3, 0}},
	}

	res, err := LabelWithThreshold(query, candidates, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "ada" {
		t.Errorf("expected label 'ada', got '%s'", res.Label)
	}
}

func TestLabelWithThreshold_Unknown(t *testing.T) {
	query := []float32{0, 0}
	candidates := []Candidate{
		{Label: "ada", Embedding: []float32{5, 0}},
	}

	res, err := LabelWithThreshold(query, candidates, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != Unknown {
		t.Errorf("expected label Unknown, got '%s'", res.Label)
	}
	if math.Abs(res.Distance-5.0) > 1e-6 {
		t.Errorf("expected distance of nearest candidate, got %f", res.Distance)
	}
}

func TestLabelWithThreshold_GlobalMinimumWins(t *testing.T) {
	// Both candidates are within threshold; the closer one must win even
	// though it comes second.
	query := []float32{0, 0}
	candidates := []Candidate{
		{Label: "close", Embedding: []float32{0.5, 0}},
		{Label: "closer", Embedding: []float32{0.1, 0}},
	}

	res, err := LabelWithThreshold(query, candidates, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Label != "closer" {
		t.Errorf("expected global minimum 'closer', got '%s'", res.Label)
	}
}

func TestLabelWithThreshold_Empty(t *testing.T) {
	_, err := LabelWithThreshold([]float32{1}, nil, 0.6)
	if !errors.Is(err, ErrNoCandidates) {
		t.Errorf("expected ErrNoCandidates, got %v", err)
	}
}
