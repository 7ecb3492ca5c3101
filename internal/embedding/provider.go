// Package embedding talks to the face embedding sidecar service. The sidecar
// owns all pixel-level work: face detection, embedding computation and 2-D
// projection of embedding sets.
package embedding

import (
	"context"
	"errors"
)

var (
	// ErrNoFaceDetected is returned when an operation requires a face and none was found.
	ErrNoFaceDetected = errors.New("no face detected in image")

	// ErrMultipleFaces is returned when an operation requires exactly one face.
	ErrMultipleFaces = errors.New("multiple faces detected, expected one")

	// ErrProviderUnavailable wraps transport failures talking to the sidecar.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)

// Face is a single detected face: its bounding box in raw pixel
// coordinates [x1, y1, x2, y2], its embedding and the detection confidence.
type Face struct {
	BBox      []float64 `json:"bbox"`
	Embedding []float32 `json:"embedding"`
	DetScore  float64   `json:"det_score"`
}

// Provider detects faces and computes one embedding per detected face.
type Provider interface {
	// Detect returns zero or more faces found in the image, order unspecified.
	Detect(ctx context.Context, image []byte) ([]Face, error)
}

// DetectSingle runs detection and requires exactly one face in the image.
func DetectSingle(ctx context.Context, p Provider, image []byte) (Face, error) {
	faces, err := p.Detect(ctx, image)
	if err != nil {
		return Face{}, err
	}
	switch len(faces) {
	case 0:
		return Face{}, ErrNoFaceDetected
	case 1:
		return faces[0], nil
	default:
		return Face{}, ErrMultipleFaces
	}
}
