package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// jpegHeader is enough of a JPEG for MIME sniffing.
var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46}

func TestClient_Detect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/faces" {
			t.Errorf("expected path /faces, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("failed to parse multipart form: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected form file 'file': %v", err)
		}

		resp := facesResponse{
			FacesCount: 2,
			Faces: []Face{
				{BBox: []float64{10, 10, 50, 50}, Embedding: []float32{0.1, 0.2}, DetScore: 0.99},
				{BBox: []float64{60, 10, 90, 50}, Embedding: []float32{0.3, 0.4}, DetScore: 0.95},
			},
			Model: "buffalo_l",
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	faces, err := client.Detect(context.Background(), jpegHeader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	if faces[0].Embedding[0] != 0.1 {
		t.Errorf("expected first embedding value 0.1, got %f", faces[0].Embedding[0])
	}
}

func TestClient_Detect_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Detect(context.Background(), jpegHeader)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Detect_Unreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")
	_, err := client.Detect(context.Background(), jpegHeader)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Project(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/project" {
			t.Errorf("expected path /project, got %s", r.URL.Path)
		}
		var req projectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		points := make([][2]float64, len(req.Embeddings))
		for i := range points {
			points[i] = [2]float64{float64(i), float64(i) * 2}
		}
		json.NewEncoder(w).Encode(projectResponse{Points: points})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	points, err := client.Project(context.Background(), [][]float32{{1, 2}, {3, 4}, {5, 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	if points[2][1] != 4 {
		t.Errorf("expected point value 4, got %f", points[2][1])
	}
}

func TestClient_Project_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(projectResponse{Points: [][2]float64{{0, 0}}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Project(context.Background(), [][]float32{{1}, {2}})
	if err == nil {
		t.Error("expected error for point count mismatch")
	}
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", jpegHeader, "image/jpeg"},
		{"png", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"short", []byte{0x01}, "application/octet-stream"},
		{"unknown", []byte{0, 1, 2, 3, 4, 5, 6, 7}, "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := detectMIMEType(tt.data); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}
