package web

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/faceatlas/faceatlas/internal/workflow"
)

// maxUploadSize bounds photo event uploads.
const maxUploadSize = 20 << 20

// eventRequest is the JSON body of a text event.
type eventRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// replyPayload is one reply in an event response. Images are base64-encoded.
type replyPayload struct {
	Text    string `json:"text,omitempty"`
	Caption string `json:"caption,omitempty"`
	Image   string `json:"image,omitempty"`
}

type eventResponse struct {
	EventID string         `json:"event_id"`
	Replies []replyPayload `json:"replies"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// healthCheck handles the health check endpoint.
func healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// handleEvent accepts one chat event. Text events arrive as JSON, photo
// events as multipart form data with a user_id field and a photo file.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")

	var ev workflow.Event
	if strings.HasPrefix(contentType, "multipart/form-data") {
		photoEv, ok := parsePhotoEvent(w, r)
		if !ok {
			return
		}
		ev = photoEv
	} else {
		var req eventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.UserID == "" {
			respondError(w, http.StatusBadRequest, "user_id is required")
			return
		}
		if req.Text == "" {
			respondError(w, http.StatusBadRequest, "text is required")
			return
		}
		ev = workflow.Event{UserID: req.UserID, Kind: workflow.KindText, Text: req.Text}
	}

	eventID := uuid.NewString()
	log.Printf("web: event %s user=%s kind=%s", eventID, ev.UserID, ev.Kind)

	replies := s.engine.Handle(r.Context(), ev)

	resp := eventResponse{EventID: eventID, Replies: make([]replyPayload, 0, len(replies))}
	for _, reply := range replies {
		p := replyPayload{Text: reply.Text, Caption: reply.Caption}
		if len(reply.Image) > 0 {
			p.Image = base64.StdEncoding.EncodeToString(reply.Image)
		}
		resp.Replies = append(resp.Replies, p)
	}
	respondJSON(w, http.StatusOK, resp)
}

// parsePhotoEvent reads a multipart photo event. It writes the error
// response itself and reports success through the bool.
func parsePhotoEvent(w http.ResponseWriter, r *http.Request) (workflow.Event, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return workflow.Event{}, false
	}

	userID := r.FormValue("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return workflow.Event{}, false
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		respondError(w, http.StatusBadRequest, "photo file is required")
		return workflow.Event{}, false
	}
	defer file.Close()

	photo, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read photo")
		return workflow.Event{}, false
	}

	return workflow.Event{UserID: userID, Kind: workflow.KindPhoto, Photo: photo}, true
}
