// Package workflow implements the per-user conversational state machine that
// sequences the enroll, recognize, celebrity-match and map workflows. It
// consumes transport-agnostic events and yields reply intents; message
// delivery belongs to the transport layer.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/faceatlas/faceatlas/internal/catalog"
	"github.com/faceatlas/faceatlas/internal/embedding"
	"github.com/faceatlas/faceatlas/internal/facemap"
	"github.com/faceatlas/faceatlas/internal/identity"
	"github.com/faceatlas/faceatlas/internal/match"
)

// Kind tags an inbound event.
type Kind string

const (
	KindText  Kind = "text"
	KindPhoto Kind = "photo"
)

// Event is one inbound chat event.
type Event struct {
	UserID string
	Kind   Kind
	Text   string
	Photo  []byte
}

// Reply is one outbound intent. Image-bearing replies may carry a caption.
type Reply struct {
	Text    string
	Image   []byte
	Caption string
}

// CatalogLister is the catalog surface the workflow needs.
type CatalogLister interface {
	ListAll(ctx context.Context) ([]catalog.Entry, error)
}

// MapAssembler builds the similarity map for the map command.
type MapAssembler interface {
	Assemble(ctx context.Context) (*facemap.Map, error)
}

// Config holds the collaborators of an Engine.
type Config struct {
	Identities identity.Store
	Catalog    CatalogLister
	Provider   embedding.Provider
	Assembler  MapAssembler
	Threshold  float64
}

// Engine dispatches events through per-user sessions.
type Engine struct {
	sessions   *Sessions
	identities identity.Store
	catalog    CatalogLister
	provider   embedding.Provider
	assembler  MapAssembler
	threshold  float64
}

// NewEngine creates a workflow engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{
		sessions:   NewSessions(),
		identities: cfg.Identities,
		catalog:    cfg.Catalog,
		provider:   cfg.Provider,
		assembler:  cfg.Assembler,
		threshold:  cfg.Threshold,
	}
}

// Sessions exposes the session store, mainly for tests and diagnostics.
func (e *Engine) Sessions() *Sessions {
	return e.sessions
}

// Handle processes one inbound event and returns the reply intents. Errors
// are translated into user-facing replies; no error escapes a workflow step.
func (e *Engine) Handle(ctx context.Context, ev Event) []Reply {
	var replies []Reply
	e.sessions.With(ev.UserID, func(s *Session) {
		replies = e.dispatch(ctx, s, ev)
	})
	return replies
}

const (
	msgGreeting = "Hi! I can remember faces and find look-alikes.\n" +
		"/enroll - teach me a new face\n" +
		"/recognize - name everyone in a photo\n" +
		"/match - find the closest celebrity\n" +
		"/map - draw a similarity map of all known faces\n" +
		"/reset - forget every enrolled face"
	msgSendEnrollPhoto    = "Send me a photo with exactly one face."
	msgSendRecognizePhoto = "Send me a photo and I will name everyone I recognize."
	msgSendMatchPhoto     = "Send me a photo with one face and I will find the closest celebrity."
	msgAskName            = "Got it! What is this person's name?"
	msgNoFace             = "I could not find a face in that photo. Try another one."
	msgMultipleFaces      = "I need exactly one face in the photo, but I found several. Try another one."
	msgReset              = "All enrolled identities have been removed."
	msgEnrollDesync       = "Something went wrong with the enrollment. Please start over with /enroll."
	msgEmptyCatalog       = "The celebrity catalog is empty, so there is nothing to match against."
	msgMapTooFew          = "I need at least two known faces to draw a map. Enroll someone with /enroll first."
	msgGenericFailure     = "Sorry, something went wrong. Please try again."
)

// dispatch advances the session for a single event and produces replies.
func (e *Engine) dispatch(ctx context.Context, s *Session, ev Event) []Reply {
	if ev.Kind == KindText {
		if cmd := command(ev.Text); cmd != "" {
			return e.handleCommand(ctx, s, cmd)
		}
	}

	switch {
	case s.State == StateAwaitingEnrollImage && ev.Kind == KindPhoto:
		return e.enrollPhoto(ctx, s, ev.Photo)
	case s.State == StateAwaitingEnrollName && ev.Kind == KindText:
		return e.enrollName(ctx, s, ev.Text)
	case s.State == StateAwaitingRecognizeImage && ev.Kind == KindPhoto:
		return e.recognizePhoto(ctx, s, ev.Photo)
	case s.State == StateAwaitingMatchImage && ev.Kind == KindPhoto:
		return e.matchPhoto(ctx, s, ev.Photo)
	case ev.Kind == KindText:
		// Unmatched text: echo, state unchanged.
		return []Reply{{Text: ev.Text}}
	default:
		// Unmatched photo: ignore, state unchanged.
		return nil
	}
}

// command extracts a leading slash command from a text message, or "".
func command(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(text, " ")
	return strings.ToLower(cmd)
}

// handleCommand processes slash commands. Reset works from any state; the
// workflow-starting commands only fire from Idle, matching anywhere else is
// an unmatched pair and echoes.
func (e *Engine) handleCommand(ctx context.Context, s *Session, cmd string) []Reply {
	if cmd == "/reset" {
		s.pending = nil
		s.State = StateIdle
		if err := e.identities.ResetAll(ctx); err != nil {
			log.Printf("workflow: reset failed: %v", err)
			return []Reply{{Text: msgGenericFailure}}
		}
		return []Reply{{Text: msgReset}}
	}

	if cmd == "/start" {
		return []Reply{{Text: msgGreeting}}
	}

	if s.State != StateIdle {
		// Competing command mid-workflow: unmatched pair, state unchanged.
		return []Reply{{Text: fmt.Sprintf("Please finish the current step first, or send /reset. (state: %s)", s.State)}}
	}

	switch cmd {
	case "/enroll":
		s.State = StateAwaitingEnrollImage
		return []Reply{{Text: msgSendEnrollPhoto}}
	case "/recognize":
		s.State = StateAwaitingRecognizeImage
		return []Reply{{Text: msgSendRecognizePhoto}}
	case "/match":
		s.State = StateAwaitingMatchImage
		return []Reply{{Text: msgSendMatchPhoto}}
	case "/map":
		return e.renderMap(ctx)
	default:
		return []Reply{{Text: "I do not know that command. Send /start for the list."}}
	}
}

// enrollPhoto handles the photo step of enrollment. Face-count problems keep
// the session in the awaiting state; provider failures reset to Idle.
func (e *Engine) enrollPhoto(ctx context.Context, s *Session, photo []byte) []Reply {
	face, err := embedding.DetectSingle(ctx, e.provider, photo)
	switch {
	case errors.Is(err, embedding.ErrNoFaceDetected):
		return []Reply{{Text: msgNoFace}}
	case errors.Is(err, embedding.ErrMultipleFaces):
		return []Reply{{Text: msgMultipleFaces}}
	case err != nil:
		log.Printf("workflow: enroll detection failed: %v", err)
		s.State = StateIdle
		return []Reply{{Text: msgGenericFailure}}
	}

	s.pending = &pendingEnrollment{Embedding: face.Embedding, Photo: photo}
	s.State = StateAwaitingEnrollName
	return []Reply{{Text: msgAskName}}
}

// enrollName commits the pending enrollment under the given name.
func (e *Engine) enrollName(ctx context.Context, s *Session, name string) []Reply {
	if s.pending == nil {
		// State and data went out of sync; do not enroll.
		s.State = StateIdle
		return []Reply{{Text: msgEnrollDesync}}
	}

	err := e.identities.Enroll(ctx, identity.Identity{
		Name:      name,
		Embedding: s.pending.Embedding,
		Image:     s.pending.Photo,
	})
	if errors.Is(err, identity.ErrInvalidName) {
		return []Reply{{Text: "That name cannot be used. Please send a different one."}}
	}
	if err != nil {
		log.Printf("workflow: enroll failed: %v", err)
		s.pending = nil
		s.State = StateIdle
		return []Reply{{Text: msgGenericFailure}}
	}

	s.pending = nil
	s.State = StateIdle
	return []Reply{{Text: fmt.Sprintf("Enrolled %s. I will recognize them from now on.", strings.TrimSpace(name))}}
}

// recognizePhoto labels every detected face against the enrolled identities
// and produces one composite reply. The session returns to Idle regardless
// of the outcome.
func (e *Engine) recognizePhoto(ctx context.Context, s *Session, photo []byte) []Reply {
	s.State = StateIdle

	faces, err := e.provider.Detect(ctx, photo)
	if err != nil {
		log.Printf("workflow: recognize detection failed: %v", err)
		return []Reply{{Text: msgGenericFailure}}
	}
	if len(faces) == 0 {
		return []Reply{{Text: "I could not find any faces in that photo."}}
	}

	known, err := e.identities.ListAll(ctx)
	if err != nil {
		log.Printf("workflow: listing identities failed: %v", err)
		return []Reply{{Text: msgGenericFailure}}
	}
	candidates := make([]match.Candidate, len(known))
	for i, id := range known {
		candidates[i] = match.Candidate{Label: id.Name, Embedding: id.Embedding}
	}

	labels := make([]string, len(faces))
	for i, face := range faces {
		labels[i] = match.Unknown
		if len(candidates) == 0 {
			continue
		}
		res, err := match.LabelWithThreshold(face.Embedding, candidates, e.threshold)
		if err != nil {
			log.Printf("workflow: labeling face %d failed: %v", i, err)
			continue
		}
		labels[i] = res.Label
	}

	reply := Reply{Caption: "I see: " + strings.Join(labels, ", ")}
	if annotated, err := annotateFaces(photo, faces, labels); err == nil {
		reply.Image = annotated
	} else {
		// Annotation is best effort; fall back to the label list alone.
		reply.Text = reply.Caption
		reply.Caption = ""
	}
	return []Reply{reply}
}

// matchPhoto finds the closest catalog entry for a single-face photo.
// An empty catalog keeps the session awaiting a retry.
func (e *Engine) matchPhoto(ctx context.Context, s *Session, photo []byte) []Reply {
	face, err := embedding.DetectSingle(ctx, e.provider, photo)
	switch {
	case errors.Is(err, embedding.ErrNoFaceDetected):
		return []Reply{{Text: msgNoFace}}
	case errors.Is(err, embedding.ErrMultipleFaces):
		return []Reply{{Text: msgMultipleFaces}}
	case err != nil:
		log.Printf("workflow: match detection failed: %v", err)
		s.State = StateIdle
		return []Reply{{Text: msgGenericFailure}}
	}

	entries, err := e.catalog.ListAll(ctx)
	if err != nil {
		log.Printf("workflow: catalog scan failed: %v", err)
		s.State = StateIdle
		return []Reply{{Text: msgGenericFailure}}
	}
	if len(entries) == 0 {
		return []Reply{{Text: msgEmptyCatalog}}
	}

	candidates := make([]match.Candidate, len(entries))
	for i, entry := range entries {
		candidates[i] = match.Candidate{Label: entry.Name, Embedding: entry.Embedding}
	}
	best, err := match.BestMatch(face.Embedding, candidates)
	if err != nil {
		log.Printf("workflow: best match failed: %v", err)
		s.State = StateIdle
		return []Reply{{Text: msgGenericFailure}}
	}

	s.State = StateIdle

	caption := fmt.Sprintf("Closest match: %s (distance %.2f)", best.Label, best.Distance)
	for _, entry := range entries {
		if entry.Name != best.Label {
			continue
		}
		if img, err := catalog.ReadImage(entry); err == nil {
			return []Reply{{Image: img, Caption: caption}}
		}
		break
	}
	return []Reply{{Text: caption}}
}

// renderMap runs the map command from Idle. Too few points is an expected,
// informational outcome.
func (e *Engine) renderMap(ctx context.Context) []Reply {
	m, err := e.assembler.Assemble(ctx)
	if errors.Is(err, facemap.ErrInsufficientData) {
		return []Reply{{Text: msgMapTooFew}}
	}
	if err != nil {
		log.Printf("workflow: map assembly failed: %v", err)
		return []Reply{{Text: msgGenericFailure}}
	}
	return []Reply{
		{Text: fmt.Sprintf("Here is the map of all %d known faces.", len(m.Points))},
		{Image: m.PNG},
	}
}
