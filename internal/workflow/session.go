package workflow

import "sync"

// State is the position of a user's conversation in the workflow.
type State int

const (
	StateIdle State = iota
	StateAwaitingEnrollImage
	StateAwaitingEnrollName
	StateAwaitingRecognizeImage
	StateAwaitingMatchImage
)

// String returns a readable state name for logs and tests.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingEnrollImage:
		return "awaiting-enroll-image"
	case StateAwaitingEnrollName:
		return "awaiting-enroll-name"
	case StateAwaitingRecognizeImage:
		return "awaiting-recognize-image"
	case StateAwaitingMatchImage:
		return "awaiting-match-image"
	default:
		return "unknown"
	}
}

// pendingEnrollment holds the two-phase enrollment state: the embedding and
// photo captured in the image step, committed to the store only when the
// user supplies a name.
type pendingEnrollment struct {
	Embedding []float32
	Photo     []byte
}

// Session is one user's conversational state. It is owned by exactly one
// user, created lazily on their first event and kept for the process
// lifetime.
type Session struct {
	State   State
	pending *pendingEnrollment
}

// sessionEntry pairs a session with its per-user lock.
type sessionEntry struct {
	mu sync.Mutex
	s  Session
}

// Sessions maps user IDs to sessions. Each user has their own lock, held for
// the duration of one event, so one user's events are processed strictly in
// order while different users proceed concurrently.
type Sessions struct {
	mu sync.Mutex
	m  map[string]*sessionEntry
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*sessionEntry)}
}

// With runs fn with exclusive access to the user's session, creating an idle
// session on first use.
func (s *Sessions) With(userID string, fn func(*Session)) {
	s.mu.Lock()
	entry, ok := s.m[userID]
	if !ok {
		entry = &sessionEntry{}
		s.m[userID] = entry
	}
	s.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(&entry.s)
}

// StateOf returns the user's current state without creating a session.
func (s *Sessions) StateOf(userID string) State {
	s.mu.Lock()
	entry, ok := s.m[userID]
	s.mu.Unlock()
	if !ok {
		return StateIdle
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.s.State
}
