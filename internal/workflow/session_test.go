package workflow

import (
	"sync"
	"testing"
)

func TestStateOf_UnknownUserIsIdle(t *testing.T) {
	s := NewSessions()
	if got := s.StateOf("nobody"); got != StateIdle {
		t.Errorf("expected idle for unknown user, got %s", got)
	}
}

func TestWith_PersistsMutations(t *testing.T) {
	s := NewSessions()
	s.With("u1", func(sess *Session) {
		sess.State = StateAwaitingEnrollImage
	})
	if got := s.StateOf("u1"); got != StateAwaitingEnrollImage {
		t.Errorf("expected mutation to persist, got %s", got)
	}
}

func TestWith_SerializesSameUser(t *testing.T) {
	s := NewSessions()

	const workers = 16
	const rounds = 100

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				s.With("u1", func(sess *Session) {
					counter++
				})
			}
		}()
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Errorf("expected %d serialized increments, got %d", workers*rounds, counter)
	}
}

func TestWith_IndependentUsers(t *testing.T) {
	s := NewSessions()
	s.With("u1", func(sess *Session) { sess.State = StateAwaitingEnrollImage })
	s.With("u2", func(sess *Session) { sess.State = StateAwaitingMatchImage })

	if got := s.StateOf("u1"); got != StateAwaitingEnrollImage {
		t.Errorf("u1 state clobbered, got %s", got)
	}
	if got := s.StateOf("u2"); got != StateAwaitingMatchImage {
		t.Errorf("u2 state clobbered, got %s", got)
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateIdle:                   "idle",
		StateAwaitingEnrollImage:    "awaiting-enroll-image",
		StateAwaitingEnrollName:     "awaiting-enroll-name",
		StateAwaitingRecognizeImage: "awaiting-recognize-image",
		StateAwaitingMatchImage:     "awaiting-match-image",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
