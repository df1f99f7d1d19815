package attempt

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

const (
	ReasonSubmitted = "submitted"
	ReasonTimeUp    = "time_up"
)

// AttemptSink receives finished attempts; quiz.Store satisfies it.
type AttemptSink interface {
	AddAttempt(ctx context.Context, owner string, a quiz.Attempt) error
}

// Outcome records how a user's last attempt ended when nobody was waiting on it,
// so the next request can tell them.
type Outcome struct {
	Attempt quiz.Attempt `json:"attempt"`
	Reason  string       `json:"reason"`
	Error   string       `json:"error,omitempty"`
}

// Manager owns the single active session of each user.
type Manager struct {
	mu       sync.Mutex
	active   map[string]*Session
	outcomes map[string]Outcome
	sink     AttemptSink
	events   syncx.Recorder
	opts     Options
}

func NewManager(sink AttemptSink, events syncx.Recorder, opts Options) *Manager {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if events == nil {
		events = syncx.LogRecorder{}
	}
	return &Manager{
		active:   map[string]*Session{},
		outcomes: map[string]Outcome{},
		sink:     sink,
		events:   events,
		opts:     opts,
	}
}

// Begin starts an attempt on t for owner and arms its countdown.
func (m *Manager) Begin(owner string, t quiz.Test) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.active[owner]; ok {
		return View{}, ErrAttemptActive
	}
	s, err := Start(t, m.opts)
	if err != nil {
		return View{}, err
	}
	id := s.ID
	s.Arm(func() { m.expire(owner, id) })
	m.active[owner] = s
	delete(m.outcomes, owner)
	return s.View(), nil
}

// Current returns the active session view.
func (m *Manager) Current(owner string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[owner]
	if !ok {
		return View{}, ErrNoActiveTest
	}
	return s.View(), nil
}

// Do runs fn against the active session while holding the manager lock.
func (m *Manager) Do(owner string, fn func(s *Session) error) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[owner]
	if !ok {
		return View{}, ErrNoActiveTest
	}
	if err := fn(s); err != nil {
		return s.View(), err
	}
	return s.View(), nil
}

// Submit grades the active attempt, stores it and clears the session. The session is
// cleared even if storing fails.
func (m *Manager) Submit(ctx context.Context, owner string) (quiz.Attempt, error) {
	s := m.detach(owner)
	if s == nil {
		return quiz.Attempt{}, ErrNoActiveTest
	}
	a := s.Finish()
	if err := m.persist(ctx, owner, a, syncx.TypeAttemptSubmitted); err != nil {
		return a, err
	}
	return a, nil
}

// Abandon discards the active attempt without recording it.
func (m *Manager) Abandon(owner string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	s := m.detach(owner)
	if s == nil {
		return ErrNoActiveTest
	}
	return nil
}

// TakeOutcome returns and forgets the result of an attempt that ended on its own.
func (m *Manager) TakeOutcome(owner string) (Outcome, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outcomes[owner]
	if ok {
		delete(m.outcomes, owner)
	}
	return o, ok
}

// Active reports how many sessions are in progress.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Shutdown stops every countdown; in-progress attempts are dropped.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for owner, s := range m.active {
		s.Disarm()
		delete(m.active, owner)
	}
}

func (m *Manager) detach(owner string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[owner]
	if !ok {
		return nil
	}
	delete(m.active, owner)
	s.Disarm()
	return s
}

// expire is the countdown callback. The session id guards against a timer that fired
// for a session which was already submitted and replaced.
func (m *Manager) expire(owner, sessionID string) {
	m.mu.Lock()
	s, ok := m.active[owner]
	if !ok || s.ID != sessionID {
		m.mu.Unlock()
		return
	}
	delete(m.active, owner)
	a := s.Finish()
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	o := Outcome{Attempt: a, Reason: ReasonTimeUp}
	if err := m.persist(ctx, owner, a, syncx.TypeAttemptTimedOut); err != nil {
		o.Error = err.Error()
	}
	log.Printf("attempt %s for %s auto-submitted: time up (score %.2f%%)", a.ID, owner, a.Score)

	m.mu.Lock()
	m.outcomes[owner] = o
	m.mu.Unlock()
}

func (m *Manager) persist(ctx context.Context, owner string, a quiz.Attempt, typ string) error {
	if m.sink != nil {
		if err := m.sink.AddAttempt(ctx, owner, a); err != nil {
			return fmt.Errorf("store attempt: %w", err)
		}
	}
	ev := syncx.NewEvent(typ, a.ID, map[string]any{
		"user_id": owner,
		"test_id": a.Test.ID,
		"score":   a.Score,
	})
	if err := m.events.Append(ctx, ev); err != nil {
		log.Printf("event log append failed: %v", err)
	}
	return nil
}
