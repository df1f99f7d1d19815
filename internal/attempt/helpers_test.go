package attempt

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *fakeClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) ticker(t *testing.T, i int) *fakeTicker {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if i >= len(c.tickers) {
		t.Fatalf("ticker %d not created (have %d)", i, len(c.tickers))
	}
	return c.tickers[i]
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               { t.stopped.Store(true) }

// tick delivers one tick, reporting false if nobody received it within wait.
func (t *fakeTicker) tick(wait time.Duration) bool {
	select {
	case t.ch <- time.Now():
		return true
	case <-time.After(wait):
		return false
	}
}

func sampleTest(n int) quiz.Test {
	qs := make([]quiz.Question, n)
	for i := range qs {
		qs[i] = quiz.Question{
			Prompt:  "Q",
			Options: []string{"a", "b", "c", "d"},
			Answer:  i % 4,
			Subject: "Math",
			Topic:   "Algebra",
		}
	}
	return quiz.Test{ID: "t1", Name: "Sample", Questions: qs, Duration: 1, MarksPerQuestion: 1}
}

func (s *Session) status(i int) Status { return s.statuses[i] }
