package quiz

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/kv"
)

const (
	keyTests    = "tests"
	keyAttempts = "attempts"
)

type ownedTest struct {
	UserID string `json:"user_id"`
	Test
}

type ownedAttempt struct {
	UserID string `json:"user_id"`
	Attempt
}

// KVStore keeps every account's tests and attempts in two shared lists inside a kv
// document, filtering by owner on each read.
type KVStore struct {
	mu sync.Mutex
	g  kv.Gateway
}

func NewKVStore(g kv.Gateway) *KVStore { return &KVStore{g: g} }

func (s *KVStore) tests() []ownedTest       { return kv.GetOr(s.g, keyTests, []ownedTest{}) }
func (s *KVStore) attempts() []ownedAttempt { return kv.GetOr(s.g, keyAttempts, []ownedAttempt{}) }

func (s *KVStore) ListTests(_ context.Context, owner string) ([]Test, error) {
	s.mu.Lock()
	all := s.tests()
	s.mu.Unlock()
	out := []Test{}
	for _, t := range all {
		if t.UserID == owner {
			out = append(out, t.Test)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *KVStore) GetTest(_ context.Context, owner, id string) (Test, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tests() {
		if t.UserID == owner && t.ID == id {
			return t.Test, nil
		}
	}
	return Test{}, ErrTestNotFound
}

func (s *KVStore) PutTest(_ context.Context, owner string, t Test) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.tests()
	for i := range all {
		if all[i].UserID == owner && all[i].ID == t.ID {
			all[i].Test = t
			return s.g.Set(keyTests, all)
		}
	}
	all = append(all, ownedTest{UserID: owner, Test: t})
	return s.g.Set(keyTests, all)
}

func (s *KVStore) DeleteTest(_ context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.tests()
	for i := range all {
		if all[i].UserID == owner && all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return s.g.Set(keyTests, all)
		}
	}
	return ErrTestNotFound
}

func (s *KVStore) ListAttempts(_ context.Context, owner string, opts AttemptListOpts) ([]Attempt, error) {
	s.mu.Lock()
	all := s.attempts()
	s.mu.Unlock()
	out := []Attempt{}
	for _, a := range all {
		if a.UserID != owner {
			continue
		}
		if opts.TestID != "" && a.Test.ID != opts.TestID {
			continue
		}
		out = append(out, a.Attempt)
	}
	SortAttempts(out)
	return page(out, opts.Limit, opts.Offset), nil
}

func (s *KVStore) GetAttempt(_ context.Context, owner, id string) (Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts() {
		if a.UserID == owner && a.ID == id {
			return a.Attempt, nil
		}
	}
	return Attempt{}, ErrAttemptNotFound
}

func (s *KVStore) AddAttempt(_ context.Context, owner string, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.attempts()
	for _, x := range all {
		if x.UserID == owner && x.ID == a.ID {
			return nil
		}
	}
	// prepend: history is kept most recent first
	all = append([]ownedAttempt{{UserID: owner, Attempt: a}}, all...)
	return s.g.Set(keyAttempts, all)
}
