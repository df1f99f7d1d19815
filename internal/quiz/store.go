package quiz

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrTestNotFound    = errors.New("test not found")
	ErrAttemptNotFound = errors.New("attempt not found")
)

type AttemptListOpts struct {
	TestID string // filter by the snapshot's test id
	Limit  int
	Offset int
}

// Store persists tests and attempts. Every method is scoped to owner; one account can
// never read or overwrite another's records.
type Store interface {
	ListTests(ctx context.Context, owner string) ([]Test, error)
	GetTest(ctx context.Context, owner, id string) (Test, error)
	PutTest(ctx context.Context, owner string, t Test) error
	DeleteTest(ctx context.Context, owner, id string) error

	// ListAttempts returns history most recent first.
	ListAttempts(ctx context.Context, owner string, opts AttemptListOpts) ([]Attempt, error)
	GetAttempt(ctx context.Context, owner, id string) (Attempt, error)
	// AddAttempt appends to history; an attempt id that already exists is left as is.
	AddAttempt(ctx context.Context, owner string, a Attempt) error
}

// Export collects the owner's full backup document.
func Export(ctx context.Context, s Store, owner string) (Backup, error) {
	tests, err := s.ListTests(ctx, owner)
	if err != nil {
		return Backup{}, err
	}
	attempts, err := s.ListAttempts(ctx, owner, AttemptListOpts{})
	if err != nil {
		return Backup{}, err
	}
	return Backup{Tests: tests, Attempts: attempts}, nil
}

// Restore merges a backup into the owner's storage and returns the merged result.
func Restore(ctx context.Context, s Store, owner string, incoming Backup) (Backup, error) {
	for i := range incoming.Tests {
		if incoming.Tests[i].ID == "" {
			incoming.Tests[i].ID = NewID()
		}
	}
	for i := range incoming.Attempts {
		if incoming.Attempts[i].ID == "" {
			incoming.Attempts[i].ID = NewID()
		}
	}
	for _, t := range incoming.Tests {
		if err := ValidateTest(t); err != nil {
			return Backup{}, err
		}
	}
	for i, a := range incoming.Attempts {
		if err := ValidateAttempt(a); err != nil {
			return Backup{}, err
		}
		incoming.Attempts[i] = Grade(a)
	}
	existing, err := Export(ctx, s, owner)
	if err != nil {
		return Backup{}, err
	}
	merged := MergeBackup(existing, incoming)

	// Later duplicates inside one import replace earlier ones, so only the final copy
	// of each id is written.
	last := map[string]Test{}
	for _, t := range incoming.Tests {
		last[t.ID] = t
	}
	for _, t := range merged.Tests {
		if _, ok := last[t.ID]; !ok {
			continue
		}
		if err := s.PutTest(ctx, owner, t); err != nil {
			return Backup{}, err
		}
	}
	for _, a := range incoming.Attempts {
		if err := s.AddAttempt(ctx, owner, a); err != nil {
			return Backup{}, err
		}
	}
	return merged, nil
}

func NewID() string { return uuid.NewString() }

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
