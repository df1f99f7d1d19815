package editor

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

type ownedDraft struct {
	owner string
	draft *Draft
}

// Registry keeps unsaved drafts in memory, keyed by id and scoped to their owner.
type Registry struct {
	mu     sync.RWMutex
	drafts map[string]ownedDraft
	now    func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{drafts: map[string]ownedDraft{}, now: time.Now}
}

// Create registers d for owner, assigning a fresh id, and returns a copy.
func (r *Registry) Create(owner string, d *Draft) Draft {
	now := r.now()
	d.ID = quiz.NewID()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.Questions == nil {
		d.Questions = []quiz.Question{}
	}
	r.mu.Lock()
	r.drafts[d.ID] = ownedDraft{owner: owner, draft: d}
	r.mu.Unlock()
	return d.clone()
}

func (r *Registry) Get(owner, id string) (Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	od, ok := r.drafts[id]
	if !ok || od.owner != owner {
		return Draft{}, ErrDraftNotFound
	}
	return od.draft.clone(), nil
}

func (r *Registry) List(owner string) []Draft {
	r.mu.RLock()
	out := []Draft{}
	for _, od := range r.drafts {
		if od.owner == owner {
			out = append(out, od.draft.clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}

// Edit applies fn to the stored draft. A failing fn leaves the draft as it was.
func (r *Registry) Edit(owner, id string, fn func(d *Draft) error) (Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	od, ok := r.drafts[id]
	if !ok || od.owner != owner {
		return Draft{}, ErrDraftNotFound
	}
	work := od.draft.clone()
	if err := fn(&work); err != nil {
		return Draft{}, err
	}
	work.ID = id
	work.UpdatedAt = r.now()
	*od.draft = work
	return work.clone(), nil
}

func (r *Registry) Delete(owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	od, ok := r.drafts[id]
	if !ok || od.owner != owner {
		return ErrDraftNotFound
	}
	delete(r.drafts, id)
	return nil
}

// Sweep drops drafts untouched for longer than maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, od := range r.drafts {
		if od.draft.UpdatedAt.Before(cutoff) {
			delete(r.drafts, id)
			n++
		}
	}
	if n > 0 {
		log.Printf("editor: swept %d idle drafts", n)
	}
	return n
}
