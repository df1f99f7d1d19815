package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

func q(prompt string) quiz.Question {
	return quiz.Question{
		Prompt:  prompt,
		Options: []string{"a", "b", "c", "d"},
		Answer:  1,
		Subject: "Math",
		Topic:   "Algebra",
	}
}

func prompts(d Draft) []string {
	out := make([]string, len(d.Questions))
	for i, q := range d.Questions {
		out[i] = q.Prompt
	}
	return out
}

func TestDraftCRUD(t *testing.T) {
	d := &Draft{}
	require.NoError(t, d.Add(q("one"), q("two"), q("three")))
	assert.Equal(t, []string{"one", "two", "three"}, prompts(*d))

	require.NoError(t, d.Update(1, q("TWO")))
	require.NoError(t, d.Move(0, 2))
	assert.Equal(t, []string{"TWO", "three", "one"}, prompts(*d))
	require.NoError(t, d.Move(2, 0))
	assert.Equal(t, []string{"one", "TWO", "three"}, prompts(*d))

	require.NoError(t, d.Remove(1))
	assert.Equal(t, []string{"one", "three"}, prompts(*d))

	assert.ErrorIs(t, d.Remove(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.Update(-1, q("x")), ErrIndexOutOfRange)
	assert.ErrorIs(t, d.Move(0, 2), ErrIndexOutOfRange)
}

func TestDraftRejectsInvalidQuestion(t *testing.T) {
	d := &Draft{}
	bad := q("bad")
	bad.Options = bad.Options[:3]
	err := d.Add(q("ok"), bad)
	var ve *quiz.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Empty(t, d.Questions, "nothing added")

	require.NoError(t, d.Add(q("ok")))
	bad = q("bad")
	bad.Answer = 9
	assert.Error(t, d.Update(0, bad))
	assert.Equal(t, "ok", d.Questions[0].Prompt)
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	d := &Draft{}
	_, err := d.Build(now)
	assert.Error(t, err, "no name or questions")

	d.SetMeta(Meta{Name: "Weekly", Duration: 30, MarksPerQuestion: 4, NegativeMarking: 1})
	require.NoError(t, d.Add(q("one")))
	tst, err := d.Build(now)
	require.NoError(t, err)
	assert.NotEmpty(t, tst.ID)
	assert.Equal(t, now, tst.CreatedAt)
	assert.Equal(t, 4.0, tst.MarksPerQuestion)

	tst.Questions[0].Options[0] = "changed"
	assert.Equal(t, "a", d.Questions[0].Options[0], "built test does not alias the draft")
}

func TestFromTestKeepsID(t *testing.T) {
	saved := quiz.Test{ID: "t9", Name: "Saved", Duration: 5, Questions: []quiz.Question{q("one")},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := FromTest(saved)
	require.NoError(t, d.Add(q("two")))
	tst, err := d.Build(time.Now())
	require.NoError(t, err)
	assert.Equal(t, "t9", tst.ID)
	assert.Equal(t, saved.CreatedAt, tst.CreatedAt)
	assert.Len(t, tst.Questions, 2)
	assert.Len(t, saved.Questions, 1)
}

func TestRegistryScopesOwners(t *testing.T) {
	r := NewRegistry()
	d := r.Create("alice", &Draft{Meta: Meta{Name: "A"}})

	_, err := r.Get("bob", d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = r.Edit("bob", d.ID, func(*Draft) error { return nil })
	assert.ErrorIs(t, err, ErrDraftNotFound)
	assert.ErrorIs(t, r.Delete("bob", d.ID), ErrDraftNotFound)
	assert.Empty(t, r.List("bob"))

	got, err := r.Edit("alice", d.ID, func(d *Draft) error { return d.Add(q("one")) })
	require.NoError(t, err)
	assert.Len(t, got.Questions, 1)
	require.Len(t, r.List("alice"), 1)

	require.NoError(t, r.Delete("alice", d.ID))
	_, err = r.Get("alice", d.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestRegistryEditIsAtomic(t *testing.T) {
	r := NewRegistry()
	d := r.Create("alice", &Draft{})
	_, err := r.Edit("alice", d.ID, func(d *Draft) error {
		d.Meta.Name = "half done"
		return errors.New("boom")
	})
	require.Error(t, err)
	got, err := r.Get("alice", d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Meta.Name)

	// returned copies are detached
	got.Questions = append(got.Questions, q("x"))
	again, _ := r.Get("alice", d.ID)
	assert.Empty(t, again.Questions)
}

func TestSweep(t *testing.T) {
	r := NewRegistry()
	now := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	old := r.Create("alice", &Draft{})
	now = now.Add(40 * time.Minute)
	fresh := r.Create("alice", &Draft{})
	now = now.Add(10 * time.Minute)

	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	_, err := r.Get("alice", old.ID)
	assert.ErrorIs(t, err, ErrDraftNotFound)
	_, err = r.Get("alice", fresh.ID)
	assert.NoError(t, err)
}

func TestStartSweeperRejectsBadSpec(t *testing.T) {
	_, err := StartSweeper(NewRegistry(), "not a spec", time.Minute)
	assert.Error(t, err)

	c, err := StartSweeper(NewRegistry(), "@every 1h", time.Minute)
	require.NoError(t, err)
	c.Stop()
}
