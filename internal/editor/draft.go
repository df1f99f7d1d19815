package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

var (
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrDraftNotFound   = errors.New("draft not found")
)

// Meta holds the form fields of a test being edited.
type Meta struct {
	Name             string  `json:"name"`
	Duration         int     `json:"duration"` // minutes
	Language         string  `json:"language,omitempty"`
	MarksPerQuestion float64 `json:"marks_per_question"`
	NegativeMarking  float64 `json:"negative_marking"`
}

// Draft is an unsaved test. TestID is set when the draft edits a saved test, so that
// saving replaces it instead of creating a copy.
type Draft struct {
	ID        string          `json:"id"`
	TestID    string          `json:"test_id,omitempty"`
	Meta      Meta            `json:"meta"`
	Questions []quiz.Question `json:"questions"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// FromTest opens a saved test for editing.
func FromTest(t quiz.Test) *Draft {
	c := t.Clone()
	return &Draft{
		TestID: c.ID,
		Meta: Meta{
			Name:             c.Name,
			Duration:         c.Duration,
			Language:         c.Language,
			MarksPerQuestion: c.MarksPerQuestion,
			NegativeMarking:  c.NegativeMarking,
		},
		Questions: c.Questions,
		CreatedAt: c.CreatedAt,
	}
}

func (d *Draft) SetMeta(m Meta) { d.Meta = m }

// Add appends questions after checking each one; nothing is added if any is invalid.
func (d *Draft) Add(qs ...quiz.Question) error {
	for i, q := range qs {
		if err := quiz.ValidateQuestion(q); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	for _, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		d.Questions = append(d.Questions, q)
	}
	return nil
}

func (d *Draft) Update(i int, q quiz.Question) error {
	if i < 0 || i >= len(d.Questions) {
		return ErrIndexOutOfRange
	}
	if err := quiz.ValidateQuestion(q); err != nil {
		return err
	}
	q.Options = append([]string(nil), q.Options...)
	d.Questions[i] = q
	return nil
}

func (d *Draft) Remove(i int) error {
	if i < 0 || i >= len(d.Questions) {
		return ErrIndexOutOfRange
	}
	d.Questions = append(d.Questions[:i], d.Questions[i+1:]...)
	return nil
}

// Move relocates the question at from so that it ends up at index to.
func (d *Draft) Move(from, to int) error {
	n := len(d.Questions)
	if from < 0 || from >= n || to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	q := d.Questions[from]
	d.Questions = append(d.Questions[:from], d.Questions[from+1:]...)
	d.Questions = append(d.Questions[:to], append([]quiz.Question{q}, d.Questions[to:]...)...)
	return nil
}

// Build produces the test to save. The draft itself is left untouched.
func (d *Draft) Build(now time.Time) (quiz.Test, error) {
	t := quiz.Test{
		ID:               d.TestID,
		Name:             d.Meta.Name,
		Questions:        d.Questions,
		Duration:         d.Meta.Duration,
		Language:         d.Meta.Language,
		CreatedAt:        d.CreatedAt,
		MarksPerQuestion: d.Meta.MarksPerQuestion,
		NegativeMarking:  d.Meta.NegativeMarking,
	}.Clone()
	if t.ID == "" {
		t.ID = quiz.NewID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if err := quiz.ValidateTest(t); err != nil {
		return quiz.Test{}, err
	}
	return t, nil
}

func (d *Draft) clone() Draft {
	c := *d
	c.Questions = quiz.Test{Questions: d.Questions}.Clone().Questions
	return c
}
