package quiz

import (
	"math"
	"time"
)

// Tally is the outcome of comparing answers against a test's keys.
type Tally struct {
	Correct    int
	Incorrect  int
	Unanswered int
}

// Count compares answers against t's keys. Questions without an answer entry count as
// unanswered, so Correct+Incorrect+Unanswered always equals len(t.Questions).
func Count(t Test, answers []*int) Tally {
	var tl Tally
	for i, q := range t.Questions {
		switch {
		case i >= len(answers) || answers[i] == nil:
			tl.Unanswered++
		case *answers[i] == q.Answer:
			tl.Correct++
		default:
			tl.Incorrect++
		}
	}
	return tl
}

// Score returns the percentage for a tally, floored at 0 and rounded to two decimals.
func Score(tl Tally, total int, marks, negative float64) float64 {
	if total <= 0 {
		return 0
	}
	if marks <= 0 {
		marks = 1
	}
	raw := float64(tl.Correct)*marks - float64(tl.Incorrect)*negative
	pct := raw / (float64(total) * marks) * 100
	if pct < 0 {
		return 0
	}
	return math.Round(pct*100) / 100
}

// Grade fills the derived fields of an attempt (counts, totals, score) from its
// snapshot and answers. Client-supplied values for those fields are ignored.
func Grade(a Attempt) Attempt {
	n := len(a.Test.Questions)
	answers := make([]*int, n)
	copy(answers, a.Answers)
	a.Answers = answers

	spent := make([]int, n)
	copy(spent, a.TimeSpent)
	a.TimeSpent = spent

	tl := Count(a.Test, a.Answers)
	a.Correct, a.Incorrect, a.Unanswered = tl.Correct, tl.Incorrect, tl.Unanswered
	a.TotalQuestions = n
	a.Score = Score(tl, n, a.Test.Marks(), a.Test.NegativeMarking)
	if a.TotalTime == 0 {
		for _, s := range a.TimeSpent {
			a.TotalTime += s
		}
	}
	if a.CompletedAt.IsZero() {
		a.CompletedAt = time.Now()
	}
	return a
}
