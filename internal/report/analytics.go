package report

import (
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

type Summary struct {
	Attempts       int            `json:"attempts"`
	AverageScore   float64        `json:"average_score"`
	Accuracy       float64        `json:"accuracy"` // percent of all questions answered correctly
	TotalCorrect   int            `json:"total_correct"`
	TotalQuestions int            `json:"total_questions"`
	TotalTime      int            `json:"total_time"`
	Streak         int            `json:"streak"`
	Subjects       []SubjectGroup `json:"subjects"`
}

// Analyze folds the attempt history into overall totals and subject/topic tallies.
// now fixes "today" for the streak, in now's location.
func Analyze(attempts []quiz.Attempt, now time.Time) Summary {
	s := Summary{Attempts: len(attempts), Subjects: []SubjectGroup{}}
	if len(attempts) == 0 {
		return s
	}
	g := newGrouper()
	var scoreSum float64
	times := make([]time.Time, 0, len(attempts))
	for _, a := range attempts {
		scoreSum += a.Score
		s.TotalCorrect += a.Correct
		s.TotalQuestions += a.TotalQuestions
		s.TotalTime += a.TotalTime
		times = append(times, a.CompletedAt)
		for i, q := range a.Test.Questions {
			sec := 0
			if i < len(a.TimeSpent) {
				sec = a.TimeSpent[i]
			}
			g.add(q.Subject, q.Topic, a.IsCorrect(i), sec)
		}
	}
	s.AverageScore = round2(scoreSum / float64(len(attempts)))
	s.Accuracy = Accuracy(s.TotalCorrect, s.TotalQuestions)
	s.Subjects = g.result()
	s.Streak = Streak(times, now)
	return s
}

// Streak counts consecutive calendar days with at least one attempt, ending today or
// yesterday in now's location. It is 0 when the newest attempt is older than yesterday.
func Streak(times []time.Time, now time.Time) int {
	loc := now.Location()
	days := make(map[int]bool, len(times))
	for _, t := range times {
		days[civilDay(t, loc)] = true
	}
	// Walk back from noon; midnight does not exist on some DST transitions.
	y, m, d := now.Date()
	day := time.Date(y, m, d, 12, 0, 0, 0, loc)
	if !days[civilDay(day, loc)] {
		day = day.AddDate(0, 0, -1)
		if !days[civilDay(day, loc)] {
			return 0
		}
	}
	n := 0
	for days[civilDay(day, loc)] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// civilDay keys t by its calendar date in loc, as yyyymmdd.
func civilDay(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return y*10000 + int(m)*100 + d
}
