package report

import (
	"math"
	"sort"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
)

// Group is a correct/total tally for one subject or topic.
type Group struct {
	Name     string  `json:"name"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	TimeSec  int     `json:"time_sec"`
	Accuracy float64 `json:"accuracy"` // percent of Total answered correctly
}

type SubjectGroup struct {
	Group
	Topics []Group `json:"topics"`
}

type QuestionTime struct {
	Index   int    `json:"index"`
	Seconds int    `json:"seconds"`
	Result  string `json:"result"` // correct | incorrect | unanswered
}

type AttemptReport struct {
	AttemptID  string         `json:"attempt_id"`
	TestName   string         `json:"test_name"`
	Score      float64        `json:"score"`
	Accuracy   float64        `json:"accuracy"` // percent of attempted questions answered correctly
	Correct    int            `json:"correct"`
	Incorrect  int            `json:"incorrect"`
	Unanswered int            `json:"unanswered"`
	Total      int            `json:"total"`
	TotalTime  int            `json:"total_time"`
	Subjects   []SubjectGroup `json:"subjects"`
	Times      []QuestionTime `json:"times"`
}

type QuestionReview struct {
	Index    int           `json:"index"`
	Question quiz.Question `json:"question"`
	Chosen   int           `json:"chosen"`
}

const (
	ResultCorrect    = "correct"
	ResultIncorrect  = "incorrect"
	ResultUnanswered = "unanswered"
)

// ForAttempt builds the per-attempt dashboard.
func ForAttempt(a quiz.Attempt) AttemptReport {
	r := AttemptReport{
		AttemptID:  a.ID,
		TestName:   a.Test.Name,
		Score:      a.Score,
		Accuracy:   Accuracy(a.Correct, a.Correct+a.Incorrect),
		Correct:    a.Correct,
		Incorrect:  a.Incorrect,
		Unanswered: a.Unanswered,
		Total:      a.TotalQuestions,
		TotalTime:  a.TotalTime,
		Times:      make([]QuestionTime, len(a.Test.Questions)),
	}
	g := newGrouper()
	for i, q := range a.Test.Questions {
		sec := 0
		if i < len(a.TimeSpent) {
			sec = a.TimeSpent[i]
		}
		r.Times[i] = QuestionTime{Index: i, Seconds: sec, Result: resultOf(a, i)}
		g.add(q.Subject, q.Topic, a.IsCorrect(i), sec)
	}
	r.Subjects = g.result()
	return r
}

// Mistakes lists exactly the questions answered with a wrong option.
func Mistakes(a quiz.Attempt) []QuestionReview {
	out := []QuestionReview{}
	for i, q := range a.Test.Questions {
		if a.IsMistake(i) {
			out = append(out, QuestionReview{Index: i, Question: q, Chosen: *a.Answers[i]})
		}
	}
	return out
}

// Accuracy returns correct/attempted as a percentage, 0 when nothing was attempted.
func Accuracy(correct, attempted int) float64 {
	if attempted <= 0 {
		return 0
	}
	return round2(float64(correct) / float64(attempted) * 100)
}

func resultOf(a quiz.Attempt, i int) string {
	switch {
	case !a.Answered(i):
		return ResultUnanswered
	case a.IsCorrect(i):
		return ResultCorrect
	default:
		return ResultIncorrect
	}
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

// grouper folds questions into subject → topic tallies.
type grouper struct {
	subjects map[string]*Group
	topics   map[string]map[string]*Group
}

func newGrouper() *grouper {
	return &grouper{subjects: map[string]*Group{}, topics: map[string]map[string]*Group{}}
}

func (g *grouper) add(subject, topic string, correct bool, sec int) {
	if subject == "" {
		subject = "General"
	}
	if topic == "" {
		topic = "General"
	}
	s, ok := g.subjects[subject]
	if !ok {
		s = &Group{Name: subject}
		g.subjects[subject] = s
		g.topics[subject] = map[string]*Group{}
	}
	t, ok := g.topics[subject][topic]
	if !ok {
		t = &Group{Name: topic}
		g.topics[subject][topic] = t
	}
	for _, x := range []*Group{s, t} {
		x.Total++
		x.TimeSec += sec
		if correct {
			x.Correct++
		}
	}
}

func (g *grouper) result() []SubjectGroup {
	out := make([]SubjectGroup, 0, len(g.subjects))
	for name, s := range g.subjects {
		s.Accuracy = Accuracy(s.Correct, s.Total)
		sg := SubjectGroup{Group: *s, Topics: make([]Group, 0, len(g.topics[name]))}
		for _, t := range g.topics[name] {
			t.Accuracy = Accuracy(t.Correct, t.Total)
			sg.Topics = append(sg.Topics, *t)
		}
		sortGroups(sg.Topics, func(i int) Group { return sg.Topics[i] })
		out = append(out, sg)
	}
	sortGroups(out, func(i int) Group { return out[i].Group })
	return out
}

// sortGroups ranks by accuracy descending, then by name.
func sortGroups[T any](xs []T, at func(i int) Group) {
	sort.SliceStable(xs, func(i, j int) bool {
		a, b := at(i), at(j)
		if a.Accuracy != b.Accuracy {
			return a.Accuracy > b.Accuracy
		}
		return a.Name < b.Name
	})
}
