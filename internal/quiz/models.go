package quiz

import "time"

// OptionCount is the number of options every question carries.
const OptionCount = 4

type Question struct {
	Prompt      string   `json:"question" validate:"required"`
	Options     []string `json:"options" validate:"len=4,dive,required"`
	Answer      int      `json:"answer" validate:"min=0,max=3"` // zero-based index into Options
	Explanation string   `json:"explanation"`
	Subject     string   `json:"subject" validate:"required"`
	Topic       string   `json:"topic" validate:"required"`
}

type Test struct {
	ID               string     `json:"id"`
	Name             string     `json:"name" validate:"required"`
	Questions        []Question `json:"questions" validate:"min=1,dive"`
	Duration         int        `json:"duration" validate:"min=1"` // minutes
	Language         string     `json:"language,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	MarksPerQuestion float64    `json:"marks_per_question" validate:"gte=0"`
	NegativeMarking  float64    `json:"negative_marking" validate:"gte=0"`
}

type Attempt struct {
	ID             string    `json:"id"`
	Test           Test      `json:"test"`    // snapshot frozen at submit time
	Answers        []*int    `json:"answers"` // nil entry = no answer
	TimeSpent      []int     `json:"time_spent"`
	TotalTime      int       `json:"total_time"`
	CompletedAt    time.Time `json:"completed_at"`
	Correct        int       `json:"correct"`
	Incorrect      int       `json:"incorrect"`
	Unanswered     int       `json:"unanswered"`
	TotalQuestions int       `json:"total_questions"`
	Score          float64   `json:"score"` // percentage
}

// Backup is the full export document; it is also the /sync payload.
type Backup struct {
	Tests    []Test    `json:"tests"`
	Attempts []Attempt `json:"attempts"`
}

// Clone returns a deep copy so that attempts never share question slices with the
// saved test they were taken from.
func (t Test) Clone() Test {
	out := t
	out.Questions = make([]Question, len(t.Questions))
	for i, q := range t.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	return out
}

// Marks returns the marks awarded per correct answer; zero means the default of 1.
func (t Test) Marks() float64 {
	if t.MarksPerQuestion <= 0 {
		return 1
	}
	return t.MarksPerQuestion
}

// Answered reports whether question i has an answer.
func (a Attempt) Answered(i int) bool {
	return i < len(a.Answers) && a.Answers[i] != nil
}

// IsCorrect reports whether question i was answered with the stored correct index.
func (a Attempt) IsCorrect(i int) bool {
	return a.Answered(i) && *a.Answers[i] == a.Test.Questions[i].Answer
}

// IsMistake reports whether question i was answered with a wrong option.
func (a Attempt) IsMistake(i int) bool {
	return a.Answered(i) && *a.Answers[i] != a.Test.Questions[i].Answer
}
