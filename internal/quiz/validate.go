package quiz

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ErrorKind string

const (
	KindMissing    ErrorKind = "missing"
	KindWrongType  ErrorKind = "wrong_type"
	KindOutOfRange ErrorKind = "out_of_range"
	KindInvalid    ErrorKind = "invalid"
)

var (
	ErrNotArray = errors.New("questions must be a JSON array")
	ErrEmpty    = errors.New("no questions")
)

// FieldError describes one failed check. Index is the question position, or -1 for
// fields of the test itself.
type FieldError struct {
	Index  int       `json:"index"`
	Field  string    `json:"field"`
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"detail,omitempty"`
}

func (e FieldError) String() string {
	loc := e.Field
	if e.Index >= 0 {
		loc = fmt.Sprintf("question %d: %s", e.Index+1, e.Field)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", loc, e.Kind, e.Detail)
	}
	return fmt.Sprintf("%s: %s", loc, e.Kind)
}

type ValidationError struct {
	Problems []FieldError `json:"problems"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// wireQuestion mirrors Question with pointers so absent fields can be told apart
// from zero values.
type wireQuestion struct {
	Prompt      *string  `json:"question" validate:"required,min=1"`
	Options     []string `json:"options" validate:"required,len=4,dive,required"`
	Answer      *int     `json:"answer" validate:"required,min=0,max=3"`
	Explanation *string  `json:"explanation" validate:"required"`
	Subject     *string  `json:"subject" validate:"required,min=1"`
	Topic       *string  `json:"topic" validate:"required,min=1"`
}

func (w wireQuestion) question() Question {
	return Question{
		Prompt:      strings.TrimSpace(*w.Prompt),
		Options:     append([]string(nil), w.Options...),
		Answer:      *w.Answer,
		Explanation: strings.TrimSpace(*w.Explanation),
		Subject:     strings.TrimSpace(*w.Subject),
		Topic:       strings.TrimSpace(*w.Topic),
	}
}

// DecodeQuestions parses a JSON array of question records, checking every element.
// All problems across all elements are reported together. Every record must carry
// an explanation key, which is what generated output has to provide.
func DecodeQuestions(data []byte) ([]Question, error) {
	return decodeQuestions(data, true)
}

// DecodeEditorQuestions is DecodeQuestions for hand-written records, where the
// explanation may be left out.
func DecodeEditorQuestions(data []byte) ([]Question, error) {
	return decodeQuestions(data, false)
}

func decodeQuestions(data []byte, needExplanation bool) ([]Question, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, ErrNotArray
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	out := make([]Question, 0, len(raw))
	var problems []FieldError
	for i, r := range raw {
		var w wireQuestion
		if err := json.Unmarshal(r, &w); err != nil {
			problems = append(problems, typeProblem(i, err))
			continue
		}
		if w.Explanation == nil && !needExplanation {
			w.Explanation = new(string)
		}
		if err := validate.Struct(w); err != nil {
			problems = append(problems, fieldProblems(i, err)...)
			continue
		}
		out = append(out, w.question())
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}
	return out, nil
}

// DecodeTest parses a single exported test document.
func DecodeTest(data []byte) (Test, error) {
	var t Test
	if err := json.Unmarshal(data, &t); err != nil {
		return Test{}, &ValidationError{Problems: []FieldError{typeProblem(-1, err)}}
	}
	if err := ValidateTest(t); err != nil {
		return Test{}, err
	}
	return t, nil
}

// ValidateTest checks a test and all of its questions.
func ValidateTest(t Test) error {
	if err := validate.Struct(t); err != nil {
		return &ValidationError{Problems: testProblems(err)}
	}
	return nil
}

// ValidateQuestion checks a single question.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return &ValidationError{Problems: fieldProblems(-1, err)}
	}
	return nil
}

// ValidateAttempt checks that an attempt carries a valid snapshot and in-range answers.
func ValidateAttempt(a Attempt) error {
	if err := ValidateTest(a.Test); err != nil {
		return err
	}
	var problems []FieldError
	if len(a.Answers) > len(a.Test.Questions) {
		problems = append(problems, FieldError{Index: -1, Field: "answers", Kind: KindOutOfRange,
			Detail: "more answers than questions"})
	}
	for i, ans := range a.Answers {
		if ans == nil || i >= len(a.Test.Questions) {
			continue
		}
		if *ans < 0 || *ans >= len(a.Test.Questions[i].Options) {
			problems = append(problems, FieldError{Index: i, Field: "answer", Kind: KindOutOfRange})
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func typeProblem(i int, err error) FieldError {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		field := te.Field
		if field == "" {
			field = "."
		}
		return FieldError{Index: i, Field: field, Kind: KindWrongType, Detail: "expected " + te.Type.String()}
	}
	return FieldError{Index: i, Field: ".", Kind: KindWrongType, Detail: err.Error()}
}

func fieldProblems(i int, err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Index: i, Field: ".", Kind: KindInvalid, Detail: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, FieldError{Index: i, Field: fe.Field(), Kind: kindFor(fe.Tag()), Detail: detailFor(fe)})
	}
	return out
}

// testProblems maps namespaces like "Test.questions[2].options" back to a question index.
func testProblems(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Index: -1, Field: ".", Kind: KindInvalid, Detail: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		idx := -1
		field := ns
		var n int
		if _, scanErr := fmt.Sscanf(ns, "questions[%d].", &n); scanErr == nil {
			idx = n
			field = ns[strings.IndexByte(ns, '.')+1:]
		}
		out = append(out, FieldError{Index: idx, Field: field, Kind: kindFor(fe.Tag()), Detail: detailFor(fe)})
	}
	return out
}

func kindFor(tag string) ErrorKind {
	switch tag {
	case "required":
		return KindMissing
	case "len", "min", "max", "gte", "lte", "gt", "lt":
		return KindOutOfRange
	default:
		return KindInvalid
	}
}

func detailFor(fe validator.FieldError) string {
	if fe.Param() == "" {
		return ""
	}
	return fe.Tag() + "=" + fe.Param()
}
