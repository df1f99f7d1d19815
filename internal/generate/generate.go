package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/source"
)

var (
	ErrEmptyOutput     = errors.New("model returned no output")
	ErrMalformedOutput = errors.New("model output is not a valid question list")
	ErrDisabled        = errors.New("question generation is not configured")
)

// Model sends one payload to a generative model and returns its raw text reply.
type Model interface {
	Generate(ctx context.Context, p source.Payload) (string, error)
}

type Service struct {
	Model   Model
	Timeout time.Duration
}

func NewService(m Model) *Service {
	return &Service{Model: m, Timeout: 2 * time.Minute}
}

// Questions asks the model for questions and validates every record it returns. Any
// failure yields no questions at all.
func (s *Service) Questions(ctx context.Context, p source.Payload) ([]quiz.Question, error) {
	if s == nil || s.Model == nil {
		return nil, ErrDisabled
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	start := time.Now()
	raw, err := s.Model.Generate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	body := stripFences(raw)
	if body == "" {
		return nil, ErrEmptyOutput
	}
	qs, err := quiz.DecodeQuestions([]byte(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedOutput, err)
	}
	log.Printf("generate: %d questions in %s (%d images)", len(qs), time.Since(start).Round(time.Millisecond), len(p.Images))
	return qs, nil
}

// stripFences removes a surrounding ``` or ```json block if the model added one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
