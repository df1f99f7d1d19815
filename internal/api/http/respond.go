package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-testprep/internal/attempt"
	"github.com/mind-engage/mindengage-testprep/internal/auth"
	"github.com/mind-engage/mindengage-testprep/internal/editor"
	"github.com/mind-engage/mindengage-testprep/internal/generate"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/source"
)

const maxBody = 8 << 20 // backups carry full test snapshots

type errorBody struct {
	Error    string           `json:"error"`
	Problems []quiz.FieldError `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps domain errors to status codes. Anything unrecognised is a 500 and is
// logged, since the client cannot act on it.
func writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var ve *quiz.ValidationError
	if errors.As(err, &ve) {
		body.Problems = ve.Problems
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: %v", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var ve *quiz.ValidationError
	var ie *source.InputError
	switch {
	// model failures wrap validation errors, so they are checked first
	case errors.Is(err, generate.ErrDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, errUpstream),
		errors.Is(err, generate.ErrEmptyOutput),
		errors.Is(err, generate.ErrMalformedOutput):
		return http.StatusBadGateway

	case errors.As(err, &ve), errors.As(err, &ie),
		errors.Is(err, errBadRequest),
		errors.Is(err, quiz.ErrNotArray), errors.Is(err, quiz.ErrEmpty),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, attempt.ErrEmptyTest),
		errors.Is(err, attempt.ErrOptionOutOfRange),
		errors.Is(err, attempt.ErrConfirmationRequired),
		errors.Is(err, editor.ErrIndexOutOfRange):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, quiz.ErrTestNotFound), errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, editor.ErrDraftNotFound), errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, attempt.ErrNoActiveTest), errors.Is(err, errNotFound):
		return http.StatusNotFound

	case errors.Is(err, attempt.ErrAttemptActive), errors.Is(err, auth.ErrUserExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
	errUpstream   = errors.New("upstream failure")
)

func errBadRequestf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return b, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
