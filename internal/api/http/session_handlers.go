package http

import (
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-testprep/internal/attempt"
	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/report"
)

// sessionState is returned by every /session call. Outcome is set once after an
// attempt ended on its own, e.g. the countdown reached zero.
type sessionState struct {
	Active  bool             `json:"active"`
	View    *attempt.View    `json:"view,omitempty"`
	Outcome *attempt.Outcome `json:"outcome,omitempty"`
}

func stateOf(m *attempt.Manager, owner string, v *attempt.View) sessionState {
	st := sessionState{Active: v != nil, View: v}
	if o, ok := m.TakeOutcome(owner); ok {
		st.Outcome = &o
	}
	return st
}

// GET /session
func CurrentSessionHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		v, err := m.Current(owner)
		if errors.Is(err, attempt.ErrNoActiveTest) {
			writeJSON(w, http.StatusOK, stateOf(m, owner, nil))
			return
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(m, owner, &v))
	}
}

type startSessionReq struct {
	TestID string `json:"test_id"`
}

// POST /session { "test_id": "..." }
func StartSessionHandler(m *attempt.Manager, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var req startSessionReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if req.TestID == "" {
			writeErr(w, errBadRequestf("test_id required"))
			return
		}
		t, err := store.GetTest(r.Context(), owner, req.TestID)
		if err != nil {
			writeErr(w, err)
			return
		}
		v, err := m.Begin(owner, t)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, stateOf(m, owner, &v))
	}
}

type navigateReq struct {
	Index int `json:"index"`
}

type selectReq struct {
	Option *int `json:"option"`
}

// sessionAction adapts one in-session operation to a handler.
func sessionAction(m *attempt.Manager, act func(r *http.Request, s *attempt.Session) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		v, err := m.Do(owner, func(s *attempt.Session) error { return act(r, s) })
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateOf(m, owner, &v))
	}
}

// POST /session/navigate { "index": n }. An index outside the test leaves the
// session where it is.
func NavigateHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(r *http.Request, s *attempt.Session) error {
		var req navigateReq
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		s.Navigate(req.Index)
		return nil
	})
}

// POST /session/next
func NextHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(_ *http.Request, s *attempt.Session) error {
		s.Next()
		return nil
	})
}

// POST /session/prev
func PrevHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(_ *http.Request, s *attempt.Session) error {
		s.Prev()
		return nil
	})
}

// POST /session/select { "option": 0..3 }
func SelectHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(r *http.Request, s *attempt.Session) error {
		var req selectReq
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		if req.Option == nil {
			return errBadRequestf("option required")
		}
		return s.Select(*req.Option)
	})
}

// POST /session/clear
func ClearHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(_ *http.Request, s *attempt.Session) error {
		s.Clear()
		return nil
	})
}

// POST /session/mark
func MarkHandler(m *attempt.Manager) http.HandlerFunc {
	return sessionAction(m, func(_ *http.Request, s *attempt.Session) error {
		s.MarkForReview()
		return nil
	})
}

type submitResp struct {
	Attempt quiz.Attempt         `json:"attempt"`
	Report  report.AttemptReport `json:"report"`
}

// POST /session/submit
func SubmitHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		a, err := m.Submit(r.Context(), owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, submitResp{Attempt: a, Report: report.ForAttempt(a)})
	}
}

// DELETE /session?confirm=true discards the attempt without saving it.
func AbandonHandler(m *attempt.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		if err := m.Abandon(owner, r.URL.Query().Get("confirm") == "true"); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
