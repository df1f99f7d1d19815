package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/report"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

// GET /attempts?test_id=&limit=&offset=
func ListAttemptsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		q := r.URL.Query()
		list, err := store.ListAttempts(r.Context(), owner, quiz.AttemptListOpts{
			TestID: strings.TrimSpace(q.Get("test_id")),
			Limit:  parseIntDefault(q.Get("limit"), 0),
			Offset: parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /attempts records an attempt completed elsewhere (an offline client). The
// server regrades it; client-sent tallies are ignored.
func AddAttemptHandler(store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var a quiz.Attempt
		if err := decodeJSON(r, &a); err != nil {
			writeErr(w, err)
			return
		}
		if a.ID == "" {
			a.ID = quiz.NewID()
		}
		if a.CompletedAt.IsZero() {
			a.CompletedAt = time.Now()
		}
		if err := quiz.ValidateAttempt(a); err != nil {
			writeErr(w, err)
			return
		}
		a = quiz.Grade(a)
		if err := store.AddAttempt(r.Context(), owner, a); err != nil {
			writeErr(w, err)
			return
		}
		record(r.Context(), events, syncx.NewEvent(syncx.TypeAttemptSubmitted, a.ID, map[string]any{
			"user_id": owner, "test_id": a.Test.ID, "score": a.Score,
		}))
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAttempt(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// GET /attempts/{attemptID}/report
func AttemptReportHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAttempt(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, report.ForAttempt(a))
	}
}

// GET /attempts/{attemptID}/mistakes
func AttemptMistakesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAttempt(w, r, store)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, report.Mistakes(a))
	}
}

// GET /attempts/{attemptID}/export downloads a plain-text report.
func ExportAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, ok := loadAttempt(w, r, store)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", attachment(a.Test.Name+"_"+a.CompletedAt.Format("2006-01-02"), ".txt"))
		if err := report.WriteText(w, a); err != nil {
			writeErr(w, err)
		}
	}
}

func loadAttempt(w http.ResponseWriter, r *http.Request, store quiz.Store) (quiz.Attempt, bool) {
	owner, ok := authmw.Subject(w, r)
	if !ok {
		return quiz.Attempt{}, false
	}
	a, err := store.GetAttempt(r.Context(), owner, chi.URLParam(r, "attemptID"))
	if err != nil {
		writeErr(w, err)
		return quiz.Attempt{}, false
	}
	return a, true
}

// GET /analytics?tz=Asia/Kolkata
// Streak days are counted in tz, or in server local time when it is absent.
func AnalyticsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		now := time.Now()
		if tz := r.URL.Query().Get("tz"); tz != "" {
			loc, err := time.LoadLocation(tz)
			if err != nil {
				writeErr(w, errBadRequestf("unknown tz %q", tz))
				return
			}
			now = now.In(loc)
		}
		list, err := store.ListAttempts(r.Context(), owner, quiz.AttemptListOpts{})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report.Analyze(list, now))
	}
}

// GET /sync returns the caller's full backup document.
func ExportBackupHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		b, err := quiz.Export(r.Context(), store, owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// POST /sync merges a backup into the caller's data and returns the merged document.
func RestoreBackupHandler(store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var in quiz.Backup
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, err)
			return
		}
		merged, err := quiz.Restore(r.Context(), store, owner, in)
		if err != nil {
			writeErr(w, err)
			return
		}
		record(r.Context(), events, syncx.NewEvent(syncx.TypeBackupRestored, owner, map[string]int{
			"tests": len(in.Tests), "attempts": len(in.Attempts),
		}))
		writeJSON(w, http.StatusOK, merged)
	}
}
