package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

// GET /tests
func ListTestsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		list, err := store.ListTests(r.Context(), owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /tests/{testID}
func GetTestHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		t, err := store.GetTest(r.Context(), owner, chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// POST /tests saves a complete test. An id that already exists is replaced.
func PutTestHandler(store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		body, err := readBody(r)
		if err != nil {
			writeErr(w, err)
			return
		}
		t, err := quiz.DecodeTest(body)
		if err != nil {
			writeErr(w, err)
			return
		}
		if t.ID == "" {
			t.ID = quiz.NewID()
		}
		if err := saveTest(r.Context(), store, events, owner, &t); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// DELETE /tests/{testID}
func DeleteTestHandler(store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "testID")
		if err := store.DeleteTest(r.Context(), owner, id); err != nil {
			writeErr(w, err)
			return
		}
		record(r.Context(), events, syncx.NewEvent(syncx.TypeTestDeleted, id, map[string]string{"owner": owner}))
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /tests/{testID}/export downloads the test as a self-contained JSON file.
func ExportTestHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		t, err := store.GetTest(r.Context(), owner, chi.URLParam(r, "testID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Disposition", attachment(t.Name, ".json"))
		writeJSON(w, http.StatusOK, t)
	}
}

// POST /tests/import accepts an exported test as the raw body or as multipart file=.
// The imported copy keeps its id unless the owner already has a test with that id.
func ImportTestHandler(store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var body []byte
		var err error
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			body, err = formFile(r, "file")
		} else {
			body, err = readBody(r)
		}
		if err != nil {
			writeErr(w, err)
			return
		}
		t, err := quiz.DecodeTest(body)
		if err != nil {
			writeErr(w, err)
			return
		}
		if t.ID == "" {
			t.ID = quiz.NewID()
		} else if _, err := store.GetTest(r.Context(), owner, t.ID); err == nil {
			t.ID = quiz.NewID()
		} else if !errors.Is(err, quiz.ErrTestNotFound) {
			writeErr(w, err)
			return
		}
		t.CreatedAt = time.Now()
		if err := saveTest(r.Context(), store, events, owner, &t); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func saveTest(ctx context.Context, store quiz.Store, events syncx.Recorder, owner string, t *quiz.Test) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if err := store.PutTest(ctx, owner, *t); err != nil {
		return err
	}
	record(ctx, events, syncx.NewEvent(syncx.TypeTestSaved, t.ID, map[string]any{
		"owner": owner, "name": t.Name, "questions": len(t.Questions),
	}))
	return nil
}

func formFile(r *http.Request, field string) ([]byte, error) {
	f, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("%w: %s required", errBadRequest, field)
	}
	defer f.Close()
	b, err := io.ReadAll(io.LimitReader(f, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return b, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func attachment(name, ext string) string {
	base := strings.Trim(unsafeName.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "download"
	}
	return fmt.Sprintf(`attachment; filename="%s%s"`, base, ext)
}

// record logs but does not fail the request; the audit trail is best effort.
func record(ctx context.Context, events syncx.Recorder, e syncx.Event) {
	if events == nil {
		return
	}
	if err := events.Append(ctx, e); err != nil {
		log.Printf("api: event %s %s: %v", e.Type, e.Key, err)
	}
}
