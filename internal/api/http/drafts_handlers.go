package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/editor"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

type createDraftReq struct {
	TestID string       `json:"test_id,omitempty"` // open a saved test for editing
	Meta   *editor.Meta `json:"meta,omitempty"`
}

// POST /drafts
func CreateDraftHandler(drafts *editor.Registry, store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var req createDraftReq
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeErr(w, err)
				return
			}
		}
		d := &editor.Draft{}
		if req.TestID != "" {
			t, err := store.GetTest(r.Context(), owner, req.TestID)
			if err != nil {
				writeErr(w, err)
				return
			}
			d = editor.FromTest(t)
		}
		if req.Meta != nil {
			d.SetMeta(*req.Meta)
		}
		writeJSON(w, http.StatusCreated, drafts.Create(owner, d))
	}
}

// GET /drafts
func ListDraftsHandler(drafts *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, drafts.List(owner))
	}
}

// GET /drafts/{draftID}
func GetDraftHandler(drafts *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		d, err := drafts.Get(owner, chi.URLParam(r, "draftID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// DELETE /drafts/{draftID}
func DeleteDraftHandler(drafts *editor.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		if err := drafts.Delete(owner, chi.URLParam(r, "draftID")); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// draftEdit adapts one mutation of a draft to a handler that answers with the
// updated draft.
func draftEdit(drafts *editor.Registry, fn func(r *http.Request, d *editor.Draft) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		d, err := drafts.Edit(owner, chi.URLParam(r, "draftID"), func(d *editor.Draft) error {
			return fn(r, d)
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// PATCH /drafts/{draftID}  body: editor.Meta
func UpdateDraftMetaHandler(drafts *editor.Registry) http.HandlerFunc {
	return draftEdit(drafts, func(r *http.Request, d *editor.Draft) error {
		var m editor.Meta
		if err := decodeJSON(r, &m); err != nil {
			return err
		}
		d.SetMeta(m)
		return nil
	})
}

// POST /drafts/{draftID}/questions  body: [question, ...]
func AddDraftQuestionsHandler(drafts *editor.Registry) http.HandlerFunc {
	return draftEdit(drafts, func(r *http.Request, d *editor.Draft) error {
		body, err := readBody(r)
		if err != nil {
			return err
		}
		qs, err := quiz.DecodeEditorQuestions(body)
		if err != nil {
			return err
		}
		return d.Add(qs...)
	})
}

// PUT /drafts/{draftID}/questions/{index}  body: question
func UpdateDraftQuestionHandler(drafts *editor.Registry) http.HandlerFunc {
	return draftEdit(drafts, func(r *http.Request, d *editor.Draft) error {
		i, err := indexParam(r)
		if err != nil {
			return err
		}
		body, err := readBody(r)
		if err != nil {
			return err
		}
		qs, err := quiz.DecodeEditorQuestions(append(append([]byte{'['}, body...), ']'))
		if err != nil {
			return err
		}
		return d.Update(i, qs[0])
	})
}

// DELETE /drafts/{draftID}/questions/{index}
func RemoveDraftQuestionHandler(drafts *editor.Registry) http.HandlerFunc {
	return draftEdit(drafts, func(r *http.Request, d *editor.Draft) error {
		i, err := indexParam(r)
		if err != nil {
			return err
		}
		return d.Remove(i)
	})
}

type moveReq struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// POST /drafts/{draftID}/move { "from": i, "to": j }
func MoveDraftQuestionHandler(drafts *editor.Registry) http.HandlerFunc {
	return draftEdit(drafts, func(r *http.Request, d *editor.Draft) error {
		var req moveReq
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		return d.Move(req.From, req.To)
	})
}

// POST /drafts/{draftID}/save validates the draft, stores it as a test and closes
// the draft. A draft opened from a saved test replaces that test.
func SaveDraftHandler(drafts *editor.Registry, store quiz.Store, events syncx.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "draftID")
		d, err := drafts.Get(owner, id)
		if err != nil {
			writeErr(w, err)
			return
		}
		t, err := d.Build(time.Now())
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := saveTest(r.Context(), store, events, owner, &t); err != nil {
			writeErr(w, err)
			return
		}
		_ = drafts.Delete(owner, id)
		writeJSON(w, http.StatusCreated, t)
	}
}

func indexParam(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, errBadRequestf("index must be an integer")
	}
	return i, nil
}
