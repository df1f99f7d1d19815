package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/editor"
	"github.com/mind-engage/mindengage-testprep/internal/generate"
	"github.com/mind-engage/mindengage-testprep/internal/source"
	"github.com/mind-engage/mindengage-testprep/internal/storage"
)

const maxUpload = 20 << 20

// GenerateDeps groups what the generation endpoints need. Gen may be nil, in which
// case generation answers 503.
type GenerateDeps struct {
	Adapter *source.Adapter
	Gen     *generate.Service
	Drafts  *editor.Registry
	Blobs   storage.BlobStore
}

type generateReq struct {
	source.Request
	Name             string  `json:"name"`
	Duration         int     `json:"duration"`
	MarksPerQuestion float64 `json:"marks_per_question"`
	NegativeMarking  float64 `json:"negative_marking"`
}

type generateResp struct {
	Draft     editor.Draft `json:"draft"`
	SourceKey string       `json:"source_key,omitempty"`
}

// POST /generate { "mode": "topic|text|bulk", ... }
func GenerateHandler(d GenerateDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		var req generateReq
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
		if req.Mode == source.ModeFile {
			writeErr(w, errBadRequestf("file mode uses /generate/file"))
			return
		}
		draft, err := d.run(r, owner, req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, generateResp{Draft: draft})
	}
}

// POST /generate/file  multipart: file=<pdf|image|text>, count, difficulty, language,
// name, duration, marks_per_question, negative_marking
func GenerateFileHandler(d GenerateDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			writeErr(w, errBadRequestf("multipart: %v", err))
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			writeErr(w, errBadRequestf("file required"))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeErr(w, errBadRequestf("read upload: %v", err))
			return
		}

		req := generateReq{
			Request: source.Request{
				Mode:       source.ModeFile,
				Count:      formInt(r, "count"),
				Difficulty: r.FormValue("difficulty"),
				Language:   r.FormValue("language"),
				FileName:   hdr.Filename,
				File:       data,
			},
			Name:             r.FormValue("name"),
			Duration:         formInt(r, "duration"),
			MarksPerQuestion: formFloat(r, "marks_per_question"),
			NegativeMarking:  formFloat(r, "negative_marking"),
		}

		draft, err := d.run(r, owner, req)
		if err != nil {
			writeErr(w, err)
			return
		}

		// Only sources that produced a draft are kept.
		var key string
		if d.Blobs != nil && len(data) > 0 {
			key, err = d.Blobs.Put(storage.UploadKey(owner, filepath.Ext(hdr.Filename)), bytes.NewReader(data))
			if err != nil {
				log.Printf("api: keep upload %s: %v", hdr.Filename, err)
				key = ""
			}
		}
		writeJSON(w, http.StatusCreated, generateResp{Draft: draft, SourceKey: key})
	}
}

// uploadKey resolves the wildcard of /uploads/* to a blob key the caller owns.
func uploadKey(r *http.Request, owner string) (string, error) {
	key := "uploads/" + chi.URLParam(r, "*")
	if !storage.OwnedBy(key, owner) {
		return "", errNotFound
	}
	return key, nil
}

// GET /uploads/{owner}/{file}  streams back a kept source file.
func GetUploadHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		key, err := uploadKey(r, owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		rc, err := blobs.Get(key)
		if err != nil {
			writeErr(w, blobErr(err))
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, rc); err != nil {
			log.Printf("api: stream %s: %v", key, err)
		}
	}
}

// DELETE /uploads/{owner}/{file}
func DeleteUploadHandler(blobs storage.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, ok := authmw.Subject(w, r)
		if !ok {
			return
		}
		key, err := uploadKey(r, owner)
		if err != nil {
			writeErr(w, err)
			return
		}
		if err := blobs.Delete(key); err != nil {
			writeErr(w, blobErr(err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func blobErr(err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrBadKey) {
		return errNotFound
	}
	return err
}

// run builds the payload, asks the model and opens the result as a new draft. Nothing
// is created when any step fails.
func (d GenerateDeps) run(r *http.Request, owner string, req generateReq) (editor.Draft, error) {
	if d.Adapter == nil || d.Gen == nil {
		return editor.Draft{}, generate.ErrDisabled
	}
	p, err := d.Adapter.Build(r.Context(), req.Request)
	if err != nil {
		return editor.Draft{}, err
	}
	qs, err := d.Gen.Questions(r.Context(), p)
	if err != nil {
		if errors.Is(err, generate.ErrDisabled) {
			return editor.Draft{}, err
		}
		return editor.Draft{}, fmt.Errorf("%w: %w", errUpstream, err)
	}
	draft := &editor.Draft{
		Meta: editor.Meta{
			Name:             defaultName(req),
			Duration:         req.Duration,
			Language:         req.Language,
			MarksPerQuestion: req.MarksPerQuestion,
			NegativeMarking:  req.NegativeMarking,
		},
		Questions: qs,
	}
	if draft.Meta.Duration <= 0 {
		draft.Meta.Duration = len(qs) // a minute per question
	}
	if draft.Meta.MarksPerQuestion <= 0 {
		draft.Meta.MarksPerQuestion = 1
	}
	return d.Drafts.Create(owner, draft), nil
}

func defaultName(req generateReq) string {
	if n := strings.TrimSpace(req.Name); n != "" {
		return n
	}
	switch req.Mode {
	case source.ModeTopic:
		return strings.TrimSpace(req.Topic)
	case source.ModeFile:
		return strings.TrimSuffix(req.FileName, filepath.Ext(req.FileName))
	}
	return "Generated test"
}

func formInt(r *http.Request, field string) int {
	return parseIntDefault(r.FormValue(field), 0)
}

func formFloat(r *http.Request, field string) float64 {
	v, err := strconv.ParseFloat(r.FormValue(field), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
