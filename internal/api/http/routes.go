package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-testprep/internal/attempt"
	"github.com/mind-engage/mindengage-testprep/internal/auth"
	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/editor"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/rbac"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

// EventLister reads the audit trail; only SQL-backed deployments have one.
type EventLister interface {
	List(ctx context.Context, after int64, limit int) ([]syncx.Event, error)
}

type Deps struct {
	Auth     *auth.Service
	Tokens   *authmw.AuthService
	Store    quiz.Store
	Sessions *attempt.Manager
	Drafts   *editor.Registry
	Generate GenerateDeps
	Events   syncx.Recorder
	EventLog EventLister // optional

	// AllowClaimRole keeps the token's role when the user store cannot be read.
	AllowClaimRole bool
	// Ready reports whether storage is reachable; nil means always ready.
	Ready          func(ctx context.Context) error
}

// Mount registers every route on r.
func Mount(r chi.Router, d Deps) {
	r.Post("/auth/register", RegisterHandler(d.Auth))
	r.Post("/auth/login", LoginHandler(d.Auth))
	r.Get("/auth/verify", VerifyHandler(d.Auth))

	// Protected API (JWT → stored role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Tokens))
		pr.Use(authmw.AttachRoleFromStore(d.Auth, d.AllowClaimRole))

		pr.With(rbac.Require("account:change_password")).
			Post("/account/password", ChangePasswordHandler(d.Auth))

		// Saved tests
		pr.With(rbac.Require("tests:view")).Get("/tests", ListTestsHandler(d.Store))
		pr.With(rbac.Require("tests:write")).Post("/tests", PutTestHandler(d.Store, d.Events))
		pr.With(rbac.Require("tests:write")).Post("/tests/import", ImportTestHandler(d.Store, d.Events))
		pr.With(rbac.Require("tests:view")).Get("/tests/{testID}", GetTestHandler(d.Store))
		pr.With(rbac.Require("tests:write")).Delete("/tests/{testID}", DeleteTestHandler(d.Store, d.Events))
		pr.With(rbac.Require("tests:view")).Get("/tests/{testID}/export", ExportTestHandler(d.Store))

		// History and reports
		pr.With(rbac.Require("attempts:view")).Get("/attempts", ListAttemptsHandler(d.Store))
		pr.With(rbac.Require("attempts:write")).Post("/attempts", AddAttemptHandler(d.Store, d.Events))
		pr.With(rbac.Require("attempts:view")).Get("/attempts/{attemptID}", GetAttemptHandler(d.Store))
		pr.With(rbac.Require("attempts:view")).Get("/attempts/{attemptID}/report", AttemptReportHandler(d.Store))
		pr.With(rbac.Require("attempts:view")).Get("/attempts/{attemptID}/mistakes", AttemptMistakesHandler(d.Store))
		pr.With(rbac.Require("attempts:view")).Get("/attempts/{attemptID}/export", ExportAttemptHandler(d.Store))
		pr.With(rbac.Require("analytics:view")).Get("/analytics", AnalyticsHandler(d.Store))

		// Backup / restore
		pr.With(rbac.Require("sync:backup")).Get("/sync", ExportBackupHandler(d.Store))
		pr.With(rbac.Require("sync:restore")).Post("/sync", RestoreBackupHandler(d.Store, d.Events))

		// Taking a test
		pr.Route("/session", func(sr chi.Router) {
			sr.Use(rbac.Require("session:take"))
			sr.Get("/", CurrentSessionHandler(d.Sessions))
			sr.Post("/", StartSessionHandler(d.Sessions, d.Store))
			sr.Delete("/", AbandonHandler(d.Sessions))
			sr.Post("/navigate", NavigateHandler(d.Sessions))
			sr.Post("/next", NextHandler(d.Sessions))
			sr.Post("/prev", PrevHandler(d.Sessions))
			sr.Post("/select", SelectHandler(d.Sessions))
			sr.Post("/clear", ClearHandler(d.Sessions))
			sr.Post("/mark", MarkHandler(d.Sessions))
			sr.Post("/submit", SubmitHandler(d.Sessions))
		})

		// Generation and editing
		pr.With(rbac.Require("generate:run")).Post("/generate", GenerateHandler(d.Generate))
		pr.With(rbac.Require("generate:run")).Post("/generate/file", GenerateFileHandler(d.Generate))
		if d.Generate.Blobs != nil {
			// Kept sources are read back while reviewing drafts.
			pr.Route("/uploads", func(ur chi.Router) {
				ur.Use(rbac.RequireAny("generate:run", "drafts:edit"))
				ur.Get("/*", GetUploadHandler(d.Generate.Blobs))
				ur.Delete("/*", DeleteUploadHandler(d.Generate.Blobs))
			})
		}

		pr.Route("/drafts", func(dr chi.Router) {
			dr.Use(rbac.Require("drafts:edit"))
			dr.Post("/", CreateDraftHandler(d.Drafts, d.Store))
			dr.Get("/", ListDraftsHandler(d.Drafts))
			dr.Get("/{draftID}", GetDraftHandler(d.Drafts))
			dr.Patch("/{draftID}", UpdateDraftMetaHandler(d.Drafts))
			dr.Delete("/{draftID}", DeleteDraftHandler(d.Drafts))
			dr.Post("/{draftID}/questions", AddDraftQuestionsHandler(d.Drafts))
			dr.Put("/{draftID}/questions/{index}", UpdateDraftQuestionHandler(d.Drafts))
			dr.Delete("/{draftID}/questions/{index}", RemoveDraftQuestionHandler(d.Drafts))
			dr.Post("/{draftID}/move", MoveDraftQuestionHandler(d.Drafts))
			dr.Post("/{draftID}/save", SaveDraftHandler(d.Drafts, d.Store, d.Events))
		})

		// Admin
		pr.With(rbac.Require("users:list")).Get("/admin/users", ListUsersHandler(d.Auth))
		if d.EventLog != nil {
			pr.With(rbac.Require("events:view")).Get("/admin/events", ListEventsHandler(d.EventLog))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
}

// GET /admin/events?after=&limit=
func ListEventsHandler(log EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		events, err := log.List(r.Context(), int64(parseIntDefault(q.Get("after"), 0)), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			writeErr(w, err)
			return
		}
		if events == nil {
			events = []syncx.Event{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}
