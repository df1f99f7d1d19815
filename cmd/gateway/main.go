package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-testprep/internal/api/http"
	"github.com/mind-engage/mindengage-testprep/internal/attempt"
	"github.com/mind-engage/mindengage-testprep/internal/auth"
	authmw "github.com/mind-engage/mindengage-testprep/internal/auth/middleware"
	"github.com/mind-engage/mindengage-testprep/internal/config"
	"github.com/mind-engage/mindengage-testprep/internal/db"
	"github.com/mind-engage/mindengage-testprep/internal/editor"
	"github.com/mind-engage/mindengage-testprep/internal/generate"
	"github.com/mind-engage/mindengage-testprep/internal/kv"
	"github.com/mind-engage/mindengage-testprep/internal/quiz"
	"github.com/mind-engage/mindengage-testprep/internal/source"
	"github.com/mind-engage/mindengage-testprep/internal/source/pdf"
	"github.com/mind-engage/mindengage-testprep/internal/storage"
	syncx "github.com/mind-engage/mindengage-testprep/internal/sync"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// --- Storage ---
	var (
		store    quiz.Store
		users    auth.UserStore
		events   syncx.Recorder = syncx.LogRecorder{}
		eventLog api.EventLister
		ready    func(context.Context) error
		dbh      *sql.DB
	)
	switch cfg.StoreDriver {
	case "json":
		if err := os.MkdirAll(filepath.Dir(cfg.DataFile), 0o755); err != nil {
			log.Fatalf("data dir: %v", err)
		}
		g, err := kv.OpenFile(cfg.DataFile)
		if err != nil {
			log.Fatalf("data file: %v", err)
		}
		store = quiz.NewKVStore(g)
		users = auth.NewKVUsers(g)
	case string(db.DriverSQLite), string(db.DriverPostgres):
		var err error
		dbh, err = db.Open(ctx, db.Driver(cfg.StoreDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		defer dbh.Close()
		store = quiz.NewSQLStore(dbh, cfg.StoreDriver)
		users = auth.NewSQLUsers(dbh)
		repo := syncx.NewEventRepo(dbh)
		events, eventLog = repo, repo
		ready = dbh.PingContext
	default:
		log.Fatalf("unknown STORE_DRIVER %q (json|sqlite|postgres)", cfg.StoreDriver)
	}

	// --- Auth ---
	tokens := authmw.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)
	authSvc := auth.NewService(users, tokens)
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	// --- Attempts, drafts, generation ---
	sessions := attempt.NewManager(store, events, attempt.Options{Policy: cfg.ClearPolicy})
	defer sessions.Shutdown()

	drafts := editor.NewRegistry()
	sweeper, err := editor.StartSweeper(drafts, "@every 5m", cfg.DraftIdle)
	if err != nil {
		log.Fatalf("draft sweeper: %v", err)
	}
	defer sweeper.Stop()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	var gen *generate.Service
	if cfg.GeminiAPIKey != "" {
		model, err := generate.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		gen = generate.NewService(model)
	} else {
		log.Printf("GEMINI_API_KEY not set; question generation disabled")
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(3 * time.Minute)) // generation can take a while
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth:     authSvc,
		Tokens:   tokens,
		Store:    store,
		Sessions: sessions,
		Drafts:   drafts,
		Generate: api.GenerateDeps{
			Adapter: source.NewAdapter(pdf.NewExtractor(cfg.PDFMaxPages), cfg.PDFMinTextChars),
			Gen:     gen,
			Drafts:  drafts,
			Blobs:   bs,
		},
		Events:         events,
		EventLog:       eventLog,
		AllowClaimRole: cfg.AllowClaimRole,
		Ready:          ready,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Printf("listening on %s (mode=%s, store=%s, clear=%s)", cfg.HTTPAddr, cfg.Mode, cfg.StoreDriver, cfg.ClearPolicy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Printf("shutting down (%d attempts in progress will be dropped)", sessions.Active())

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
