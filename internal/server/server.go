package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
	"github.com/layrfelipe/hotmart-challenge/internal/port"
)

// Ingester is the ingestion pipeline as seen by the HTTP layer.
type Ingester interface {
	Ingest(ctx context.Context, doc domain.RawDocument) (*domain.IngestResult, error)
	IngestFrom(ctx context.Context, src port.ContentSource) (*domain.IngestResult, error)
}

// Answerer is the query pipeline as seen by the HTTP layer.
type Answerer interface {
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.Answer, error)
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Ingest Ingester
	Answer Answerer
	Blog   port.ContentSource
	Store  port.SegmentStore
	Stats  domain.Stats // static part of /stats; Segments is filled per request
	Logger *slog.Logger
}

// Config holds HTTP server settings.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func SetupRoutes(d Deps) *mux.Router {
	h := &handlers{deps: d}
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/stats", h.stats).Methods(http.MethodGet)
	r.HandleFunc("/ingest_text", h.ingestText).Methods(http.MethodPost)
	r.HandleFunc("/ingest_full_blog_content", h.ingestBlog).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/query", h.query).Methods(http.MethodPost)

	return r
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())
	n.UseHandler(r)
	return n
}

// NewHandler returns the full middleware chain around the routes.
func NewHandler(d Deps) http.Handler {
	return setupNegroni(SetupRoutes(d))
}

// Run serves until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config, handler http.Handler, logger *slog.Logger) error {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = time.Minute
	}
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
