// Package httpapi exposes the scan pipeline and scan history over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Toverson/Thrifter-s-Eye/internal/scan"
)

// Scanner runs one scan end to end.
type Scanner interface {
	Run(ctx context.Context, req scan.Request) (*scan.Record, error)
}

// HistoryService is per-user access to stored scans.
type HistoryService interface {
	List(ctx context.Context, userID string) ([]*scan.Record, error)
	Get(ctx context.Context, id, userID string) (*scan.Record, error)
	Delete(ctx context.Context, userID string) (int64, error)
}

// Pinger reports backing store health.
type Pinger interface {
	Ping() error
}

type Options struct {
	Scanner Scanner
	History HistoryService
	// Health is optional; when nil /health always reports ok.
	Health Pinger
	// CORSOrigins defaults to "*".
	CORSOrigins []string
}

type Router struct {
	scanner  Scanner
	history  HistoryService
	health   Pinger
	validate *validator.Validate
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		scanner:  opts.Scanner,
		history:  opts.History,
		health:   opts.Health,
		validate: newValidator(),
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Recoverer)
	mux.Use(RequestLogger)
	mux.Use(Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	mux.Get("/health", r.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/api", func(rt chi.Router) {
		rt.Get("/", r.wrap(r.handleRoot))
		rt.Post("/scan", r.wrap(r.handleScan))
		rt.Get("/scan/{id}", r.wrap(r.handleGetScan))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Delete("/history", r.wrap(r.handleDeleteHistory))
	})

	return mux
}

// newValidator reports field names by their JSON tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if r.health != nil {
		if err := r.health.Ping(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}
