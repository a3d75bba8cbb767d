// Package api serves valuations and lead capture over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/propval/internal/model"
	"github.com/sells-group/propval/internal/refdata"
	"github.com/sells-group/propval/internal/store"
	"github.com/sells-group/propval/pkg/notion"
)

const maxBodyBytes = 1 << 20

// Valuer values a wire request.
type Valuer interface {
	Valuate(req model.Request) (*model.Result, error)
	Dataset() *refdata.Dataset
}

// LeadStore persists captured leads.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter store.LeadFilter) ([]model.Lead, error)
	SetLeadNotionPage(ctx context.Context, id, pageID string) error
}

// Options configures the server.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	Notion         notion.Client
	NotionLeadDB   string
	RequestTimeout time.Duration
}

// Server holds handler dependencies.
type Server struct {
	valuer  Valuer
	leads   LeadStore
	opts    Options
	limiter *rate.Limiter
}

// NewServer creates a server. A nil LeadStore disables the lead endpoints.
func NewServer(v Valuer, leads LeadStore, opts Options) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	s := &Server{valuer: v, leads: leads, opts: opts}
	if opts.RateLimitRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), max(opts.RateLimitBurst, 1))
	}
	return s
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Timeout(s.opts.RequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/valuate", s.handleValuate)
			if s.leads != nil {
				r.Post("/leads", s.handleCreateLead)
				r.Get("/leads", s.handleListLeads)
				r.Get("/leads/{id}", s.handleGetLead)
			}
		})
	})
	return r
}

// rateLimit rejects requests beyond the server-wide token bucket.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status   string   `json:"status"`
	Cities   []string `json:"cities"`
	PINCodes int      `json:"pin_codes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	ds := s.valuer.Dataset()
	var cities []string
	for _, c := range ds.Cities() {
		cities = append(cities, c.Key)
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Cities:   cities,
		PINCodes: len(ds.PINs()),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg, kind string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return false
	}
	return true
}
