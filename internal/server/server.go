package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sw33tLie/estform/internal/assets"
	"github.com/sw33tLie/estform/internal/utils"
	"github.com/sw33tLie/estform/pkg/lookupcache"
	"github.com/sw33tLie/estform/pkg/records"
)

// DefaultIdleTimeout is how long an untouched session is kept.
const DefaultIdleTimeout = 30 * time.Minute

// Config configures a Server. Form.Source and Form.Gateway are ignored: every
// session gets its own gateway over Source, sharing one lookup cache.
type Config struct {
	Source   records.Source
	Template string
	Selector string
	Form     FormConfig

	Username string
	Password string

	IdleTimeout time.Duration
}

type Server struct {
	cfg   Config
	cache *lookupcache.Cache

	mu       sync.Mutex
	sessions map[string]*session
}

func New(cfg Config) *Server {
	if cfg.Template == "" {
		cfg.Template = assets.FormHTML
		cfg.Selector = assets.FormSelector
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	size := cfg.Form.CacheSize
	if size <= 0 {
		size = lookupcache.DefaultCapacity
	}
	return &Server{
		cfg:      cfg,
		cache:    lookupcache.New(size),
		sessions: make(map[string]*session),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.basicAuth)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleState)
			r.Delete("/", s.handleDelete)
			r.Post("/scan", s.handleScan)
			r.Post("/reset", s.handleReset)
			r.Post("/mode", s.handleMode)
			r.Post("/input", s.handleInput)
			r.Post("/blur", s.handleBlur)
			r.Get("/suggestions", s.handleSuggestions)
			r.Post("/pick", s.handlePick)
			r.Get("/form", s.handleForm)
			r.Get("/ws", s.handleWS)
		})
	})
	return r
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Username == "" && s.cfg.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.cfg.Username || pass != s.cfg.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
