package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/docxlate/internal/config"
	"github.com/dgallion1/docxlate/internal/pipeline"
	"github.com/dgallion1/docxlate/internal/translate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// Server is the HTTP API server for docxlate.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	llm          *translate.Client
	upgrader     websocket.Upgrader
	log          *slog.Logger
	cfg          config.Config

	pollInterval time.Duration
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, llm *translate.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		llm:          llm,
		log:          log,
		cfg:          cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		pollInterval: 500 * time.Millisecond,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/translate", s.handleTranslate)
		r.Route("/api/translate/{runID}", func(r chi.Router) {
			r.Get("/status", s.handleStatus)
			r.Get("/result", s.handleResult)
			r.Get("/events", s.handleEvents)
			r.Delete("/", s.handleDeleteResult)
		})
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
