// Package server exposes interactive blackjack sessions and simulations over
// HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
	"github.com/rs/cors"
)

// Limits applied to simulation requests.
const (
	DefaultMaxHands  = 1_000_000
	DefaultMaxTrials = 100
)

// Config configures a Server.
type Config struct {
	// Rules are used for new games and simulations unless a request
	// overrides them.
	Rules    game.Rules
	Sessions *session.Store
	// Runs persists simulations when set.
	Runs *results.Store
	// Strategies are named configurations offered alongside the presets.
	Strategies  map[string]strategy.Config
	CORSOrigins []string
	Workers     int
	MaxHands    int
	MaxTrials   int
	Clock       quartz.Clock
	Logger      *log.Logger
}

// Server is the blackjack HTTP API.
type Server struct {
	rules      game.Rules
	sessions   *session.Store
	runs       *results.Store
	strategies map[string]strategy.Config
	workers    int
	maxHands   int
	maxTrials  int
	clock      quartz.Clock
	logger     *log.Logger
	upgrader   websocket.Upgrader
	router     *mux.Router
	handler    http.Handler
}

// New creates a server and registers its routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Rules == (game.Rules{}) {
		cfg.Rules = game.DefaultRules()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewStore(session.Config{Clock: cfg.Clock, Logger: cfg.Logger})
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxHands <= 0 {
		cfg.MaxHands = DefaultMaxHands
	}
	if cfg.MaxTrials <= 0 {
		cfg.MaxTrials = DefaultMaxTrials
	}

	s := &Server{
		rules:      cfg.Rules,
		sessions:   cfg.Sessions,
		runs:       cfg.Runs,
		strategies: cfg.Strategies,
		workers:    cfg.Workers,
		maxHands:   cfg.MaxHands,
		maxTrials:  cfg.MaxTrials,
		clock:      cfg.Clock,
		logger:     cfg.Logger.WithPrefix("server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are policed by the CORS layer for browsers
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	s.router = mux.NewRouter()
	s.registerRoutes(s.router)
	s.router.Use(s.logRequests)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	s.handler = c.Handler(s.router)
	return s
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/game", s.listGames).Methods(http.MethodGet)
	api.HandleFunc("/game/new", s.newGame).Methods(http.MethodPost)
	api.HandleFunc("/game/{id}", s.deleteGame).Methods(http.MethodDelete)
	api.HandleFunc("/game/{id}/state", s.gameState).Methods(http.MethodGet)
	api.HandleFunc("/game/{id}/bet", s.placeBet).Methods(http.MethodPost)
	api.HandleFunc("/game/{id}/action", s.playerAction).Methods(http.MethodPost)
	api.HandleFunc("/game/{id}/new-round", s.newRound).Methods(http.MethodPost)
	api.HandleFunc("/game/{id}/results", s.roundResults).Methods(http.MethodGet)
	api.HandleFunc("/game/{id}/history", s.history).Methods(http.MethodGet)
	api.HandleFunc("/game/{id}/auto-play", s.autoPlay).Methods(http.MethodPost)
	api.HandleFunc("/game/{id}/statistics", s.statistics).Methods(http.MethodGet)

	api.HandleFunc("/strategies", s.listStrategies).Methods(http.MethodGet)
	api.HandleFunc("/strategies/{name}", s.getStrategy).Methods(http.MethodGet)

	api.HandleFunc("/simulations", s.runSimulation).Methods(http.MethodPost)
	api.HandleFunc("/simulations", s.listSimulations).Methods(http.MethodGet)
	api.HandleFunc("/simulations/compare", s.compareStrategies).Methods(http.MethodPost)
	api.HandleFunc("/simulations/stream", s.streamSimulation).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", s.getSimulation).Methods(http.MethodGet)
}

// Handler returns the HTTP handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr until ctx is cancelled, sweeping expired
// sessions every sweep interval.
func (s *Server) ListenAndServe(ctx context.Context, addr string, sweep time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if sweep > 0 {
		go s.sessions.RunSweeper(ctx, sweep)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// strategy looks up a configured strategy, then a preset. File paths are
// never resolved from requests.
func (s *Server) strategy(name string) (strategy.Config, error) {
	if cfg, ok := s.strategies[name]; ok {
		cfg = cfg.Clone()
		cfg.Name = name
		return cfg, nil
	}
	return strategy.Preset(name)
}

func (s *Server) strategyNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range strategy.PresetNames() {
		seen[name] = true
		names = append(names, name)
	}
	for name := range s.strategies {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
