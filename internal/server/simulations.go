package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/results"
	"github.com/lox/blackjacksim/internal/simulator"
	"github.com/lox/blackjacksim/internal/strategy"
)

type strategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	System      string `json:"betting_system"`
	Deviations  int    `json:"deviations"`
}

func (s *Server) listStrategies(w http.ResponseWriter, r *http.Request) {
	names := s.strategyNames()
	infos := make([]strategyInfo, 0, len(names))
	for _, name := range names {
		cfg, err := s.strategy(name)
		if err != nil {
			continue
		}
		infos = append(infos, strategyInfo{
			Name:        name,
			Description: cfg.Description,
			System:      cfg.Betting.System,
			Deviations:  len(cfg.Deviations),
		})
	}
	respond(w, http.StatusOK, map[string]any{"strategies": infos})
}

func (s *Server) getStrategy(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	cfg, err := s.strategy(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respond(w, http.StatusOK, cfg)
}

// simulationRequest names a strategy or carries an inline configuration.
// Rules fields not present in the request keep the server's values.
type simulationRequest struct {
	Strategy string           `json:"strategy"`
	Config   *strategy.Config `json:"config,omitempty"`
	Rules    *game.Rules      `json:"rules,omitempty"`
	Hands    int              `json:"hands"`
	Trials   int              `json:"trials"`
	Seed     int64            `json:"seed"`
	Name     string           `json:"name,omitempty"`
}

type simulationResponse struct {
	ID     string                  `json:"id,omitempty"`
	Result *simulator.Result       `json:"result"`
	Trials *simulator.TrialSummary `json:"trials,omitempty"`
}

type compareRequest struct {
	Strategies []string    `json:"strategies"`
	Rules      *game.Rules `json:"rules,omitempty"`
	Hands      int         `json:"hands"`
	Trials     int         `json:"trials"`
	Seed       int64       `json:"seed"`
}

func (s *Server) simulationConfig(rules *game.Rules, hands int, seed int64) (simulator.Config, error) {
	cfg := simulator.Config{
		Rules:  s.rules,
		Hands:  hands,
		Seed:   seed,
		Logger: s.logger,
		Clock:  s.clock,
	}
	if rules != nil {
		cfg.Rules = *rules
	}
	if err := cfg.Rules.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if hands <= 0 || hands > s.maxHands {
		return cfg, fmt.Errorf("%w: hands must be between 1 and %d", errBadRequest, s.maxHands)
	}
	if cfg.Seed == 0 {
		cfg.Seed = s.clock.Now().UnixNano()
	}
	return cfg, nil
}

func (s *Server) checkTrials(trials int) (int, error) {
	if trials == 0 {
		return 1, nil
	}
	if trials < 0 || trials > s.maxTrials {
		return 0, fmt.Errorf("%w: trials must be between 1 and %d", errBadRequest, s.maxTrials)
	}
	return trials, nil
}

func (s *Server) requestStrategy(req simulationRequest) (strategy.Config, error) {
	if req.Config != nil {
		cfg := req.Config.Clone()
		if cfg.Name == "" {
			cfg.Name = "custom"
		}
		return cfg, nil
	}
	name := req.Strategy
	if name == "" {
		name = "basic"
	}
	cfg, err := s.strategy(name)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return cfg, nil
}

// runSimulation runs one or more trials of a strategy and saves the run
// when a results store is configured.
func (s *Server) runSimulation(w http.ResponseWriter, r *http.Request) {
	rules := s.rules
	req := simulationRequest{Rules: &rules}
	if err := decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	strat, err := s.requestStrategy(req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	trials, err := s.checkTrials(req.Trials)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	simCfg, err := s.simulationConfig(req.Rules, req.Hands, req.Seed)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	resp := simulationResponse{}
	if trials == 1 {
		resp.Result, err = simulator.RunSimulation(r.Context(), simCfg, strat)
	} else {
		resp.Trials, err = simulator.RunTrials(r.Context(), simCfg, strat, trials, s.workers)
		if err == nil {
			resp.Result = resp.Trials.Results[0]
		}
	}
	if err != nil {
		s.respondErr(w, err)
		return
	}

	if s.runs != nil {
		run, err := s.runs.Save(r.Context(), results.Run{
			Name:     req.Name,
			Strategy: strat,
			Rules:    simCfg.Rules,
			Result:   resp.Result,
			Trials:   resp.Trials,
		})
		if err != nil {
			s.respondErr(w, err)
			return
		}
		resp.ID = run.ID
	}
	respond(w, http.StatusOK, resp)
}

func (s *Server) compareStrategies(w http.ResponseWriter, r *http.Request) {
	rules := s.rules
	req := compareRequest{Rules: &rules}
	if err := decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if len(req.Strategies) == 0 {
		req.Strategies = strategy.PresetNames()
	}
	trials, err := s.checkTrials(req.Trials)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	simCfg, err := s.simulationConfig(req.Rules, req.Hands, req.Seed)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	configs := make(map[string]strategy.Config, len(req.Strategies))
	for _, name := range req.Strategies {
		cfg, err := s.strategy(name)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		configs[name] = cfg
	}

	summaries, err := simulator.Compare(r.Context(), simCfg, configs, trials, s.workers)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"results": summaries})
}

func (s *Server) listSimulations(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "results store not configured")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"simulations": runs})
}

func (s *Server) getSimulation(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		respondError(w, http.StatusServiceUnavailable, "results store not configured")
		return
	}
	run, err := s.runs.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, run)
}

// streamEvent is sent over the simulation websocket.
type streamEvent struct {
	Type   string            `json:"type"` // progress, result or error
	Done   int               `json:"done,omitempty"`
	Total  int               `json:"total,omitempty"`
	Result *simulator.Result `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, v)
	}
	return n, nil
}

// streamSimulation runs a single simulation and reports progress over a
// websocket. Query parameters: strategy, hands, seed, progress_every.
// Closing the socket cancels the run.
func (s *Server) streamSimulation(w http.ResponseWriter, r *http.Request) {
	hands, err := queryInt(r, "hands", 10000)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	seed, err := queryInt(r, "seed", 0)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	every, err := queryInt(r, "progress_every", simulator.DefaultProgressEvery)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	strat, err := s.requestStrategy(simulationRequest{Strategy: r.URL.Query().Get("strategy")})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	simCfg, err := s.simulationConfig(nil, hands, int64(seed))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// the reader only notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	simCfg.ProgressEvery = every
	simCfg.Progress = func(done, total int) {
		if err := conn.WriteJSON(streamEvent{Type: "progress", Done: done, Total: total}); err != nil {
			cancel()
		}
	}

	result, err := simulator.RunSimulation(ctx, simCfg, strat)
	if err != nil {
		s.logger.Warn("Streamed simulation failed", "strategy", strat.Name, "error", err)
		_ = conn.WriteJSON(streamEvent{Type: "error", Error: err.Error()})
		return
	}
	_ = conn.WriteJSON(streamEvent{Type: "result", Result: result})
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}
