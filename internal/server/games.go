package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lox/blackjacksim/internal/advisor"
	"github.com/lox/blackjacksim/internal/game"
	"github.com/lox/blackjacksim/internal/session"
	"github.com/lox/blackjacksim/internal/strategy"
)

type betRequest struct {
	Amount int `json:"amount"`
}

type actionRequest struct {
	Action string `json:"action"`
}

type newGameResponse struct {
	SessionID string        `json:"session_id"`
	GameState game.Snapshot `json:"game_state"`
}

type roundResponse struct {
	Results   []game.Result `json:"results"`
	GameState game.Snapshot `json:"game_state"`
}

type newRoundResponse struct {
	PreviousResults []game.Result `json:"previous_results"`
	GameState       game.Snapshot `json:"game_state"`
}

type statisticsResponse struct {
	Available bool `json:"available"`
	*advisor.Analysis
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		s.respondErr(w, err)
		return nil, false
	}
	return sess, true
}

// newGame starts a session. The body may override any of the table rules.
func (s *Server) newGame(w http.ResponseWriter, r *http.Request) {
	rules := s.rules
	if err := decode(r, &rules); err != nil {
		s.respondErr(w, err)
		return
	}
	sess, err := s.sessions.Create(rules)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("New game", "session", sess.ID, "decks", rules.NumDecks)
	respond(w, http.StatusCreated, newGameResponse{SessionID: sess.ID, GameState: sess.Snapshot()})
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{"sessions": s.sessions.List()})
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(mux.Vars(r)["id"]); err != nil {
		s.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) gameState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req betRequest
	if err := decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	snap, err := sess.Bet(req.Amount)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, snap)
}

func (s *Server) playerAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := decode(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	action, err := game.ParseAction(req.Action)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid action %q", req.Action))
		return
	}
	snap, err := sess.Act(action)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, snap)
}

func (s *Server) newRound(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	results, snap, err := sess.NewRound()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, newRoundResponse{PreviousResults: results, GameState: snap})
}

func (s *Server) roundResults(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	results, snap, err := sess.Results()
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, roundResponse{Results: results, GameState: snap})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, map[string]any{"history": sess.History()})
}

// autoPlay finishes the player's turn. The basic strategy plays without a
// count; any other strategy deviates on the shoe's true count.
func (s *Server) autoPlay(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var strat *strategy.Strategy
	if name := r.URL.Query().Get("strategy"); name != "" && name != "basic" {
		cfg, err := s.strategy(name)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		strat = strategy.New(cfg, sess.Snapshot().ShoeInfo.NumDecks, s.logger)
	}

	snap, err := sess.AutoPlay(strat)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respond(w, http.StatusOK, snap)
}

func (s *Server) statistics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	analysis, err := sess.Analyze()
	if err != nil {
		respond(w, http.StatusOK, statisticsResponse{Available: false})
		return
	}
	respond(w, http.StatusOK, statisticsResponse{Available: true, Analysis: analysis})
}
