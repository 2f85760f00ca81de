package main

import (
	"encoding/json"
	"net/http"

	"github.com/AdamBeresnev/blacktop-engine/internal/config"
	"github.com/AdamBeresnev/blacktop-engine/internal/httputil"
	"github.com/AdamBeresnev/blacktop-engine/internal/metrics"
	"github.com/AdamBeresnev/blacktop-engine/internal/middleware"
	"github.com/AdamBeresnev/blacktop-engine/internal/service"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type server struct {
	db        *sqlx.DB
	metrics   *metrics.Manager
	overview  *service.TournamentService
	standings *service.StandingsService
	playoffs  *service.PlayoffService
	matches   *service.MatchService
	locks     *service.TournamentLocks
}

func newServer(database *sqlx.DB, m *metrics.Manager) *server {
	tournamentStore := store.NewTournamentStore(database)
	standings := service.NewStandingsService(tournamentStore)

	return &server{
		db:        database,
		metrics:   m,
		overview:  service.NewTournamentService(tournamentStore),
		standings: standings,
		playoffs:  service.NewPlayoffService(tournamentStore, standings, m),
		matches:   service.NewMatchService(tournamentStore, m),
		locks:     service.NewTournamentLocks(),
	}
}

func newRouter(s *server, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Metrics(s.metrics))

	r.Get("/healthz", s.healthz)
	if cfg.MetricsEnabled {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Get("/tournaments/{id}", s.tournament)
	r.Get("/tournaments/{id}/standings", s.allStandings)
	r.Get("/tournaments/{id}/groups/{groupID}/standings", s.groupStandings)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken))

		r.Post("/tournaments/{id}/playoffs", s.advancePlayoffs)
		r.Post("/tournaments/{id}/simulate", s.simulatePhase)
		r.Post("/matches/{id}/simulate", s.simulateMatch)
		r.Post("/matches/{id}/result", s.recordResult)
	})

	return r
}

func urlUUID(w http.ResponseWriter, r *http.Request, key string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+key, err)
		return uuid.Nil, false
	}
	return id, true
}

func (s *server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) tournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	overview, err := s.overview.GetOverview(r.Context(), tournamentID)
	if err != nil {
		httputil.EngineError(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}

func (s *server) groupStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}
	groupID, ok := urlUUID(w, r, "groupID")
	if !ok {
		return
	}

	rows, err := s.standings.GetStandings(r.Context(), tournamentID, groupID)
	if err != nil {
		httputil.EngineError(w, "Failed to compute standings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rows)
}

func (s *server) allStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	tables, err := s.standings.AllStandings(r.Context(), tournamentID)
	if err != nil {
		httputil.EngineError(w, "Failed to compute standings", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tables)
}

func (s *server) advancePlayoffs(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	matches, err := s.playoffs.AdvanceToPlayoffs(r.Context(), tournamentID)
	if err != nil {
		httputil.EngineError(w, "Failed to advance to playoffs", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, matches)
}

func (s *server) simulatePhase(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	unlock := s.locks.Lock(tournamentID)
	defer unlock()

	report, err := s.matches.SimulatePhase(r.Context(), tournamentID)
	if err != nil {
		httputil.EngineError(w, "Failed to simulate phase", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (s *server) simulateMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	unlock, ok := s.lockMatchTournament(w, r, matchID)
	if !ok {
		return
	}
	defer unlock()

	if _, err := s.matches.SimulateMatch(r.Context(), matchID); err != nil {
		httputil.EngineError(w, "Failed to simulate match", err)
		return
	}
	if err := s.matches.Propagate(r.Context(), matchID); err != nil {
		httputil.EngineError(w, "Failed to propagate match", err)
		return
	}

	match, err := s.matches.Match(r.Context(), matchID)
	if err != nil {
		httputil.EngineError(w, "Failed to reload match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

func (s *server) recordResult(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlUUID(w, r, "id")
	if !ok {
		return
	}

	var result service.Result
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&result); err != nil {
		httputil.BadRequest(w, "Invalid result body", err)
		return
	}

	unlock, ok := s.lockMatchTournament(w, r, matchID)
	if !ok {
		return
	}
	defer unlock()

	match, err := s.matches.RecordResult(r.Context(), matchID, result)
	if err != nil {
		httputil.EngineError(w, "Failed to record result", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, match)
}

// lockMatchTournament takes the lock of the tournament the match belongs to.
func (s *server) lockMatchTournament(w http.ResponseWriter, r *http.Request, matchID uuid.UUID) (func(), bool) {
	match, err := s.matches.Match(r.Context(), matchID)
	if err != nil {
		httputil.EngineError(w, "Failed to load match", err)
		return nil, false
	}
	return s.locks.Lock(match.TournamentID), true
}
