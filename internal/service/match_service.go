package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/metrics"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
)

// Bounds of synthetic results, inclusive.
const (
	simScoreMin = 15
	simScoreMax = 24
	simFoulsMax = 4
)

type MatchService struct {
	repo    Repository
	metrics *metrics.Manager
	intN    func(n int) int
	now     func() time.Time
}

func NewMatchService(repo Repository, m *metrics.Manager) *MatchService {
	return &MatchService{
		repo:    repo,
		metrics: m,
		intN:    rand.IntN,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Result is a final score submitted by the scorekeeper.
type Result struct {
	ScoreA int `json:"team_a_score"`
	ScoreB int `json:"team_b_score"`
	FoulsA int `json:"fouls_a"`
	FoulsB int `json:"fouls_b"`
}

// PhaseSimulation summarises one SimulatePhase call.
type PhaseSimulation struct {
	Phases    []bracket.Phase `json:"phases"`
	Simulated int             `json:"simulated"`
	Skipped   int             `json:"skipped"`
}

// SimulateMatch finishes one pending match with a random result. It does not touch
// downstream slots; call Propagate for that.
func (s *MatchService) SimulateMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.loadOpenMatch(ctx, matchID)
	if err == nil {
		err = s.simulate(ctx, match)
	}
	if err != nil {
		s.metrics.EngineError("simulate_match", errorKind(err))
		return nil, err
	}
	return match, nil
}

// SimulatePhase resolves every pending match of the tournament's current phase, one
// at a time, propagating each result before the next match is read. Matches with an
// undetermined slot are skipped.
func (s *MatchService) SimulatePhase(ctx context.Context, tournamentID uuid.UUID) (*PhaseSimulation, error) {
	report, err := s.simulatePhase(ctx, tournamentID)
	if err != nil {
		s.metrics.EngineError("simulate_phase", errorKind(err))
		return nil, err
	}
	return report, nil
}

func (s *MatchService) simulatePhase(ctx context.Context, tournamentID uuid.UUID) (*PhaseSimulation, error) {
	tournament, err := s.repo.GetTournament(ctx, tournamentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeErr("select tournament", err)
	}

	phases, ok := tournament.CurrentPhases()
	if !ok {
		return nil, fmt.Errorf("%w: status is %q", ErrInvalidPhase, tournament.Status)
	}

	pending, err := s.repo.GetMatches(ctx, store.MatchFilter{
		TournamentID: tournamentID,
		Phases:       phases,
		Statuses:     []bracket.MatchStatus{bracket.MatchPending},
	})
	if err != nil {
		return nil, storeErr("select pending matches", err)
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Phase.Order() < pending[j].Phase.Order()
	})

	report := &PhaseSimulation{Phases: phases}
	for _, p := range pending {
		// Earlier iterations may have filled this match's slots
		match, err := s.getMatch(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if match.Status != bracket.MatchPending {
			continue
		}
		if !match.HasTeams() {
			report.Skipped++
			s.metrics.MatchSkipped()
			slog.Warn("skipping match with undetermined team", "match_id", match.ID, "round", match.Round)
			continue
		}

		if err := s.simulate(ctx, match); err != nil {
			return nil, err
		}
		finished, err := s.getMatch(ctx, match.ID)
		if err != nil {
			return nil, err
		}
		if err := s.propagate(ctx, finished); err != nil {
			return nil, err
		}
		report.Simulated++
	}

	slog.Info("phase simulated",
		"tournament_id", tournamentID,
		"status", tournament.Status,
		"simulated", report.Simulated,
		"skipped", report.Skipped,
	)
	return report, nil
}

// RecordResult finishes a match with a submitted score and fills the downstream
// slots that depend on it.
func (s *MatchService) RecordResult(ctx context.Context, matchID uuid.UUID, result Result) (*bracket.Match, error) {
	match, err := s.recordResult(ctx, matchID, result)
	if err != nil {
		s.metrics.EngineError("record_result", errorKind(err))
		return nil, err
	}
	s.metrics.ResultRecorded()
	return match, nil
}

func (s *MatchService) recordResult(ctx context.Context, matchID uuid.UUID, result Result) (*bracket.Match, error) {
	if result.ScoreA < 0 || result.ScoreB < 0 || result.FoulsA < 0 || result.FoulsB < 0 {
		return nil, ErrInvalidResult
	}
	if result.ScoreA == result.ScoreB {
		return nil, fmt.Errorf("%w: %d-%d", ErrTiedResult, result.ScoreA, result.ScoreB)
	}

	match, err := s.loadOpenMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	winner := *match.TeamAID
	if result.ScoreB > result.ScoreA {
		winner = *match.TeamBID
	}
	if err := s.finish(ctx, match, result, winner); err != nil {
		return nil, err
	}
	if err := s.propagate(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// Propagate fills the bracket slots fed by a finished match. Running it again for
// the same match changes nothing.
func (s *MatchService) Propagate(ctx context.Context, matchID uuid.UUID) error {
	match, err := s.getMatch(ctx, matchID)
	if err == nil {
		err = s.propagate(ctx, match)
	}
	if err != nil {
		s.metrics.EngineError("propagate", errorKind(err))
	}
	return err
}

func (s *MatchService) propagate(ctx context.Context, match *bracket.Match) error {
	if match.Status != bracket.MatchFinished || match.WinnerID == nil {
		return nil
	}

	if match.WinnerNextMatchID != nil && match.WinnerNextSlot != nil {
		if err := s.fillSlot(ctx, *match.WinnerNextMatchID, *match.WinnerNextSlot, *match.WinnerID); err != nil {
			return fmt.Errorf("failed to advance winner of %s: %w", match.Round, err)
		}
	}

	loser := match.Loser()
	if match.LoserNextMatchID != nil && match.LoserNextSlot != nil && loser != nil {
		if err := s.fillSlot(ctx, *match.LoserNextMatchID, *match.LoserNextSlot, *loser); err != nil {
			return fmt.Errorf("failed to send loser of %s: %w", match.Round, err)
		}
	}
	return nil
}

func (s *MatchService) fillSlot(ctx context.Context, matchID uuid.UUID, slot int, teamID uuid.UUID) error {
	next, err := s.getMatch(ctx, matchID)
	if err != nil {
		return err
	}

	if current := next.Team(slot); current != nil {
		if *current == teamID {
			return nil
		}
		return fmt.Errorf("%w: %s slot %d", ErrSlotConflict, next.Round, slot)
	}
	if other := next.Team(otherSlot(slot)); other != nil && *other == teamID {
		return fmt.Errorf("%w: team already in %s", ErrSlotConflict, next.Round)
	}

	next.SetTeam(slot, teamID)
	if err := s.repo.UpdateMatch(ctx, next); err != nil {
		return storeErr("update match", err)
	}
	s.metrics.SlotPropagated()
	return nil
}

func otherSlot(slot int) int {
	if slot == bracket.SlotA {
		return bracket.SlotB
	}
	return bracket.SlotA
}

func (s *MatchService) simulate(ctx context.Context, match *bracket.Match) error {
	result := Result{
		ScoreA: simScoreMin + s.intN(simScoreMax-simScoreMin+1),
		ScoreB: simScoreMin + s.intN(simScoreMax-simScoreMin+1),
		FoulsA: s.intN(simFoulsMax + 1),
		FoulsB: s.intN(simFoulsMax + 1),
	}

	// Equal draws are not re-rolled; team B takes them.
	winner := *match.TeamBID
	if result.ScoreA > result.ScoreB {
		winner = *match.TeamAID
	}

	if err := s.finish(ctx, match, result, winner); err != nil {
		return err
	}
	s.metrics.MatchSimulated()
	return nil
}

func (s *MatchService) finish(ctx context.Context, match *bracket.Match, result Result, winner uuid.UUID) error {
	match.TeamAScore = utils.Ptr(result.ScoreA)
	match.TeamBScore = utils.Ptr(result.ScoreB)
	match.FoulsA = utils.Ptr(result.FoulsA)
	match.FoulsB = utils.Ptr(result.FoulsB)
	match.WinnerID = &winner
	match.Status = bracket.MatchFinished
	match.FinishedAt = utils.Ptr(s.now())

	if err := s.repo.UpdateMatch(ctx, match); err != nil {
		return storeErr("update match", err)
	}
	return nil
}

// loadOpenMatch returns a match that has both teams and no result yet.
func (s *MatchService) loadOpenMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.getMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.Status == bracket.MatchFinished || match.WinnerID != nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchAlreadyFinished, match.Round)
	}
	if !match.HasTeams() {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotReady, match.Round)
	}
	return match, nil
}

func (s *MatchService) getMatch(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	match, err := s.repo.GetMatch(ctx, matchID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		return nil, storeErr("select match", err)
	}
	return match, nil
}

// Match returns one match by id.
func (s *MatchService) Match(ctx context.Context, matchID uuid.UUID) (*bracket.Match, error) {
	return s.getMatch(ctx, matchID)
}
