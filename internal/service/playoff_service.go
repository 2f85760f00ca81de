package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/metrics"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Qualified teams per group used by the two-group bracket.
const bracketSeedsPerGroup = 2

type PlayoffService struct {
	repo      Repository
	standings *StandingsService
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewPlayoffService(repo Repository, standings *StandingsService, m *metrics.Manager) *PlayoffService {
	return &PlayoffService{
		repo:      repo,
		standings: standings,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// AdvanceToPlayoffs replaces the tournament's playoff bracket with one seeded from
// the current group standings and moves the tournament into the playoffs.
//
// Every precondition is checked before the first write. Once writing starts the
// old bracket is deleted before the new one is inserted; if the insert fails the
// tournament is left without a bracket and calling again rebuilds it.
func (s *PlayoffService) AdvanceToPlayoffs(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	matches, err := s.advance(ctx, tournamentID)
	if err != nil {
		s.metrics.EngineError("advance_playoffs", errorKind(err))
		return nil, err
	}
	s.metrics.BracketGenerated()
	return matches, nil
}

func (s *PlayoffService) advance(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	groupMatches, err := s.repo.GetMatches(ctx, store.MatchFilter{
		TournamentID: tournamentID,
		Phases:       []bracket.Phase{bracket.PhaseGroups},
	})
	if err != nil {
		return nil, storeErr("select group matches", err)
	}
	for _, m := range groupMatches {
		if m.Status != bracket.MatchFinished {
			return nil, fmt.Errorf("%w: match %d is %s", ErrPhaseIncomplete, m.MatchNumber, m.Status)
		}
	}

	tournament, err := s.repo.GetTournament(ctx, tournamentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeErr("select tournament", err)
	}

	groups, err := s.repo.GetGroups(ctx, tournamentID)
	if err != nil {
		return nil, storeErr("select groups", err)
	}
	if len(groups) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientGroups, len(groups))
	}
	if len(groups) > 2 {
		slog.Warn("only the first two groups are seeded into the bracket", "tournament_id", tournamentID, "groups", len(groups))
	}

	qualifiers, err := s.qualify(ctx, tournament, groups[:2])
	if err != nil {
		return nil, err
	}

	maxNumber, err := s.repo.MaxMatchNumber(ctx, tournamentID)
	if err != nil {
		return nil, storeErr("select max match number", err)
	}

	matches, err := buildBracket(tournament, qualifiers[0], qualifiers[1], maxNumber, s.now())
	if err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteMatches(ctx, tournamentID, bracket.BracketPhases())
	if err != nil {
		return nil, storeErr("delete bracket", err)
	}

	if err := s.repo.InsertMatches(ctx, matches); err != nil {
		return nil, storeErr("insert bracket", err)
	}

	if err := s.repo.UpdateTournamentStatus(ctx, tournamentID, bracket.TournamentPlayoffs); err != nil {
		return nil, storeErr("update tournament status", err)
	}

	slog.Info("playoff bracket generated",
		"tournament_id", tournamentID,
		"matches", len(matches),
		"replaced", deleted,
		"third_place", tournament.ThirdPlaceMatch,
	)
	return matches, nil
}

// qualify returns, per group, the top ranked teams in rank order. Group tables are
// read concurrently; nothing is written.
func (s *PlayoffService) qualify(ctx context.Context, tournament *bracket.Tournament, groups []bracket.Group) ([][]bracket.Standing, error) {
	advance := tournament.AdvancePerGroup()
	qualifiers := make([][]bracket.Standing, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	for i, group := range groups {
		g.Go(func() error {
			rows, err := s.standings.GetStandings(gctx, tournament.ID, group.ID)
			if err != nil {
				return err
			}
			if len(rows) > advance {
				rows = rows[:advance]
			}
			if len(rows) < bracketSeedsPerGroup {
				return fmt.Errorf("%w: %s has %d", ErrNotEnoughQualifiers, group.Label(), len(rows))
			}
			qualifiers[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return qualifiers, nil
}

// buildBracket pairs the two groups crosswise: A1 v B2 and B1 v A2. Semifinal
// winners feed the final and, when enabled, losers feed the third place match.
func buildBracket(tournament *bracket.Tournament, groupA, groupB []bracket.Standing, lastNumber int, now time.Time) ([]bracket.Match, error) {
	number := lastNumber
	next := func(slot bracket.BracketSlot) (bracket.Match, error) {
		number++
		return bracket.NewPlayoffMatch(tournament.ID, slot, number, now)
	}

	semi1, err := next(bracket.Semifinal1)
	if err != nil {
		return nil, err
	}
	semi2, err := next(bracket.Semifinal2)
	if err != nil {
		return nil, err
	}
	final, err := next(bracket.Final)
	if err != nil {
		return nil, err
	}

	semi1.SetTeam(bracket.SlotA, groupA[0].TeamID)
	semi1.SetTeam(bracket.SlotB, groupB[1].TeamID)
	semi2.SetTeam(bracket.SlotA, groupB[0].TeamID)
	semi2.SetTeam(bracket.SlotB, groupA[1].TeamID)

	semi1.FeedWinner(&final, bracket.SlotA)
	semi2.FeedWinner(&final, bracket.SlotB)

	if !tournament.ThirdPlaceMatch {
		return []bracket.Match{semi1, semi2, final}, nil
	}

	thirdPlace, err := next(bracket.ThirdPlace)
	if err != nil {
		return nil, err
	}
	semi1.FeedLoser(&thirdPlace, bracket.SlotA)
	semi2.FeedLoser(&thirdPlace, bracket.SlotB)

	return []bracket.Match{semi1, semi2, final, thirdPlace}, nil
}
