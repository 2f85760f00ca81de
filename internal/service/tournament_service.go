package service

import (
	"context"
	"sort"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/google/uuid"
)

type TournamentService struct {
	repo Repository
}

func NewTournamentService(repo Repository) *TournamentService {
	return &TournamentService{repo: repo}
}

// PhaseMatches holds the matches of one phase in match number order.
type PhaseMatches struct {
	Phase   bracket.Phase   `json:"phase"`
	Matches []bracket.Match `json:"matches"`
}

type TournamentOverview struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Groups     []bracket.Group     `json:"groups"`
	Teams      []bracket.Team      `json:"teams"`
	Phases     []PhaseMatches      `json:"phases"`
	// NextMatchID is the earliest unfinished match with both teams known.
	NextMatchID *uuid.UUID `json:"next_match_id"`
}

// GetOverview returns everything needed to render a tournament page.
func (s *TournamentService) GetOverview(ctx context.Context, tournamentID uuid.UUID) (*TournamentOverview, error) {
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
	teams, err := s.repo.GetTeams(ctx, store.TeamFilter{TournamentID: tournamentID})
	if err != nil {
		return nil, storeErr("select teams", err)
	}
	matches, err := s.repo.GetMatches(ctx, store.MatchFilter{TournamentID: tournamentID})
	if err != nil {
		return nil, storeErr("select matches", err)
	}

	phases := groupByPhase(matches)

	var next *uuid.UUID
	for _, p := range phases {
		for _, m := range p.Matches {
			if m.Status != bracket.MatchFinished && m.HasTeams() {
				id := m.ID
				next = &id
				break
			}
		}
		if next != nil {
			break
		}
	}

	return &TournamentOverview{
		Tournament:  tournament,
		Groups:      groups,
		Teams:       teams,
		Phases:      phases,
		NextMatchID: next,
	}, nil
}

// groupByPhase splits matches by phase, phases in timeline order. Empty phases are left out.
func groupByPhase(matches []bracket.Match) []PhaseMatches {
	byPhase := make(map[bracket.Phase][]bracket.Match)
	var order []bracket.Phase
	for _, m := range matches {
		if _, exists := byPhase[m.Phase]; !exists {
			order = append(order, m.Phase)
		}
		byPhase[m.Phase] = append(byPhase[m.Phase], m)
	}
	sort.Slice(order, func(i, j int) bool {
		return order[i].Order() < order[j].Order()
	})

	phases := make([]PhaseMatches, 0, len(order))
	for _, p := range order {
		ms := byPhase[p]
		sort.SliceStable(ms, func(i, j int) bool {
			return ms[i].MatchNumber < ms[j].MatchNumber
		})
		phases = append(phases, PhaseMatches{Phase: p, Matches: ms})
	}
	return phases
}
