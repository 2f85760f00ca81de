package service

import (
	"context"
	"sort"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
)

// Points awarded per group match. A loss still earns a participation point.
const (
	pointsForWin  = 2
	pointsForLoss = 1
	pointsForTie  = 1
)

type StandingsService struct {
	repo Repository
}

func NewStandingsService(repo Repository) *StandingsService {
	return &StandingsService{repo: repo}
}

// GroupStandings is the ranking table of one group.
type GroupStandings struct {
	Group     bracket.Group      `json:"group"`
	Standings []bracket.Standing `json:"standings"`
}

// GetStandings ranks every approved team of a group from its finished group matches.
// An unknown group yields an empty table rather than an error.
func (s *StandingsService) GetStandings(ctx context.Context, tournamentID, groupID uuid.UUID) ([]bracket.Standing, error) {
	approved := bracket.TeamApproved
	teams, err := s.repo.GetTeams(ctx, store.TeamFilter{
		TournamentID: tournamentID,
		GroupID:      &groupID,
		Status:       &approved,
	})
	if err != nil {
		return nil, storeErr("select teams", err)
	}
	if len(teams) == 0 {
		return []bracket.Standing{}, nil
	}

	matches, err := s.repo.GetMatches(ctx, store.MatchFilter{
		TournamentID: tournamentID,
		GroupID:      &groupID,
		Phases:       []bracket.Phase{bracket.PhaseGroups},
		Statuses:     []bracket.MatchStatus{bracket.MatchFinished},
	})
	if err != nil {
		return nil, storeErr("select matches", err)
	}

	return computeStandings(teams, matches), nil
}

// AllStandings returns the table of every group of the tournament in group order.
func (s *StandingsService) AllStandings(ctx context.Context, tournamentID uuid.UUID) ([]GroupStandings, error) {
	if _, err := s.repo.GetTournament(ctx, tournamentID); err != nil {
		if isNotFound(err) {
			return nil, ErrTournamentNotFound
		}
		return nil, storeErr("select tournament", err)
	}

	groups, err := s.repo.GetGroups(ctx, tournamentID)
	if err != nil {
		return nil, storeErr("select groups", err)
	}

	tables := make([]GroupStandings, 0, len(groups))
	for _, g := range groups {
		rows, err := s.GetStandings(ctx, tournamentID, g.ID)
		if err != nil {
			return nil, err
		}
		tables = append(tables, GroupStandings{Group: g, Standings: rows})
	}
	return tables, nil
}

func computeStandings(teams []bracket.Team, matches []bracket.Match) []bracket.Standing {
	rows := make([]bracket.Standing, len(teams))
	index := make(map[uuid.UUID]*bracket.Standing, len(teams))
	for i, t := range teams {
		rows[i] = bracket.Standing{TeamID: t.ID, TeamName: t.Name}
		index[t.ID] = &rows[i]
	}

	// Streaks are read off the chronological result sequence
	sorted := make([]bracket.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	results := make(map[uuid.UUID][]bool, len(teams))

	for _, m := range sorted {
		if m.TeamAID == nil || m.TeamBID == nil || m.TeamAScore == nil || m.TeamBScore == nil {
			continue
		}
		scoreA, scoreB := *m.TeamAScore, *m.TeamBScore
		a, b := index[*m.TeamAID], index[*m.TeamBID]

		if a != nil {
			a.Played++
			a.PointsFor += scoreA
			a.PointsAgainst += scoreB
			a.TotalFouls += utils.OrZero(m.FoulsA)
		}
		if b != nil {
			b.Played++
			b.PointsFor += scoreB
			b.PointsAgainst += scoreA
			b.TotalFouls += utils.OrZero(m.FoulsB)
		}

		switch {
		case scoreA == scoreB:
			if a != nil {
				a.TournamentPoints += pointsForTie
			}
			if b != nil {
				b.TournamentPoints += pointsForTie
			}
		case scoreA > scoreB:
			recordResult(a, results, *m.TeamAID, true)
			recordResult(b, results, *m.TeamBID, false)
		default:
			recordResult(a, results, *m.TeamAID, false)
			recordResult(b, results, *m.TeamBID, true)
		}
	}

	for i := range rows {
		r := &rows[i]
		r.PointDiff = r.PointsFor - r.PointsAgainst
		if r.Played > 0 {
			r.WinPct = float64(r.Won) / float64(r.Played)
		}
		r.Streak = streak(results[r.TeamID])
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].RanksAbove(rows[j])
	})
	return rows
}

func recordResult(row *bracket.Standing, results map[uuid.UUID][]bool, teamID uuid.UUID, won bool) {
	if row == nil {
		return
	}
	if won {
		row.Won++
		row.TournamentPoints += pointsForWin
	} else {
		row.Lost++
		row.TournamentPoints += pointsForLoss
	}
	results[teamID] = append(results[teamID], won)
}

// streak walks back from the latest result while results repeat. Positive counts
// wins, negative counts losses.
func streak(results []bool) int {
	if len(results) == 0 {
		return 0
	}
	last := results[len(results)-1]
	n := 0
	for i := len(results) - 1; i >= 0 && results[i] == last; i-- {
		n++
	}
	if !last {
		return -n
	}
	return n
}
