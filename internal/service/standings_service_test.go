package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/testutil"
	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStandings(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	s := f.SeedTwoGroups()

	svc := NewStandingsService(f.Store)
	rows, err := svc.GetStandings(context.Background(), f.Tournament.ID, s.A.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	first, second, third := rows[0], rows[1], rows[2]

	assert.Equal(t, s.A1.ID, first.TeamID)
	assert.Equal(t, "A1", first.TeamName)
	assert.Equal(t, 2, first.Played)
	assert.Equal(t, 2, first.Won)
	assert.Equal(t, 0, first.Lost)
	assert.Equal(t, 42, first.PointsFor)
	assert.Equal(t, 25, first.PointsAgainst)
	assert.Equal(t, 17, first.PointDiff)
	assert.Equal(t, 4, first.TournamentPoints)
	assert.Equal(t, 2, first.TotalFouls)
	assert.InDelta(t, 1.0, first.WinPct, 1e-9)
	assert.Equal(t, 2, first.Streak)

	assert.Equal(t, s.A2.ID, second.TeamID)
	assert.Equal(t, 3, second.TournamentPoints)
	assert.Equal(t, -3, second.PointDiff)
	assert.Equal(t, 3, second.TotalFouls)
	assert.InDelta(t, 0.5, second.WinPct, 1e-9)
	assert.Equal(t, 1, second.Streak, "lost then won")

	assert.Equal(t, s.A3.ID, third.TeamID)
	assert.Equal(t, 2, third.TournamentPoints, "a loss still earns a point")
	assert.Equal(t, 0, third.Won)
	assert.Equal(t, 2, third.Lost)
	assert.Equal(t, -2, third.Streak)
}

func TestGetStandingsCompleteness(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	g := f.AddGroup("Zona Norte")
	played := f.AddTeams(g, "Played 1", "Played 2")
	idle := f.AddTeam(g, "Idle", bracket.TeamApproved)
	f.AddTeam(g, "Waiting list", bracket.TeamPending)
	f.AddTeam(g, "Rejected", bracket.TeamRejected)
	f.PlayGroupMatch(g, played[0], played[1], 18, 16)
	f.ScheduleGroupMatch(g, played[0], idle)

	rows, err := NewStandingsService(f.Store).GetStandings(context.Background(), f.Tournament.ID, g.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3, "one row per approved team")

	byTeam := make(map[uuid.UUID]bracket.Standing)
	for _, r := range rows {
		byTeam[r.TeamID] = r
	}
	require.Contains(t, byTeam, idle.ID)
	assert.Equal(t, bracket.Standing{TeamID: idle.ID, TeamName: "Idle"}, byTeam[idle.ID], "unplayed team has a zero row")
	assert.Equal(t, 1, byTeam[played[0].ID].Played, "pending matches do not count")
}

func TestGetStandingsUnknownGroup(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)

	rows, err := NewStandingsService(f.Store).GetStandings(context.Background(), f.Tournament.ID, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestGetStandingsStoreError(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	s := f.SeedTwoGroups()

	repo := &faultyRepo{Repository: f.Store, failOn: "GetMatches", err: errors.New("connection reset")}
	_, err := NewStandingsService(repo).GetStandings(context.Background(), f.Tournament.ID, s.A.ID)

	var storeError *StoreError
	require.ErrorAs(t, err, &storeError)
	assert.Equal(t, "select matches", storeError.Op)
}

func TestAllStandings(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	s := f.SeedTwoGroups()
	svc := NewStandingsService(f.Store)

	tables, err := svc.AllStandings(context.Background(), f.Tournament.ID)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, s.A.ID, tables[0].Group.ID)
	assert.Equal(t, s.B.ID, tables[1].Group.ID)
	assert.Equal(t, s.B1.ID, tables[1].Standings[0].TeamID)

	_, err = svc.AllStandings(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

// finished builds an in-memory finished group match between a and b.
func finished(a, b uuid.UUID, scoreA, scoreB int, at time.Time) bracket.Match {
	m := bracket.Match{
		Phase:      bracket.PhaseGroups,
		Round:      "Jornada 1",
		TeamAID:    utils.Ptr(a),
		TeamBID:    utils.Ptr(b),
		TeamAScore: utils.Ptr(scoreA),
		TeamBScore: utils.Ptr(scoreB),
		Status:     bracket.MatchFinished,
		CreatedAt:  at,
	}
	switch {
	case scoreA > scoreB:
		m.WinnerID = utils.Ptr(a)
	case scoreB > scoreA:
		m.WinnerID = utils.Ptr(b)
	}
	return m
}

func teams(names ...string) []bracket.Team {
	out := make([]bracket.Team, len(names))
	for i, name := range names {
		out[i] = bracket.Team{ID: uuid.New(), Name: name, Status: bracket.TeamApproved}
	}
	return out
}

func TestComputeStandingsScoring(t *testing.T) {
	ts := teams("Winner", "Loser", "Tie 1", "Tie 2")
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	rows := computeStandings(ts, []bracket.Match{
		finished(ts[0].ID, ts[1].ID, 21, 19, start),
		finished(ts[2].ID, ts[3].ID, 17, 17, start.Add(time.Hour)),
	})

	byName := make(map[string]bracket.Standing)
	for _, r := range rows {
		byName[r.TeamName] = r
	}

	assert.Equal(t, pointsForWin, byName["Winner"].TournamentPoints)
	assert.Equal(t, pointsForLoss, byName["Loser"].TournamentPoints)

	for _, name := range []string{"Tie 1", "Tie 2"} {
		row := byName[name]
		assert.Equal(t, pointsForTie, row.TournamentPoints, name)
		assert.Equal(t, 1, row.Played, name)
		assert.Zero(t, row.Won, name)
		assert.Zero(t, row.Lost, name)
		assert.Zero(t, row.WinPct, name)
		assert.Zero(t, row.Streak, "ties do not start a streak")
	}
}

func TestComputeStandingsTieBreaks(t *testing.T) {
	// Y is created before X but loses the points-for tie break.
	ts := teams("Y", "Idle", "Z", "X")
	y, idle, z, x := ts[0], ts[1], ts[2], ts[3]
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	rows := computeStandings(ts, []bracket.Match{
		finished(x.ID, z.ID, 30, 20, start),
		finished(y.ID, z.ID, 25, 15, start.Add(time.Hour)),
	})

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.TeamName
	}
	assert.Equal(t, []string{"X", "Y", "Z", "Idle"}, names)
	assert.Equal(t, rows[0].PointDiff, rows[1].PointDiff)
	assert.Equal(t, idle.ID, rows[3].TeamID)

	assert.True(t, sort.SliceIsSorted(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TournamentPoints != b.TournamentPoints {
			return a.TournamentPoints > b.TournamentPoints
		}
		if a.PointDiff != b.PointDiff {
			return a.PointDiff > b.PointDiff
		}
		return a.PointsFor > b.PointsFor
	}))
}

func TestComputeStandingsFullTieKeepsOrder(t *testing.T) {
	ts := teams("First", "Second", "Third")
	rows := computeStandings(ts, nil)

	require.Len(t, rows, 3)
	for i := range ts {
		assert.Equal(t, ts[i].ID, rows[i].TeamID)
	}
}

func TestComputeStandingsStreakIsChronological(t *testing.T) {
	ts := teams("Streaky", "Opp 1", "Opp 2", "Opp 3")
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Passed out of order; the latest two results are wins.
	rows := computeStandings(ts, []bracket.Match{
		finished(ts[0].ID, ts[3].ID, 20, 10, start.Add(3*time.Hour)),
		finished(ts[0].ID, ts[1].ID, 10, 20, start.Add(time.Hour)),
		finished(ts[2].ID, ts[0].ID, 15, 22, start.Add(2*time.Hour)),
	})

	for _, r := range rows {
		if r.TeamName == "Streaky" {
			assert.Equal(t, 2, r.Streak)
			assert.Equal(t, 3, r.Played)
			return
		}
	}
	t.Fatal("team missing from standings")
}

func TestComputeStandingsIgnoresOutsiders(t *testing.T) {
	ts := teams("Member")
	outsider := uuid.New()

	rows := computeStandings(ts, []bracket.Match{
		finished(ts[0].ID, outsider, 21, 12, time.Now()),
	})

	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Won)
	assert.Equal(t, 2, rows[0].TournamentPoints)
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name    string
		results []bool
		want    int
	}{
		{"none", nil, 0},
		{"single win", []bool{true}, 1},
		{"three losses", []bool{false, false, false}, -3},
		{"broken win run", []bool{true, true, false, true, true}, 2},
		{"loss after wins", []bool{true, true, false}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, streak(tt.results))
		})
	}
}
