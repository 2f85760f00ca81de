package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/AdamBeresnev/blacktop-engine/internal/testutil"
	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTournament(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, true)
	ctx := context.Background()

	got, err := f.Store.GetTournament(ctx, f.Tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Tournament.ID, got.ID)
	assert.Equal(t, "Blacktop Summer", got.Name)
	assert.Equal(t, bracket.TournamentGroups, got.Status)
	assert.Equal(t, 2, got.TeamsAdvancePerGroup)
	assert.True(t, got.ThirdPlaceMatch)

	_, err = f.Store.GetTournament(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateTournamentStatus(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	ctx := context.Background()

	require.NoError(t, f.Store.UpdateTournamentStatus(ctx, f.Tournament.ID, bracket.TournamentPlayoffs))

	got, err := f.Store.GetTournament(ctx, f.Tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentPlayoffs, got.Status)

	err = f.Store.UpdateTournamentStatus(ctx, uuid.New(), bracket.TournamentPlayoffs)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetGroupsOrdered(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)

	f.AddGroup("Zona Norte")
	f.AddGroup("Zona Sur")

	groups, err := f.Store.GetGroups(context.Background(), f.Tournament.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Zona Norte", groups[0].Name)
	assert.Equal(t, 1, groups[1].OrderIndex)
}

func TestGetTeamsFilter(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	ctx := context.Background()

	a := f.AddGroup("A")
	b := f.AddGroup("B")
	f.AddTeam(a, "Los Aleros", bracket.TeamApproved)
	f.AddTeam(a, "Triple Doble", bracket.TeamPending)
	f.AddTeam(a, "Bandeja", bracket.TeamApproved)
	f.AddTeam(b, "Tablero", bracket.TeamApproved)

	all, err := f.Store.GetTeams(ctx, store.TeamFilter{TournamentID: f.Tournament.ID})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	approved := bracket.TeamApproved
	teams, err := f.Store.GetTeams(ctx, store.TeamFilter{
		TournamentID: f.Tournament.ID,
		GroupID:      &a.ID,
		Status:       &approved,
	})
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Los Aleros", teams[0].Name, "teams come back in creation order")
	assert.Equal(t, "Bandeja", teams[1].Name)
}

func TestMatchesRoundTrip(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, true)
	ctx := context.Background()
	s := f.SeedTwoGroups()

	semi, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Semifinal1, 7, time.Now().UTC())
	require.NoError(t, err)
	final, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Final, 8, time.Now().UTC())
	require.NoError(t, err)
	semi.SetTeam(bracket.SlotA, s.A1.ID)
	semi.SetTeam(bracket.SlotB, s.B2.ID)
	semi.FeedWinner(&final, bracket.SlotA)

	require.NoError(t, f.Store.InsertMatches(ctx, []bracket.Match{semi, final}))

	got, err := f.Store.GetMatch(ctx, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, "Semifinal 1", got.Round)
	assert.Equal(t, bracket.PhaseSemifinals, got.Phase)
	assert.Equal(t, s.A1.ID, *got.TeamAID)
	assert.Equal(t, s.B2.ID, *got.TeamBID)
	assert.Nil(t, got.GroupID)
	assert.Nil(t, got.TeamAScore)
	assert.Equal(t, final.ID, *got.WinnerNextMatchID)
	assert.Equal(t, bracket.SlotA, *got.WinnerNextSlot)
	assert.Nil(t, got.LoserNextMatchID)

	got.TeamAScore = utils.Ptr(22)
	got.TeamBScore = utils.Ptr(19)
	got.WinnerID = utils.Ptr(s.A1.ID)
	got.Status = bracket.MatchFinished
	got.FinishedAt = utils.Ptr(time.Now().UTC())
	require.NoError(t, f.Store.UpdateMatch(ctx, got))

	updated, err := f.Store.GetMatch(ctx, semi.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.MatchFinished, updated.Status)
	assert.Equal(t, 22, *updated.TeamAScore)
	assert.Equal(t, s.A1.ID, *updated.WinnerID)
	assert.NotNil(t, updated.FinishedAt)

	_, err = f.Store.GetMatch(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)

	missing := *got
	missing.ID = uuid.New()
	assert.ErrorIs(t, f.Store.UpdateMatch(ctx, &missing), store.ErrNotFound)
}

func TestInsertMatchesIsAtomic(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	ctx := context.Background()

	first, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Semifinal1, 1, time.Now().UTC())
	require.NoError(t, err)
	clash, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Semifinal2, 1, time.Now().UTC())
	require.NoError(t, err)

	err = f.Store.InsertMatches(ctx, []bracket.Match{first, clash})
	require.Error(t, err, "duplicate match numbers are rejected")

	matches, err := f.Store.GetMatches(ctx, store.MatchFilter{TournamentID: f.Tournament.ID})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGetMatchesFilter(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, false)
	ctx := context.Background()
	s := f.SeedTwoGroups()
	pending := f.ScheduleGroupMatch(s.A, s.A3, s.A1)

	all, err := f.Store.GetMatches(ctx, store.MatchFilter{TournamentID: f.Tournament.ID})
	require.NoError(t, err)
	require.Len(t, all, 7)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].MatchNumber, all[i].MatchNumber)
	}

	groupA, err := f.Store.GetMatches(ctx, store.MatchFilter{
		TournamentID: f.Tournament.ID,
		GroupID:      &s.A.ID,
		Phases:       []bracket.Phase{bracket.PhaseGroups},
		Statuses:     []bracket.MatchStatus{bracket.MatchFinished},
	})
	require.NoError(t, err)
	assert.Len(t, groupA, 3)

	open, err := f.Store.GetMatches(ctx, store.MatchFilter{
		TournamentID: f.Tournament.ID,
		Statuses:     []bracket.MatchStatus{bracket.MatchPending, bracket.MatchInProgress},
	})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)

	playoffs, err := f.Store.GetMatches(ctx, store.MatchFilter{
		TournamentID: f.Tournament.ID,
		Phases:       bracket.PlayoffPhases(),
	})
	require.NoError(t, err)
	assert.Empty(t, playoffs)
}

func TestDeleteMatchesAndMaxNumber(t *testing.T) {
	db := testutil.SetupDB(t)
	f := testutil.NewFixture(t, db, true)
	ctx := context.Background()
	f.SeedTwoGroups()

	maxNumber, err := f.Store.MaxMatchNumber(ctx, f.Tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, maxNumber)

	semi, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Semifinal1, 7, time.Now().UTC())
	require.NoError(t, err)
	final, err := bracket.NewPlayoffMatch(f.Tournament.ID, bracket.Final, 8, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.Store.InsertMatches(ctx, []bracket.Match{semi, final}))

	deleted, err := f.Store.DeleteMatches(ctx, f.Tournament.ID, bracket.BracketPhases())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := f.Store.GetMatches(ctx, store.MatchFilter{TournamentID: f.Tournament.ID})
	require.NoError(t, err)
	assert.Len(t, remaining, 6, "group matches survive")

	deleted, err = f.Store.DeleteMatches(ctx, f.Tournament.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	empty, err := f.Store.MaxMatchNumber(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty)
}
