// Package testutil seeds migrated in-memory databases for tests.
package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/db"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// SetupDB opens an in-memory SQLite database with every migration applied.
func SetupDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Open(db.DriverSQLite, ":memory:", 5*time.Second)
	require.NoError(t, err, "Failed to connect to in-memory DB")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database, migrationsURL()), "Failed to apply migrations")
	return database
}

func migrationsURL() string {
	_, file, _, _ := runtime.Caller(0)
	return "file://" + filepath.ToSlash(filepath.Join(filepath.Dir(file), "..", "..", "migrations"))
}

// Fixture builds one tournament row by row. Every created record gets a timestamp
// one second after the previous one so creation order is deterministic.
type Fixture struct {
	t          *testing.T
	Store      *store.TournamentStore
	Tournament bracket.Tournament
	Groups     []bracket.Group
	clock      time.Time
}

func NewFixture(t *testing.T, database *sqlx.DB, thirdPlace bool) *Fixture {
	t.Helper()

	f := &Fixture{
		t:     t,
		Store: store.NewTournamentStore(database),
		clock: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	f.Tournament = bracket.Tournament{
		ID:                   uuid.New(),
		Name:                 "Blacktop Summer",
		Status:               bracket.TournamentGroups,
		TeamsAdvancePerGroup: 2,
		ThirdPlaceMatch:      thirdPlace,
		CreatedAt:            f.tick(),
	}
	require.NoError(t, f.Store.CreateTournament(context.Background(), &f.Tournament))
	return f
}

func (f *Fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *Fixture) AddGroup(name string) bracket.Group {
	f.t.Helper()
	g := bracket.Group{
		ID:           uuid.New(),
		TournamentID: f.Tournament.ID,
		Name:         name,
		OrderIndex:   len(f.Groups),
	}
	require.NoError(f.t, f.Store.CreateGroups(context.Background(), []bracket.Group{g}))
	f.Groups = append(f.Groups, g)
	return g
}

func (f *Fixture) AddTeam(group bracket.Group, name string, status bracket.TeamStatus) bracket.Team {
	f.t.Helper()
	team := bracket.Team{
		ID:           uuid.New(),
		TournamentID: f.Tournament.ID,
		GroupID:      utils.Ptr(group.ID),
		Name:         name,
		Status:       status,
		CreatedAt:    f.tick(),
	}
	require.NoError(f.t, f.Store.CreateTeams(context.Background(), []bracket.Team{team}))
	return team
}

// AddTeams adds approved teams to the group in the given order.
func (f *Fixture) AddTeams(group bracket.Group, names ...string) []bracket.Team {
	f.t.Helper()
	teams := make([]bracket.Team, len(names))
	for i, name := range names {
		teams[i] = f.AddTeam(group, name, bracket.TeamApproved)
	}
	return teams
}

// PlayGroupMatch stores a finished group match. Equal scores leave the winner empty.
func (f *Fixture) PlayGroupMatch(group bracket.Group, a, b bracket.Team, scoreA, scoreB int) bracket.Match {
	f.t.Helper()
	m := f.groupMatch(group, a, b)
	m.TeamAScore = utils.Ptr(scoreA)
	m.TeamBScore = utils.Ptr(scoreB)
	m.FoulsA = utils.Ptr(1)
	m.FoulsB = utils.Ptr(2)
	m.Status = bracket.MatchFinished
	m.FinishedAt = utils.Ptr(m.CreatedAt.Add(40 * time.Minute))
	switch {
	case scoreA > scoreB:
		m.WinnerID = utils.Ptr(a.ID)
	case scoreB > scoreA:
		m.WinnerID = utils.Ptr(b.ID)
	}
	require.NoError(f.t, f.Store.InsertMatches(context.Background(), []bracket.Match{m}))
	return m
}

// ScheduleGroupMatch stores a group match that has not been played.
func (f *Fixture) ScheduleGroupMatch(group bracket.Group, a, b bracket.Team) bracket.Match {
	f.t.Helper()
	m := f.groupMatch(group, a, b)
	require.NoError(f.t, f.Store.InsertMatches(context.Background(), []bracket.Match{m}))
	return m
}

func (f *Fixture) groupMatch(group bracket.Group, a, b bracket.Team) bracket.Match {
	f.t.Helper()
	last, err := f.Store.MaxMatchNumber(context.Background(), f.Tournament.ID)
	require.NoError(f.t, err)

	return bracket.Match{
		ID:            uuid.New(),
		TournamentID:  f.Tournament.ID,
		GroupID:       utils.Ptr(group.ID),
		Phase:         bracket.PhaseGroups,
		Round:         "Jornada 1",
		MatchNumber:   last + 1,
		TeamAID:       utils.Ptr(a.ID),
		TeamBID:       utils.Ptr(b.ID),
		FoulsA:        utils.Ptr(0),
		FoulsB:        utils.Ptr(0),
		CurrentPeriod: 1,
		Status:        bracket.MatchPending,
		CreatedAt:     f.tick(),
	}
}

// TwoGroups is a finished two-group stage of three approved teams per group.
// Teams finish in name order: X1 2-0, X2 1-1, X3 0-2.
type TwoGroups struct {
	A, B       bracket.Group
	A1, A2, A3 bracket.Team
	B1, B2, B3 bracket.Team
}

func (f *Fixture) SeedTwoGroups() TwoGroups {
	f.t.Helper()
	var s TwoGroups
	s.A = f.AddGroup("Zona Norte")
	s.B = f.AddGroup("Zona Sur")

	a := f.AddTeams(s.A, "A1", "A2", "A3")
	b := f.AddTeams(s.B, "B1", "B2", "B3")
	s.A1, s.A2, s.A3 = a[0], a[1], a[2]
	s.B1, s.B2, s.B3 = b[0], b[1], b[2]

	f.PlayGroupMatch(s.A, s.A1, s.A2, 21, 15)
	f.PlayGroupMatch(s.A, s.A1, s.A3, 21, 10)
	f.PlayGroupMatch(s.A, s.A2, s.A3, 21, 18)
	f.PlayGroupMatch(s.B, s.B1, s.B2, 21, 17)
	f.PlayGroupMatch(s.B, s.B1, s.B3, 21, 12)
	f.PlayGroupMatch(s.B, s.B2, s.B3, 21, 19)
	return s
}
