package service

import (
	"context"
	"errors"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/google/uuid"
)

// Repository is the data access the engine needs. *store.TournamentStore implements it.
type Repository interface {
	GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id uuid.UUID, status bracket.TournamentStatus) error
	GetGroups(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Group, error)
	GetTeams(ctx context.Context, filter store.TeamFilter) ([]bracket.Team, error)

	GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error)
	GetMatches(ctx context.Context, filter store.MatchFilter) ([]bracket.Match, error)
	InsertMatches(ctx context.Context, matches []bracket.Match) error
	UpdateMatch(ctx context.Context, match *bracket.Match) error
	DeleteMatches(ctx context.Context, tournamentID uuid.UUID, phases []bracket.Phase) (int64, error)
	MaxMatchNumber(ctx context.Context, tournamentID uuid.UUID) (int, error)
}

var _ Repository = (*store.TournamentStore)(nil)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
