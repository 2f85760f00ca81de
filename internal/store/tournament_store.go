package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("record not found")

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	insertTournamentQuery = `INSERT INTO tournaments (id, name, tournament_status, teams_advance_per_group, third_place_match, created_at)
		VALUES (:id, :name, :tournament_status, :teams_advance_per_group, :third_place_match, :created_at)`
	insertGroupsQuery = `INSERT INTO "groups" (id, tournament_id, name, order_index)
		VALUES (:id, :tournament_id, :name, :order_index)`
	insertTeamsQuery = `INSERT INTO teams (id, tournament_id, group_id, name, status, created_at)
		VALUES (:id, :tournament_id, :group_id, :name, :status, :created_at)`
	insertMatchesQuery = `INSERT INTO matches (id, tournament_id, group_id, phase, round, match_number,
			team_a_id, team_b_id, team_a_score, team_b_score, fouls_a, fouls_b, current_period, elapsed_seconds,
			winner_id, status, winner_next_match_id, winner_next_slot, loser_next_match_id, loser_next_slot,
			created_at, finished_at)
		VALUES (:id, :tournament_id, :group_id, :phase, :round, :match_number,
			:team_a_id, :team_b_id, :team_a_score, :team_b_score, :fouls_a, :fouls_b, :current_period, :elapsed_seconds,
			:winner_id, :status, :winner_next_match_id, :winner_next_slot, :loser_next_match_id, :loser_next_slot,
			:created_at, :finished_at)`
	updateMatchQuery = `UPDATE matches SET
			team_a_id = :team_a_id,
			team_b_id = :team_b_id,
			team_a_score = :team_a_score,
			team_b_score = :team_b_score,
			fouls_a = :fouls_a,
			fouls_b = :fouls_b,
			current_period = :current_period,
			elapsed_seconds = :elapsed_seconds,
			winner_id = :winner_id,
			status = :status,
			finished_at = :finished_at
		WHERE id = :id`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tournament *bracket.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, insertTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) CreateGroups(ctx context.Context, groups []bracket.Group) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx, insertGroupsQuery, groups)
	return err
}

func (s *TournamentStore) CreateTeams(ctx context.Context, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := s.db.NamedExecContext(ctx, insertTeamsQuery, teams)
	return err
}

// InsertMatches writes the whole batch in one transaction.
func (s *TournamentStore) InsertMatches(ctx context.Context, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, insertMatchesQuery, matches); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, s.db.Rebind("SELECT * FROM tournaments WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) UpdateTournamentStatus(ctx context.Context, id uuid.UUID, status bracket.TournamentStatus) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE tournaments SET tournament_status = ? WHERE id = ?"), status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotFound)
}

func (s *TournamentStore) GetGroups(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Group, error) {
	var groups []bracket.Group
	err := s.db.SelectContext(ctx, &groups, s.db.Rebind(`SELECT * FROM "groups" WHERE tournament_id = ? ORDER BY order_index ASC`), tournamentID)
	return groups, err
}

type TeamFilter struct {
	TournamentID uuid.UUID
	GroupID      *uuid.UUID
	Status       *bracket.TeamStatus
}

// GetTeams returns teams in creation order, which is the order ties are left in.
func (s *TournamentStore) GetTeams(ctx context.Context, filter TeamFilter) ([]bracket.Team, error) {
	clauses := []string{"tournament_id = ?"}
	args := []any{filter.TournamentID}
	if filter.GroupID != nil {
		clauses = append(clauses, "group_id = ?")
		args = append(args, *filter.GroupID)
	}
	if filter.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*filter.Status))
	}

	query := "SELECT * FROM teams WHERE " + strings.Join(clauses, " AND ") + " ORDER BY created_at ASC, name ASC"

	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, s.db.Rebind(query), args...)
	return teams, err
}

type MatchFilter struct {
	TournamentID uuid.UUID
	GroupID      *uuid.UUID
	Phases       []bracket.Phase
	Statuses     []bracket.MatchStatus
}

func (f MatchFilter) where() (string, []any, error) {
	clauses := []string{"tournament_id = ?"}
	args := []any{f.TournamentID}
	if f.GroupID != nil {
		clauses = append(clauses, "group_id = ?")
		args = append(args, *f.GroupID)
	}
	if len(f.Phases) > 0 {
		phases := make([]string, len(f.Phases))
		for i, p := range f.Phases {
			phases[i] = string(p)
		}
		clauses = append(clauses, "phase IN (?)")
		args = append(args, phases)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		clauses = append(clauses, "status IN (?)")
		args = append(args, statuses)
	}
	return sqlx.In(" WHERE "+strings.Join(clauses, " AND "), args...)
}

func (s *TournamentStore) GetMatches(ctx context.Context, filter MatchFilter) ([]bracket.Match, error) {
	where, args, err := filter.where()
	if err != nil {
		return nil, fmt.Errorf("failed to build match filter: %w", err)
	}

	var matches []bracket.Match
	err = s.db.SelectContext(ctx, &matches, s.db.Rebind("SELECT * FROM matches"+where+" ORDER BY match_number ASC"), args...)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, s.db.Rebind("SELECT * FROM matches WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) UpdateMatch(ctx context.Context, match *bracket.Match) error {
	result, err := s.db.NamedExecContext(ctx, updateMatchQuery, match)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrNotFound)
}

// DeleteMatches removes every match of the tournament in one of phases and returns how many went.
func (s *TournamentStore) DeleteMatches(ctx context.Context, tournamentID uuid.UUID, phases []bracket.Phase) (int64, error) {
	if len(phases) == 0 {
		return 0, nil
	}
	where, args, err := MatchFilter{TournamentID: tournamentID, Phases: phases}.where()
	if err != nil {
		return 0, fmt.Errorf("failed to build match filter: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM matches"+where), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// MaxMatchNumber returns the highest match number used by the tournament, or 0.
func (s *TournamentStore) MaxMatchNumber(ctx context.Context, tournamentID uuid.UUID) (int, error) {
	var maxNumber sql.NullInt64
	err := s.db.GetContext(ctx, &maxNumber, s.db.Rebind("SELECT MAX(match_number) FROM matches WHERE tournament_id = ?"), tournamentID)
	if err != nil {
		return 0, err
	}
	return int(maxNumber.Int64), nil
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}
