package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TeamStatus string

const (
	TeamPending  TeamStatus = "pending"
	TeamApproved TeamStatus = "approved"
	TeamRejected TeamStatus = "rejected"
)

type Team struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id"`
	GroupID      *uuid.UUID `db:"group_id" json:"group_id"`
	Name         string     `db:"name" json:"name"`
	Status       TeamStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Standing is one row of a group ranking table.
type Standing struct {
	TeamID           uuid.UUID `json:"team_id"`
	TeamName         string    `json:"team_name"`
	Played           int       `json:"played"`
	Won              int       `json:"won"`
	Lost             int       `json:"lost"`
	PointsFor        int       `json:"points_for"`
	PointsAgainst    int       `json:"points_against"`
	PointDiff        int       `json:"point_diff"`
	TournamentPoints int       `json:"tournament_points"`
	TotalFouls       int       `json:"total_fouls"`
	WinPct           float64   `json:"win_pct"`
	// Streak is positive for consecutive wins and negative for consecutive losses.
	Streak int `json:"streak"`
}

// RanksAbove reports whether s sorts before o: tournament points, then point
// difference, then points scored, all descending.
func (s Standing) RanksAbove(o Standing) bool {
	if s.TournamentPoints != o.TournamentPoints {
		return s.TournamentPoints > o.TournamentPoints
	}
	if s.PointDiff != o.PointDiff {
		return s.PointDiff > o.PointDiff
	}
	return s.PointsFor > o.PointsFor
}
