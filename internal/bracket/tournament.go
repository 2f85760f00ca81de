package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentGroups    TournamentStatus = "groups"
	TournamentPlayoffs  TournamentStatus = "playoffs"
	TournamentCompleted TournamentStatus = "completed"
)

// DefaultTeamsAdvancePerGroup is used when a tournament has no positive value configured.
const DefaultTeamsAdvancePerGroup = 2

type Tournament struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	Name                 string           `db:"name" json:"name"`
	Status               TournamentStatus `db:"tournament_status" json:"tournament_status"`
	TeamsAdvancePerGroup int              `db:"teams_advance_per_group" json:"teams_advance_per_group"`
	ThirdPlaceMatch      bool             `db:"third_place_match" json:"third_place_match"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
}

// AdvancePerGroup returns how many teams qualify from each group.
func (t *Tournament) AdvancePerGroup() int {
	if t.TeamsAdvancePerGroup <= 0 {
		return DefaultTeamsAdvancePerGroup
	}
	return t.TeamsAdvancePerGroup
}

// CurrentPhases returns the match phases that are open for resolution in the
// tournament's current status. ok is false when nothing can be resolved.
func (t *Tournament) CurrentPhases() (phases []Phase, ok bool) {
	switch t.Status {
	case TournamentGroups:
		return []Phase{PhaseGroups}, true
	case TournamentPlayoffs:
		return PlayoffPhases(), true
	default:
		return nil, false
	}
}

type Group struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Name         string    `db:"name" json:"name"`
	OrderIndex   int       `db:"order_index" json:"order_index"`
}

// Label is the display name derived from the order index: 0 is "Group A", 1 is "Group B".
func (g *Group) Label() string {
	if g.OrderIndex < 0 || g.OrderIndex > 25 {
		return g.Name
	}
	return "Group " + string(rune('A'+g.OrderIndex))
}
