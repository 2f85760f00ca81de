package bracket

import (
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/blacktop-engine/internal/utils"
	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchFinished   MatchStatus = "finished"
)

type Phase string

const (
	PhaseGroups        Phase = "groups"
	PhaseQuarterfinals Phase = "quarterfinals"
	PhaseSemifinals    Phase = "semifinals"
	PhaseThirdPlace    Phase = "third_place"
	PhaseFinal         Phase = "final"
)

// PlayoffPhases lists playoff phases in resolution order. Both the final and the
// third place match only depend on the semifinals, so their relative order is free.
func PlayoffPhases() []Phase {
	return []Phase{PhaseQuarterfinals, PhaseSemifinals, PhaseThirdPlace, PhaseFinal}
}

// BracketPhases are the phases replaced wholesale when a bracket is regenerated.
func BracketPhases() []Phase {
	return []Phase{PhaseSemifinals, PhaseThirdPlace, PhaseFinal}
}

// Order is the position of the phase in a tournament's timeline.
func (p Phase) Order() int {
	switch p {
	case PhaseGroups:
		return 0
	case PhaseQuarterfinals:
		return 1
	case PhaseSemifinals:
		return 2
	case PhaseThirdPlace:
		return 3
	case PhaseFinal:
		return 4
	}
	return -1
}

func (p Phase) IsPlayoff() bool {
	return p.Order() > 0
}

// Team slots inside a match. Slot 1 is team A, slot 2 is team B.
const (
	SlotA = 1
	SlotB = 2
)

type Match struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	TournamentID uuid.UUID  `db:"tournament_id" json:"tournament_id"`
	GroupID      *uuid.UUID `db:"group_id" json:"group_id"`

	Phase       Phase  `db:"phase" json:"phase"`
	Round       string `db:"round" json:"round"`
	MatchNumber int    `db:"match_number" json:"match_number"`

	// A nil team means the slot is still to be decided.
	TeamAID *uuid.UUID `db:"team_a_id" json:"team_a_id"`
	TeamBID *uuid.UUID `db:"team_b_id" json:"team_b_id"`

	TeamAScore *int `db:"team_a_score" json:"team_a_score"`
	TeamBScore *int `db:"team_b_score" json:"team_b_score"`
	FoulsA     *int `db:"fouls_a" json:"fouls_a"`
	FoulsB     *int `db:"fouls_b" json:"fouls_b"`

	CurrentPeriod  int `db:"current_period" json:"current_period"`
	ElapsedSeconds int `db:"elapsed_seconds" json:"elapsed_seconds"`

	WinnerID *uuid.UUID  `db:"winner_id" json:"winner_id"`
	Status   MatchStatus `db:"status" json:"status"`

	// Where the winner and loser of this match are sent once it finishes
	WinnerNextMatchID *uuid.UUID `db:"winner_next_match_id" json:"winner_next_match_id,omitempty"`
	WinnerNextSlot    *int       `db:"winner_next_slot" json:"winner_next_slot,omitempty"`
	LoserNextMatchID  *uuid.UUID `db:"loser_next_match_id" json:"loser_next_match_id,omitempty"`
	LoserNextSlot     *int       `db:"loser_next_slot" json:"loser_next_slot,omitempty"`

	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	FinishedAt *time.Time `db:"finished_at" json:"finished_at"`
}

// HasTeams reports whether both slots are filled.
func (m *Match) HasTeams() bool {
	return m.TeamAID != nil && m.TeamBID != nil
}

func (m *Match) Team(slot int) *uuid.UUID {
	switch slot {
	case SlotA:
		return m.TeamAID
	case SlotB:
		return m.TeamBID
	}
	return nil
}

func (m *Match) SetTeam(slot int, teamID uuid.UUID) {
	id := teamID
	switch slot {
	case SlotA:
		m.TeamAID = &id
	case SlotB:
		m.TeamBID = &id
	}
}

func (m *Match) IsWinner(slot int) bool {
	team := m.Team(slot)
	return m.Status == MatchFinished && m.WinnerID != nil && team != nil && *team == *m.WinnerID
}

func (m *Match) IsLoser(slot int) bool {
	team := m.Team(slot)
	return m.Status == MatchFinished && m.WinnerID != nil && team != nil && *team != *m.WinnerID
}

// Loser returns the team that did not win a finished match.
func (m *Match) Loser() *uuid.UUID {
	switch {
	case m.IsLoser(SlotA):
		return m.TeamAID
	case m.IsLoser(SlotB):
		return m.TeamBID
	}
	return nil
}

var (
	ErrUnknownPhase = errors.New("unknown match phase")
	ErrInvalidRound = errors.New("round does not match phase")
	ErrInvalidSlot  = errors.New("invalid bracket slot")
)

// Validate checks the phase/round combination and the finished-match invariant.
func (m *Match) Validate() error {
	if m.Phase.Order() < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, m.Phase)
	}
	if m.Round == "" {
		return fmt.Errorf("%w: round is required", ErrInvalidRound)
	}
	if m.Phase == PhaseGroups && m.GroupID == nil {
		return fmt.Errorf("%w: group match without group", ErrUnknownPhase)
	}
	if slot, ok := slotByRound[m.Round]; ok && slotTable[slot].phase != m.Phase {
		return fmt.Errorf("%w: %q is not a %s round", ErrInvalidRound, m.Round, m.Phase)
	}
	if (m.Phase == PhaseSemifinals || m.Phase == PhaseFinal || m.Phase == PhaseThirdPlace) && !isBracketRound(m.Phase, m.Round) {
		return fmt.Errorf("%w: %q is not a %s round", ErrInvalidRound, m.Round, m.Phase)
	}
	if m.Status == MatchFinished {
		if m.WinnerID == nil || m.TeamAScore == nil || m.TeamBScore == nil || m.FinishedAt == nil {
			return fmt.Errorf("finished match %s is missing its result", m.ID)
		}
	}
	return nil
}

// BracketSlot is a position in the two-group playoff bracket.
type BracketSlot int

const (
	Semifinal1 BracketSlot = iota + 1
	Semifinal2
	Final
	ThirdPlace
)

var slotTable = map[BracketSlot]struct {
	phase Phase
	round string
}{
	Semifinal1: {PhaseSemifinals, "Semifinal 1"},
	Semifinal2: {PhaseSemifinals, "Semifinal 2"},
	Final:      {PhaseFinal, "Final"},
	ThirdPlace: {PhaseThirdPlace, "Tercer Puesto"},
}

var slotByRound = map[string]BracketSlot{
	"Semifinal 1":   Semifinal1,
	"Semifinal 2":   Semifinal2,
	"Final":         Final,
	"Tercer Puesto": ThirdPlace,
}

func isBracketRound(phase Phase, round string) bool {
	slot, ok := slotByRound[round]
	return ok && slotTable[slot].phase == phase
}

func (s BracketSlot) Phase() Phase { return slotTable[s].phase }
func (s BracketSlot) Round() string { return slotTable[s].round }

// NewPlayoffMatch builds an empty pending match for a bracket slot with zeroed counters.
func NewPlayoffMatch(tournamentID uuid.UUID, slot BracketSlot, number int, createdAt time.Time) (Match, error) {
	def, ok := slotTable[slot]
	if !ok {
		return Match{}, fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	m := Match{
		ID:             uuid.New(),
		TournamentID:   tournamentID,
		Phase:          def.phase,
		Round:          def.round,
		MatchNumber:    number,
		FoulsA:         utils.Ptr(0),
		FoulsB:         utils.Ptr(0),
		CurrentPeriod:  1,
		ElapsedSeconds: 0,
		Status:         MatchPending,
		CreatedAt:      createdAt,
	}
	return m, m.Validate()
}

// FeedWinner links m so that its winner fills slot of next.
func (m *Match) FeedWinner(next *Match, slot int) {
	id, s := next.ID, slot
	m.WinnerNextMatchID = &id
	m.WinnerNextSlot = &s
}

// FeedLoser links m so that its loser fills slot of next.
func (m *Match) FeedLoser(next *Match, slot int) {
	id, s := next.ID, slot
	m.LoserNextMatchID = &id
	m.LoserNextSlot = &s
}
