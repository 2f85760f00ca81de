package service

import (
	"errors"
	"fmt"
)

var (
	// Preconditions. All of these are returned before anything is written.
	ErrPhaseIncomplete     = errors.New("group phase has unfinished matches")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrInsufficientGroups  = errors.New("at least two groups are required for playoffs")
	ErrNotEnoughQualifiers = errors.New("group does not have enough ranked teams to qualify")
	ErrInvalidPhase        = errors.New("tournament is not in a phase that can be resolved")

	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchAlreadyFinished = errors.New("match already has a recorded result")
	ErrMatchNotReady        = errors.New("match has an undetermined team slot")
	ErrTiedResult           = errors.New("match result must have a winner")
	ErrInvalidResult        = errors.New("match result has negative values")
	ErrSlotConflict         = errors.New("bracket slot already holds a different team")
)

// StoreError wraps a failure returned by the repository.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

// errorKind labels an engine error for metrics.
func errorKind(err error) string {
	var se *StoreError
	switch {
	case errors.Is(err, ErrPhaseIncomplete):
		return "phase_incomplete"
	case errors.Is(err, ErrTournamentNotFound):
		return "tournament_not_found"
	case errors.Is(err, ErrInsufficientGroups):
		return "insufficient_groups"
	case errors.Is(err, ErrNotEnoughQualifiers):
		return "not_enough_qualifiers"
	case errors.Is(err, ErrInvalidPhase):
		return "invalid_phase"
	case errors.Is(err, ErrMatchNotFound):
		return "match_not_found"
	case errors.Is(err, ErrMatchAlreadyFinished):
		return "match_already_finished"
	case errors.Is(err, ErrMatchNotReady):
		return "match_not_ready"
	case errors.Is(err, ErrTiedResult), errors.Is(err, ErrInvalidResult):
		return "invalid_result"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.As(err, &se):
		return "store"
	}
	return "other"
}
