package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/blacktop-engine/internal/bracket"
	"github.com/AdamBeresnev/blacktop-engine/internal/metrics"
	"github.com/AdamBeresnev/blacktop-engine/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// faultyRepo fails the named repository call with err and passes everything else through.
type faultyRepo struct {
	Repository
	failOn string
	err    error
}

func (r *faultyRepo) InsertMatches(ctx context.Context, matches []bracket.Match) error {
	if r.failOn == "InsertMatches" {
		return r.err
	}
	return r.Repository.InsertMatches(ctx, matches)
}

func (r *faultyRepo) UpdateMatch(ctx context.Context, match *bracket.Match) error {
	if r.failOn == "UpdateMatch" {
		return r.err
	}
	return r.Repository.UpdateMatch(ctx, match)
}

func (r *faultyRepo) DeleteMatches(ctx context.Context, tournamentID uuid.UUID, phases []bracket.Phase) (int64, error) {
	if r.failOn == "DeleteMatches" {
		return 0, r.err
	}
	return r.Repository.DeleteMatches(ctx, tournamentID, phases)
}

func (r *faultyRepo) GetMatches(ctx context.Context, filter store.MatchFilter) ([]bracket.Match, error) {
	if r.failOn == "GetMatches" {
		return nil, r.err
	}
	return r.Repository.GetMatches(ctx, filter)
}

// sequence returns an IntN replacement that hands out values in order, modulo n.
func sequence(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[i%len(values)]
		i++
		return v % n
	}
}

// counterValue reads a counter from the manager's registry. labels are name/value pairs.
func counterValue(t *testing.T, m *metrics.Manager, name string, labels ...string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	want := make(map[string]string, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		want[labels[i]] = labels[i+1]
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
	next:
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if v, ok := want[pair.GetName()]; ok && v != pair.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func countMatches(t *testing.T, repo Repository, tournamentID uuid.UUID) int {
	t.Helper()
	matches, err := repo.GetMatches(context.Background(), store.MatchFilter{TournamentID: tournamentID})
	require.NoError(t, err)
	return len(matches)
}

func teamSet(ids ...*uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if id != nil {
			set[*id] = true
		}
	}
	return set
}
