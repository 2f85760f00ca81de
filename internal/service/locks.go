package service

import (
	"sync"

	"github.com/google/uuid"
)

// TournamentLocks serializes bracket mutations per tournament within one process.
// Different tournaments never block each other.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*tournamentLock
}

type tournamentLock struct {
	mu      sync.Mutex
	waiters int
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[uuid.UUID]*tournamentLock)}
}

// Lock blocks until the tournament is free and returns the matching unlock func.
func (l *TournamentLocks) Lock(tournamentID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[tournamentID]
	if !ok {
		lock = &tournamentLock{}
		l.locks[tournamentID] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		l.mu.Lock()
		lock.waiters--
		if lock.waiters == 0 {
			delete(l.locks, tournamentID)
		}
		l.mu.Unlock()
	}
}

// held reports how many callers hold or wait for the tournament's lock.
func (l *TournamentLocks) held(tournamentID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lock, ok := l.locks[tournamentID]; ok {
		return lock.waiters
	}
	return 0
}
