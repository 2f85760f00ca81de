package service

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTournamentLocksSerialize(t *testing.T) {
	locks := NewTournamentLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(id)
			defer unlock()

			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Zero(t, locks.held(id), "idle tournaments are forgotten")
}

func TestTournamentLocksIndependent(t *testing.T) {
	locks := NewTournamentLocks()
	first, second := uuid.New(), uuid.New()

	unlockFirst := locks.Lock(first)
	defer unlockFirst()

	done := make(chan struct{})
	go func() {
		unlock := locks.Lock(second)
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another tournament blocked")
	}
	assert.Equal(t, 1, locks.held(first))
}
