package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	const workers = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			unlock := km.Lock(enrollmentKey(1, 2))
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock(enrollmentKey(1, 2))
	defer unlockA()

	// A different key must not block
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock(attendanceKey(3, 1))
		unlockB()
		close(done)
	}()

	<-done
}

func TestKeyedMutex_ReleasesUnusedLocks(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock(enrollmentKey(1, 2))
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.locks)
}
