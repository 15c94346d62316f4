package services

import (
	"fmt"
	"sync"
)

// KeyedMutex serializes operations that share a logical identity, such as all
// mutations of one (student, course) enrollment. Locks are created on demand
// and released when the last holder unlocks.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates a new keyed mutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*keyedLock),
	}
}

// Lock acquires the lock for the given key and returns the unlock function
func (km *KeyedMutex) Lock(key string) func() {
	km.mu.Lock()
	l, ok := km.locks[key]
	if !ok {
		l = &keyedLock{}
		km.locks[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.locks, key)
		}
		km.mu.Unlock()
	}
}

// enrollmentKey is the lock key for all mutations of one enrollment
func enrollmentKey(studentID, courseID int) string {
	return fmt.Sprintf("enrollment:%d:%d", studentID, courseID)
}

// attendanceKey is the lock key for all mutations of one attendance record
func attendanceKey(eventID, studentID int) string {
	return fmt.Sprintf("attendance:%d:%d", eventID, studentID)
}
