package bidding

import (
	"sync"
	"time"
)

const lockIdleEviction = 10 * time.Minute

// lotLocks serializes bid placement per lot. Two concurrent bids on the
// same lot must not both validate against the same stale price; bids on
// different lots proceed in parallel. Idle entries are evicted in the
// background so the map does not grow with every lot ever bid on.
type lotLocks struct {
	mu    sync.Mutex
	locks map[string]*lotLock
}

type lotLock struct {
	sync.Mutex
	lastSeen time.Time
}

func newLotLocks() *lotLocks {
	l := &lotLocks{locks: make(map[string]*lotLock)}
	go l.cleanup()
	return l
}

func (l *lotLocks) get(lotID string) *lotLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, exists := l.locks[lotID]
	if !exists {
		lock = &lotLock{}
		l.locks[lotID] = lock
	}
	lock.lastSeen = time.Now()
	return lock
}

func (l *lotLocks) cleanup() {
	for {
		time.Sleep(time.Minute)
		l.evictIdle(lockIdleEviction)
	}
}

// evictIdle drops locks not fetched within the idle window. TryLock keeps
// a lock that is still held out of the eviction.
func (l *lotLocks) evictIdle(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for lotID, lock := range l.locks {
		if time.Since(lock.lastSeen) < idle {
			continue
		}
		if lock.TryLock() {
			lock.Unlock()
			delete(l.locks, lotID)
		}
	}
}
