package bidding

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestLotLocks_SameLotSameLock(t *testing.T) {
	locks := &lotLocks{locks: make(map[string]*lotLock)}

	first := locks.get("lot-1")
	second := locks.get("lot-1")
	other := locks.get("lot-2")

	check.True(t, first == second)
	check.True(t, first != other)
}

func TestLotLocks_EvictsIdleEntries(t *testing.T) {
	locks := &lotLocks{locks: make(map[string]*lotLock)}
	locks.get("lot-idle")
	locks.get("lot-busy")

	locks.mu.Lock()
	locks.locks["lot-idle"].lastSeen = time.Now().Add(-time.Hour)
	locks.mu.Unlock()

	locks.evictIdle(lockIdleEviction)

	locks.mu.Lock()
	_, idleKept := locks.locks["lot-idle"]
	_, busyKept := locks.locks["lot-busy"]
	locks.mu.Unlock()

	check.False(t, idleKept)
	check.True(t, busyKept)
}

func TestLotLocks_NeverEvictsHeldLock(t *testing.T) {
	locks := &lotLocks{locks: make(map[string]*lotLock)}
	lock := locks.get("lot-1")
	lock.Lock()
	defer lock.Unlock()

	locks.mu.Lock()
	locks.locks["lot-1"].lastSeen = time.Now().Add(-time.Hour)
	locks.mu.Unlock()

	locks.evictIdle(lockIdleEviction)

	locks.mu.Lock()
	_, present := locks.locks["lot-1"]
	locks.mu.Unlock()
	check.True(t, present)
}
