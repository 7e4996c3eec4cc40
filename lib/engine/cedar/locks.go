package cedar

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Lock Table
// --------------------------------------------------------------------------

// lockEntry is one held resource. Locks are incremental: re-acquiring a held
// resource bumps the count, and every release decrements it.
type lockEntry struct {
	owner uuid.UUID
	count int
}

// lockTable is the environment-wide lock space shared by all sessions.
// Waiters block on a broadcast channel that is swapped out on every release.
type lockTable struct {
	mu       sync.Mutex
	entries  map[string]*lockEntry
	released chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{
		entries:  make(map[string]*lockEntry),
		released: make(chan struct{}),
	}
}

// lockKey builds the table key for a resource reference.
func lockKey(name string, subs [][]byte) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, s := range subs {
		sb.WriteByte(0)
		sb.Write(s)
	}
	return sb.String()
}

// acquire takes the resource for owner, waiting up to timeout. A negative
// timeout waits unboundedly. Returns false when the wait times out.
func (lt *lockTable) acquire(owner uuid.UUID, key string, timeout time.Duration) bool {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		lt.mu.Lock()
		e := lt.entries[key]
		switch {
		case e == nil:
			lt.entries[key] = &lockEntry{owner: owner, count: 1}
			lt.mu.Unlock()
			return true
		case e.owner == owner:
			e.count++
			lt.mu.Unlock()
			return true
		}
		wake := lt.released
		lt.mu.Unlock()

		if timeout < 0 {
			<-wake
			continue
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-wake:
			timer.Stop()
		case <-timer.C:
			return false
		}
	}
}

// release decrements the lock if owner holds it. Releasing a resource that is
// not held is a no-op, matching the engine's unlock semantics.
func (lt *lockTable) release(owner uuid.UUID, key string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	e := lt.entries[key]
	if e == nil || e.owner != owner {
		return
	}
	if e.count--; e.count <= 0 {
		delete(lt.entries, key)
		lt.wake()
	}
}

// releaseAll drops every lock owner holds (session close, UnlockAll).
func (lt *lockTable) releaseAll(owner uuid.UUID) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	dropped := false
	for key, e := range lt.entries {
		if e.owner == owner {
			delete(lt.entries, key)
			dropped = true
		}
	}
	if dropped {
		lt.wake()
	}
}

// wake signals all waiters. Callers must hold lt.mu.
func (lt *lockTable) wake() {
	close(lt.released)
	lt.released = make(chan struct{})
}
