// README: Refcounted per-key mutex. Guarantees at most one in-flight
// mutation per session id without blocking unrelated sessions.
package dialogue

import (
	"sync"

	"tlx/internal/types"
)

type keyMutex struct {
	mu    sync.Mutex
	locks map[types.ID]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[types.ID]*keyLock)}
}

// Lock acquires the mutex for id and returns its unlock function. The
// entry is dropped from the map once the last holder releases it.
func (k *keyMutex) Lock(id types.ID) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &keyLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
