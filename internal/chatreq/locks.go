package chatreq

import "sync"

// requestLocks serializes the accept-evaluate-materialize sequence per
// request id. Different request ids never contend.
type requestLocks struct {
	mu    sync.Mutex
	locks map[string]*requestLock
}

type requestLock struct {
	mu   sync.Mutex
	refs int
}

func newRequestLocks() *requestLocks {
	return &requestLocks{locks: make(map[string]*requestLock)}
}

func (l *requestLocks) lock(id string) {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &requestLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *requestLocks) unlock(id string) {
	l.mu.Lock()
	entry := l.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
