package chatreq

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestLocksMutualExclusion(t *testing.T) {
	locks := newRequestLocks()

	const goroutines = 50
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.lock("req-1")
			counter++
			locks.unlock("req-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines, counter)
}

func TestRequestLocksIndependentKeys(t *testing.T) {
	locks := newRequestLocks()

	locks.lock("req-a")

	// A different key must not be blocked by a held lock.
	done := make(chan struct{})
	go func() {
		locks.lock("req-b")
		locks.unlock("req-b")
		close(done)
	}()
	<-done

	locks.unlock("req-a")
}

func TestRequestLocksReleaseEntries(t *testing.T) {
	locks := newRequestLocks()

	locks.lock("req-1")
	locks.unlock("req-1")
	locks.lock("req-2")
	locks.unlock("req-2")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released locks must not accumulate")
}
