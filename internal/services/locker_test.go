package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxLockerAcquireRelease(t *testing.T) {
	l := newTxLocker()

	require.NoError(t, l.acquire("payme:abc", time.Second))
	l.release("payme:abc")
	require.NoError(t, l.acquire("payme:abc", time.Second))
	l.release("payme:abc")

	assert.Empty(t, l.entries, "released entries must be reclaimed")
}

func TestTxLockerTimeout(t *testing.T) {
	l := newTxLocker()

	require.NoError(t, l.acquire("payme:abc", time.Second))

	err := l.acquire("payme:abc", 20*time.Millisecond)
	assert.ErrorIs(t, err, errLockTimeout)

	l.release("payme:abc")
	assert.Empty(t, l.entries)
}

func TestTxLockerIndependentKeys(t *testing.T) {
	l := newTxLocker()

	require.NoError(t, l.acquire("payme:abc", time.Second))
	require.NoError(t, l.acquire("payme:def", 20*time.Millisecond),
		"acquiring a different key must not block")

	l.release("payme:abc")
	l.release("payme:def")
}

func TestTxLockerSerializes(t *testing.T) {
	l := newTxLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.acquire("click:1", 5*time.Second))
			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			l.release("click:1")
		}()
	}

	wg.Wait()
	assert.Equal(t, 1, maxSeen, "at most one goroutine may hold the lock")
	assert.Empty(t, l.entries)
}
