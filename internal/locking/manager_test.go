package locking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	m := NewManager()

	require.NoError(t, m.Acquire("refresh"))
	assert.True(t, m.IsHeld("refresh"))

	// Second acquire fails while held
	assert.Error(t, m.Acquire("refresh"))

	// Independent names do not conflict
	require.NoError(t, m.Acquire("other"))

	m.Release("refresh")
	assert.False(t, m.IsHeld("refresh"))
	require.NoError(t, m.Acquire("refresh"))
}

func TestReleaseUnheldIsNoop(t *testing.T) {
	m := NewManager()
	m.Release("nothing")
	assert.False(t, m.IsHeld("nothing"))
}

func TestConcurrentAcquire_OnlyOneWins(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.Acquire("job") == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
