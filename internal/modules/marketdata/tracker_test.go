package marketdata

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_TrackNormalizesSymbols(t *testing.T) {
	tr := NewTracker()

	tr.Track("  aapl ")
	tr.Track("AAPL")

	assert.Equal(t, 1, tr.Count())
	assert.True(t, tr.IsTracked("aapl"))
	assert.True(t, tr.IsTracked("AAPL"))
}

func TestTracker_Untrack(t *testing.T) {
	tr := NewTracker()
	tr.Track("AAPL")
	tr.Track("MSFT")

	tr.Untrack("aapl")

	assert.False(t, tr.IsTracked("AAPL"))
	assert.True(t, tr.IsTracked("MSFT"))
	assert.Equal(t, 1, tr.Count())

	// Untracking an unknown symbol is a no-op
	tr.Untrack("GOOG")
	assert.Equal(t, 1, tr.Count())
}

func TestTracker_SnapshotSorted(t *testing.T) {
	tr := NewTracker()
	tr.Track("MSFT")
	tr.Track("AAPL")
	tr.Track("GOOG")

	assert.Equal(t, []string{"AAPL", "GOOG", "MSFT"}, tr.Snapshot())
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	tr := NewTracker()
	tr.Track("AAPL")

	snap := tr.Snapshot()
	snap[0] = "MUTATED"

	assert.True(t, tr.IsTracked("AAPL"))
	assert.Equal(t, []string{"AAPL"}, tr.Snapshot())
}

func TestTracker_ConcurrentTracking(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tr.Track(fmt.Sprintf("SYM%02d", n))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Count())
}
