package marketdata

import (
	"sort"
	"strings"
	"sync"
)

// Tracker is the registry of symbols the background refresh keeps fresh.
// Request handlers mutate it while the scheduler reads it, so all access
// goes through the internal lock; Snapshot hands the scheduler a copy it
// can iterate without holding anything.
type Tracker struct {
	mu      sync.RWMutex
	symbols map[string]struct{}
}

// NewTracker creates an empty symbol tracker
func NewTracker() *Tracker {
	return &Tracker{
		symbols: make(map[string]struct{}),
	}
}

// Track adds a symbol to the refresh set. Idempotent.
func (t *Tracker) Track(symbol string) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.symbols[symbol] = struct{}{}
}

// Untrack removes a symbol from the refresh set. Removing an absent
// symbol is a no-op.
func (t *Tracker) Untrack(symbol string) {
	symbol = normalizeSymbol(symbol)
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.symbols, symbol)
}

// IsTracked reports whether the symbol is currently tracked
func (t *Tracker) IsTracked(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.symbols[symbol]
	return ok
}

// Snapshot returns a sorted point-in-time copy of the tracked set
func (t *Tracker) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]string, 0, len(t.symbols))
	for s := range t.symbols {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of tracked symbols
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.symbols)
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
