// Package credentials holds the ordered API key pool a run draws from.
//
// A run starts at the first key and advances only when the upstream rejects
// the current key with an authorization or quota error. The index moves
// forward monotonically and never wraps: a key that failed once in a run is
// never retried in that run. Pools are per-run state; construct a fresh one
// for every run so concurrent runs (and tests) never share an index.
package credentials

import (
	"errors"
	"strings"
	"sync/atomic"
)

// ErrExhausted signals that every credential in the pool has failed with an
// authorization-class error. Terminal for the affected preset.
var ErrExhausted = errors.New("credential pool exhausted")

// Pool is an ordered credential list with a shared advancing cursor. Safe for
// concurrent use: per-preset fetches within one run share the pool so a key
// known bad to one fetch is skipped by all others.
type Pool struct {
	keys  []string
	index atomic.Int32
}

// NewPool builds a pool from the configured keys, dropping blank entries and
// preserving order.
func NewPool(keys []string) *Pool {
	cleaned := make([]string, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			cleaned = append(cleaned, key)
		}
	}
	return &Pool{keys: cleaned}
}

// Current returns the active credential and its position, or ErrExhausted
// when no untried credential remains.
func (p *Pool) Current() (string, int, error) {
	idx := int(p.index.Load())
	if idx >= len(p.keys) {
		return "", idx, ErrExhausted
	}
	return p.keys[idx], idx, nil
}

// Advance moves past the credential at fromIndex after an authorization
// failure. The compare-and-swap makes concurrent reports of the same bad
// credential advance the cursor once; reports about an already-skipped
// credential are ignored.
func (p *Pool) Advance(fromIndex int) {
	p.index.CompareAndSwap(int32(fromIndex), int32(fromIndex)+1)
}

// Size returns the number of usable credentials.
func (p *Pool) Size() int {
	return len(p.keys)
}
