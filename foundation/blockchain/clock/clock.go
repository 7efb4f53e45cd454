// Package clock provides the block number sequence every ledger mutation is
// indexed against.
package clock

import (
	"fmt"
	"sync"
)

// Block is a block number clock that never moves backwards.
type Block struct {
	mu      sync.RWMutex
	current uint64
}

// New constructs a clock starting at the specified block number.
func New(start uint64) *Block {
	return &Block{current: start}
}

// Current returns the block number the next mutation is applied at.
func (b *Block) Current() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.current
}

// Advance moves the clock to the next block number and returns it.
func (b *Block) Advance() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	return b.current
}

// Restore moves the clock forward to the specified block number. A number
// behind the current one is rejected.
func (b *Block) Restore(number uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if number < b.current {
		return fmt.Errorf("clock cannot move backwards: current %d, restore %d", b.current, number)
	}

	b.current = number
	return nil
}
