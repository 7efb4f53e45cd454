// Package checkpoint maintains ordered histories of (index, value) snapshots
// and answers point-in-time lookups over them.
package checkpoint

import (
	"errors"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
)

// Set of error variables for history maintenance and lookups.
var (
	ErrOutOfOrderWrite  = errors.New("checkpoint write is out of order")
	ErrFutureIndexQuery = errors.New("checkpoint query index is not yet in the past")
)

// Checkpoint is an immutable snapshot of a value at a sequence index.
type Checkpoint struct {
	Index uint64
	Value uint256.Int
}

// =============================================================================

// History is an append-only list of checkpoints strictly increasing by index.
// A History is not safe for concurrent use, the owner provides the locking.
type History struct {
	checkpoints []Checkpoint
}

// Len returns the number of checkpoints recorded.
func (h *History) Len() int {
	return len(h.checkpoints)
}

// Checkpoint returns the checkpoint recorded at the specified position.
func (h *History) Checkpoint(pos int) (Checkpoint, error) {
	if pos < 0 || pos >= len(h.checkpoints) {
		return Checkpoint{}, fmt.Errorf("position %d out of range, len %d", pos, len(h.checkpoints))
	}

	return h.checkpoints[pos], nil
}

// Checkpoints returns a copy of the full history.
func (h *History) Checkpoints() []Checkpoint {
	cpy := make([]Checkpoint, len(h.checkpoints))
	copy(cpy, h.checkpoints)
	return cpy
}

// Latest returns the most recent value or zero if nothing is recorded.
func (h *History) Latest() uint256.Int {
	if len(h.checkpoints) == 0 {
		return uint256.Int{}
	}

	return h.checkpoints[len(h.checkpoints)-1].Value
}

// LastIndex returns the index of the most recent checkpoint. The bool is
// false when the history is empty.
func (h *History) LastIndex() (uint64, bool) {
	if len(h.checkpoints) == 0 {
		return 0, false
	}

	return h.checkpoints[len(h.checkpoints)-1].Index, true
}

// CanPush reports whether a push at the specified index would be accepted.
func (h *History) CanPush(index uint64) error {
	last, exists := h.LastIndex()
	if exists && index < last {
		return fmt.Errorf("%w: index %d, last %d", ErrOutOfOrderWrite, index, last)
	}

	return nil
}

// Push records the value at the specified index. A push at the same index as
// the latest checkpoint replaces that checkpoint's value.
func (h *History) Push(index uint64, value uint256.Int) error {
	if err := h.CanPush(index); err != nil {
		return err
	}

	if last, exists := h.LastIndex(); exists && last == index {
		h.checkpoints[len(h.checkpoints)-1].Value = value
		return nil
	}

	h.checkpoints = append(h.checkpoints, Checkpoint{Index: index, Value: value})
	return nil
}

// Mark captures the position of a history so later pushes can be undone.
type Mark struct {
	len  int
	last Checkpoint
}

// Mark returns the current position of the history.
func (h *History) Mark() Mark {
	m := Mark{len: len(h.checkpoints)}
	if m.len > 0 {
		m.last = h.checkpoints[m.len-1]
	}
	return m
}

// Rewind undoes every push made since the mark was taken, including a
// replaced value at the marked index.
func (h *History) Rewind(m Mark) {
	if m.len > len(h.checkpoints) {
		return
	}

	h.checkpoints = h.checkpoints[:m.len]
	if m.len > 0 {
		h.checkpoints[m.len-1] = m.last
	}
}

// UpperLookup returns the value in effect at the specified index, which is
// the value of the checkpoint with the greatest index <= index. Zero is
// returned when the index precedes the first checkpoint.
func (h *History) UpperLookup(index uint64) uint256.Int {

	// Find the first checkpoint recorded after the index, the one before
	// it is the predecessor we want.
	pos := sort.Search(len(h.checkpoints), func(i int) bool {
		return h.checkpoints[i].Index > index
	})

	if pos == 0 {
		return uint256.Int{}
	}

	return h.checkpoints[pos-1].Value
}

// =============================================================================

// ValidatePast checks the index is strictly before the current index.
func ValidatePast(index uint64, current uint64) error {
	if index >= current {
		return fmt.Errorf("%w: index %d, current %d", ErrFutureIndexQuery, index, current)
	}

	return nil
}
