package checkpoint

import (
	"github.com/holiman/uint256"
)

// Store maintains one history per entity. Histories are created on the first
// write for an entity and never removed. A Store is not safe for concurrent
// use, the owner provides the locking.
type Store[K comparable] struct {
	histories map[K]*History
}

// NewStore constructs an empty store for use.
func NewStore[K comparable]() *Store[K] {
	return &Store[K]{
		histories: make(map[K]*History),
	}
}

// Append records the value for the entity at the specified index.
func (s *Store[K]) Append(entity K, index uint64, value uint256.Int) error {
	h, exists := s.histories[entity]
	if !exists {
		h = &History{}
	}

	if err := h.Push(index, value); err != nil {
		return err
	}

	s.histories[entity] = h
	return nil
}

// CanAppend reports whether an append for the entity at the specified index
// would be accepted.
func (s *Store[K]) CanAppend(entity K, index uint64) error {
	h, exists := s.histories[entity]
	if !exists {
		return nil
	}

	return h.CanPush(index)
}

// Mark returns the position of the entity's history. The bool is false when
// the entity has never been written.
func (s *Store[K]) Mark(entity K) (Mark, bool) {
	h, exists := s.histories[entity]
	if !exists {
		return Mark{}, false
	}

	return h.Mark(), true
}

// Rewind undoes the writes made to the entity since the mark was taken. An
// entity that did not exist at the mark is removed.
func (s *Store[K]) Rewind(entity K, m Mark, existed bool) {
	if !existed {
		delete(s.histories, entity)
		return
	}

	if h, exists := s.histories[entity]; exists {
		h.Rewind(m)
	}
}

// Latest returns the latest value for the entity, zero if no history exists.
func (s *Store[K]) Latest(entity K) uint256.Int {
	h, exists := s.histories[entity]
	if !exists {
		return uint256.Int{}
	}

	return h.Latest()
}

// At returns the value in effect for the entity at the specified index. The
// index must be strictly before the current index.
func (s *Store[K]) At(entity K, index uint64, current uint64) (uint256.Int, error) {
	if err := ValidatePast(index, current); err != nil {
		return uint256.Int{}, err
	}

	h, exists := s.histories[entity]
	if !exists {
		return uint256.Int{}, nil
	}

	return h.UpperLookup(index), nil
}

// History returns the history for the entity. The bool is false when the
// entity has never been written.
func (s *Store[K]) History(entity K) (*History, bool) {
	h, exists := s.histories[entity]
	return h, exists
}

// Entities returns the set of entities that have a history.
func (s *Store[K]) Entities() []K {
	entities := make([]K, 0, len(s.histories))
	for entity := range s.histories {
		entities = append(entities, entity)
	}
	return entities
}
