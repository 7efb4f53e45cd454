// Package memory implements the ability to read and write journal records to
// memory using a slice.
package memory

import (
	"errors"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// records in memory using a slice. This implements the database.Serializer
// interface.
type Memory struct {
	mu  sync.RWMutex
	txs []database.Tx
}

// New constructs an Memory value for use.
func New() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified record and stores it in memory.
func (m *Memory) Write(tx database.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l := len(m.txs); l > 0 && tx.Index < m.txs[l-1].Index {
		return errors.New("record is out of order")
	}

	m.txs = append(m.txs, tx)

	return nil
}

// ForEach returns an iterator to walk through all the records starting
// with the first one written.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Reset will clear out the journal.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.txs = nil
	return nil
}

// get returns the record at the specified position.
func (m *Memory) get(pos int) (database.Tx, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if pos >= len(m.txs) {
		return database.Tx{}, errors.New("record does not exist")
	}

	return m.txs[pos], nil
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the records in memory. This implements the database
// Iterator interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current int     // Current position being iterated over.
	eoj     bool    // Represents the iterator is at the end of the journal.
}

// Next retrieves the next record.
func (mi *memoryIterator) Next() (database.Tx, error) {
	if mi.eoj {
		return database.Tx{}, errors.New("end of journal")
	}

	tx, err := mi.storage.get(mi.current)
	if err != nil {
		mi.eoj = true
	}

	mi.current++

	return tx, err
}

// Done returns the end of journal value.
func (mi *memoryIterator) Done() bool {
	return mi.eoj
}

// Close has nothing to release for memory.
func (mi *memoryIterator) Close() error {
	mi.eoj = true
	return nil
}
