// Package database handles the journal of accepted ledger operations and the
// account identity used across the ledger.
package database

import (
	"fmt"
	"sync"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the journal.
type Serializer interface {
	Write(tx Tx) error
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the journal.
// Close releases the iterator's resources and is safe to call at any time.
type Iterator interface {
	Next() (Tx, error)
	Done() bool
	Close() error
}

// =============================================================================

// Database manages the journal of operations applied to the ledger.
type Database struct {
	mu         sync.RWMutex
	latest     uint64
	records    int
	serializer Serializer
}

// New constructs a database over the specified serializer and captures the
// latest recorded index by walking the journal once.
func New(serializer Serializer) (*Database, error) {
	db := Database{
		serializer: serializer,
	}

	iter := serializer.ForEach()
	defer iter.Close()

	for tx, err := iter.Next(); !iter.Done(); tx, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if tx.Index < db.latest {
			return nil, fmt.Errorf("journal out of order at record %d: index %d, latest %d", db.records, tx.Index, db.latest)
		}

		db.latest = tx.Index
		db.records++
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Reset removes every record from the journal.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.latest = 0
	db.records = 0

	return nil
}

// Write appends a record to the journal. Records must arrive in index order.
func (db *Database) Write(tx Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if tx.Index < db.latest {
		return fmt.Errorf("journal write out of order: index %d, latest %d", tx.Index, db.latest)
	}

	if err := db.serializer.Write(tx); err != nil {
		return err
	}

	db.latest = tx.Index
	db.records++

	return nil
}

// Latest returns the index of the last record and the number of records.
func (db *Database) Latest() (index uint64, records int) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latest, db.records
}

// ForEach returns an iterator to walk through all the records in the order
// they were written.
func (db *Database) ForEach() Iterator {
	return db.serializer.ForEach()
}
