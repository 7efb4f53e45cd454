// Package disk implements the ability to read and write journal records to a
// single file on disk, one JSON document per line.
package disk

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
)

// Disk represents the serialization implementation for reading and storing
// records in an append only file. This implements the database.Serializer
// interface.
type Disk struct {
	dbPath string
	dbFile *os.File
	mu     sync.Mutex
}

// New opens the journal file at the specified path, creating it if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	// Open the journal file with append.
	dbFile, err := os.OpenFile(dbPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}

	d := Disk{
		dbPath: dbPath,
		dbFile: dbFile,
	}

	return &d, nil
}

// Close cleanly releases the journal file.
func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dbFile.Close()
}

// Reset removes the journal file and starts a new one.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Close and remove the current file.
	d.dbFile.Close()
	os.Remove(d.dbPath)

	// Open a new journal file with create.
	dbFile, err := os.OpenFile(d.dbPath, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0600)
	if err != nil {
		return err
	}

	d.dbFile = dbFile

	return nil
}

// Write adds a new record to the end of the journal.
func (d *Disk) Write(tx database.Tx) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	// Marshal the record for writing to disk.
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	// Write the record to the journal on disk.
	if _, err := d.dbFile.Write(append(data, '\n')); err != nil {
		return err
	}

	return d.dbFile.Sync()
}

// ForEach returns an iterator to walk through all the records starting
// with the first one written.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{dbPath: d.dbPath}
}

// =============================================================================

// diskIterator represents the iteration implementation for walking through
// and reading records on disk. This implements the database Iterator
// interface.
type diskIterator struct {
	dbPath  string
	file    *os.File
	scanner *bufio.Scanner
	failed  bool
	eoj     bool
}

// Next retrieves the next record from disk.
func (di *diskIterator) Next() (database.Tx, error) {
	if di.eoj {
		return database.Tx{}, errors.New("end of journal")
	}

	if di.scanner == nil {
		f, err := os.Open(di.dbPath)
		if err != nil {
			di.eoj = true
			return database.Tx{}, err
		}
		di.file = f
		di.scanner = bufio.NewScanner(f)
	}

	if !di.scanner.Scan() {
		di.Close()

		// A read failure is returned to the caller before the iterator
		// reports the end of the journal.
		if err := di.scanner.Err(); err != nil && !di.failed {
			di.failed = true
			return database.Tx{}, err
		}

		di.eoj = true
		return database.Tx{}, errors.New("end of journal")
	}

	var tx database.Tx
	if err := json.Unmarshal(di.scanner.Bytes(), &tx); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// Done returns the end of journal value.
func (di *diskIterator) Done() bool {
	return di.eoj
}

// Close releases the journal file if it is still open.
func (di *diskIterator) Close() error {
	if di.file == nil {
		return nil
	}

	err := di.file.Close()
	di.file = nil
	return err
}
