// Package leveldb implements the ability to read and write journal records to
// a level db instance keyed by record sequence.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// journalPrefix keys every record so the keyspace can be shared.
var journalPrefix = []byte("j")

var writeOpt = opt.WriteOptions{Sync: true}
var readOpt = opt.ReadOptions{}

// Options for creating a level db instance.
type Options struct {
	CacheSize              int
	OpenFilesCacheCapacity int
}

// LevelDB represents the serialization implementation for reading and storing
// records in level db. This implements the database.Serializer interface.
type LevelDB struct {
	db   *leveldb.DB
	mu   sync.Mutex
	next uint64
}

// New creates a persistent level db instance. An empty one is created if it
// does not exist or opened if it is already there.
func New(path string, opts Options) (*LevelDB, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, fmt.Errorf("new persistent level db: %w", err)
	}
	return open(stg, opts.CacheSize, opts.OpenFilesCacheCapacity)
}

// NewMem creates a level db in memory.
func NewMem() (*LevelDB, error) {
	return open(storage.NewMemStorage(), 0, 0)
}

func open(stg storage.Storage, cacheSize, openFilesCacheCapacity int) (*LevelDB, error) {
	if cacheSize < 16 {
		cacheSize = 16
	}

	if openFilesCacheCapacity < 16 {
		openFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: openFilesCacheCapacity,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, fmt.Errorf("open level db: %w", err)
	}

	ldb := LevelDB{db: db}

	// Find the sequence to use for the next record.
	iter := db.NewIterator(util.BytesPrefix(journalPrefix), &readOpt)
	if iter.Last() {
		ldb.next = binary.BigEndian.Uint64(iter.Key()[len(journalPrefix):]) + 1
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		db.Close()
		return nil, fmt.Errorf("scan level db: %w", err)
	}

	return &ldb, nil
}

// Close closes the level db. Later operations will all fail.
func (ldb *LevelDB) Close() error {
	return ldb.db.Close()
}

// Write stores the record under the next sequence key.
func (ldb *LevelDB) Write(tx database.Tx) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	if err := ldb.db.Put(key(ldb.next), data, &writeOpt); err != nil {
		return err
	}
	ldb.next++

	return nil
}

// Reset deletes every journal record in a single batch.
func (ldb *LevelDB) Reset() error {
	ldb.mu.Lock()
	defer ldb.mu.Unlock()

	batch := new(leveldb.Batch)

	iter := ldb.db.NewIterator(util.BytesPrefix(journalPrefix), &readOpt)
	for iter.Next() {
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	iter.Release()
	if err := iter.Error(); err != nil {
		return err
	}

	if err := ldb.db.Write(batch, &writeOpt); err != nil {
		return err
	}
	ldb.next = 0

	return nil
}

// ForEach returns an iterator to walk through all the records starting
// with the first one written.
func (ldb *LevelDB) ForEach() database.Iterator {
	return &levelDBIterator{
		iter: ldb.db.NewIterator(util.BytesPrefix(journalPrefix), &readOpt),
	}
}

// key forms the storage key for the specified sequence.
func key(seq uint64) []byte {
	k := make([]byte, len(journalPrefix)+8)
	copy(k, journalPrefix)
	binary.BigEndian.PutUint64(k[len(journalPrefix):], seq)
	return k
}

// =============================================================================

// levelDBIterator represents the iteration implementation for walking
// through the records in level db. This implements the database Iterator
// interface.
type levelDBIterator struct {
	iter     iterator.Iterator
	eoj      bool
	released bool
}

// Next retrieves the next record.
func (li *levelDBIterator) Next() (database.Tx, error) {
	if li.eoj {
		return database.Tx{}, errors.New("end of journal")
	}

	if !li.iter.Next() {
		li.eoj = true
		err := li.iter.Error()
		li.Close()
		if err != nil {
			return database.Tx{}, err
		}
		return database.Tx{}, errors.New("end of journal")
	}

	var tx database.Tx
	if err := json.Unmarshal(li.iter.Value(), &tx); err != nil {
		return database.Tx{}, err
	}

	return tx, nil
}

// Done returns the end of journal value.
func (li *levelDBIterator) Done() bool {
	return li.eoj
}

// Close releases the level db iterator.
func (li *levelDBIterator) Close() error {
	if li.released {
		return nil
	}

	li.released = true
	li.iter.Release()
	return nil
}
