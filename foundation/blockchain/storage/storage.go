// Package storage selects the journal serializer the node runs with.
package storage

import (
	"fmt"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/storage/disk"
	"github.com/ardanlabs/voteledger/foundation/blockchain/storage/leveldb"
	"github.com/ardanlabs/voteledger/foundation/blockchain/storage/memory"
)

// Set of storage kinds the journal can be kept in.
const (
	KindDisk    = "disk"
	KindLevelDB = "leveldb"
	KindMemory  = "memory"
)

// Open constructs the journal serializer for the specified kind. The path
// is a file for disk storage and a directory for leveldb storage.
func Open(kind string, dbPath string) (database.Serializer, error) {
	switch kind {
	case KindDisk:
		return disk.New(dbPath)

	case KindLevelDB:
		return leveldb.New(dbPath, leveldb.Options{})

	case KindMemory:
		return memory.New()
	}

	return nil, fmt.Errorf("unknown storage kind %q", kind)
}
