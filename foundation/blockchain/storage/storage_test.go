package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/storage"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestOpen(t *testing.T) {
	kinds := []string{storage.KindDisk, storage.KindLevelDB, storage.KindMemory}

	t.Log("Given the need to keep the journal in different kinds of storage.")
	{
		for testID, kind := range kinds {
			t.Logf("\tTest %d:\tWhen opening %s storage.", testID, kind)
			{
				dbPath := filepath.Join(t.TempDir(), "journal")

				ser, err := storage.Open(kind, dbPath)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open storage: %v", failed, testID, err)
				}

				tx := database.NewMintTx(1, "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", *uint256.NewInt(5))
				if err := ser.Write(tx); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write: %v", failed, testID, err)
				}

				db, err := database.New(ser)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to read the journal: %v", failed, testID, err)
				}

				if index, records := db.Latest(); index != 1 || records != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould find one record at index 1: got %d records at %d", failed, testID, records, index)
				}
				t.Logf("\t%s\tTest %d:\tShould find one record at index 1.", success, testID)

				if err := db.Close(); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to close: %v", failed, testID, err)
				}
			}
		}

		if _, err := storage.Open("tape", ""); err == nil {
			t.Fatalf("\t%s\tShould reject an unknown kind.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown kind.", success)
	}
}
