package nameservice_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/nameservice"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestNameService(t *testing.T) {
	root := t.TempDir()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to generate a key: %v", failed, err)
	}

	if err := crypto.SaveECDSA(filepath.Join(root, "kennedy.ecdsa"), key); err != nil {
		t.Fatalf("\t%s\tShould be able to save the key: %v", failed, err)
	}

	accountID := database.PublicKeyToAccountID(key.PublicKey)

	t.Log("Given the need to name accounts from key files.")
	{
		ns, err := nameservice.New(root)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the folder: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the folder.", success)

		if name := ns.Lookup(accountID); name != "kennedy" {
			t.Fatalf("\t%s\tShould find the name kennedy: got %q", failed, name)
		}
		t.Logf("\t%s\tShould find the name kennedy.", success)

		got, err := ns.Resolve("kennedy")
		if err != nil || got != accountID {
			t.Fatalf("\t%s\tShould resolve kennedy to %s: got %s, %v", failed, accountID, got, err)
		}
		t.Logf("\t%s\tShould resolve kennedy to the account.", success)

		const other = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
		if name := ns.Lookup(other); name != other {
			t.Fatalf("\t%s\tShould return unknown accounts as is: got %q", failed, name)
		}

		if got, err := ns.Resolve("0xf01813e4b85e178a83e29b8e7bf26bd830a25f32"); err != nil || got != other {
			t.Fatalf("\t%s\tShould resolve a hex account to its checksum form: got %s, %v", failed, got, err)
		}
		t.Logf("\t%s\tShould resolve a hex account to its checksum form.", success)
	}
}
