package token_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/voteledger/foundation/blockchain/token"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	acctA = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	acctB = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
	acctC = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
)

type change struct {
	account database.AccountID
	balance uint64
	index   uint64
}

// recorder captures the changes reported by the sheet and can be told to
// reject a specific account.
type recorder struct {
	changes []change
	reject  database.AccountID
}

func (r *recorder) OnBalanceChange(account database.AccountID, newBalance uint256.Int, atIndex uint64) error {
	if account == r.reject {
		return errors.New("rejected")
	}

	r.changes = append(r.changes, change{account: account, balance: newBalance.Uint64(), index: atIndex})
	return nil
}

// batchRecorder takes both sides of a transfer in one call.
type batchRecorder struct {
	recorder
	batches int
}

func (r *batchRecorder) OnBalanceChanges(changes []database.BalanceChange, atIndex uint64) error {
	for _, c := range changes {
		if c.Account == r.reject {
			return errors.New("rejected")
		}
	}

	r.batches++
	for _, c := range changes {
		r.changes = append(r.changes, change{account: c.Account, balance: c.Balance.Uint64(), index: atIndex})
	}
	return nil
}

func amount(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

// =============================================================================

func TestSheet(t *testing.T) {
	t.Log("Given the need to report each balance change to the ledger.")
	{
		var rec recorder
		sheet := token.NewSheet(&rec)

		t.Log("\tTest 0:\tWhen minting, transferring and burning.")
		{
			if err := sheet.Mint(acctA, amount(10), 100); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mint: %v", failed, err)
			}
			if err := sheet.Transfer(acctA, acctB, amount(4), 102); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to transfer: %v", failed, err)
			}
			if err := sheet.Burn(acctB, amount(1), 103); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to burn: %v", failed, err)
			}
			if err := sheet.Transfer(acctA, acctA, amount(2), 104); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to send to yourself: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to apply the operations.", success)

			exp := []change{
				{account: acctA, balance: 10, index: 100},
				{account: acctA, balance: 6, index: 102},
				{account: acctB, balance: 4, index: 102},
				{account: acctB, balance: 3, index: 103},
			}

			if len(rec.changes) != len(exp) {
				t.Fatalf("\t%s\tTest 0:\tShould report %d changes: got %d", failed, len(exp), len(rec.changes))
			}
			for i := range exp {
				if rec.changes[i] != exp[i] {
					t.Errorf("\t%s\tTest 0:\tShould report change %d as %+v: got %+v", failed, i, exp[i], rec.changes[i])
				}
			}
			t.Logf("\t%s\tTest 0:\tShould report each side independently.", success)

			if supply := sheet.TotalSupply(); supply.Uint64() != 9 {
				t.Errorf("\t%s\tTest 0:\tShould have a total supply of 9: got %d", failed, supply.Uint64())
			}
		}

		t.Log("\tTest 1:\tWhen spending more than the balance.")
		{
			if err := sheet.Transfer(acctB, acctA, amount(4), 105); !errors.Is(err, token.ErrInsufficientBalance) {
				t.Fatalf("\t%s\tTest 1:\tShould fail the transfer: got %v", failed, err)
			}
			if err := sheet.Burn(acctB, amount(4), 105); !errors.Is(err, token.ErrInsufficientBalance) {
				t.Fatalf("\t%s\tTest 1:\tShould fail the burn: got %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with an insufficient balance.", success)
		}

		t.Log("\tTest 2:\tWhen the listener rejects the credit.")
		{
			rec.reject = acctB
			n := len(rec.changes)

			if err := sheet.Transfer(acctA, acctB, amount(1), 106); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould fail the transfer.", failed)
			}

			if bal := sheet.BalanceOf(acctA); bal.Uint64() != 6 {
				t.Fatalf("\t%s\tTest 2:\tShould leave the sheet unchanged: got %d", failed, bal.Uint64())
			}

			last := rec.changes[len(rec.changes)-1]
			if len(rec.changes) != n+2 || last.account != acctA || last.balance != 6 {
				t.Fatalf("\t%s\tTest 2:\tShould restore the debit: got %+v", failed, rec.changes[n:])
			}
			t.Logf("\t%s\tTest 2:\tShould restore the debit and leave the sheet unchanged.", success)
		}
	}
}

func TestSheetBatch(t *testing.T) {
	t.Log("Given the need to report both sides of a transfer together.")
	{
		var rec batchRecorder
		sheet := token.NewSheet(&rec)

		if err := sheet.Mint(acctA, amount(10), 1); err != nil {
			t.Fatalf("\t%s\tShould be able to mint: %v", failed, err)
		}

		t.Log("\tTest 0:\tWhen the listener rejects the credit.")
		{
			rec.reject = acctB
			n := len(rec.changes)

			if err := sheet.Transfer(acctA, acctB, amount(4), 2); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould fail the transfer.", failed)
			}

			if len(rec.changes) != n {
				t.Fatalf("\t%s\tTest 0:\tShould report no change: got %+v", failed, rec.changes[n:])
			}
			if bal := sheet.BalanceOf(acctA); bal.Uint64() != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the sheet unchanged: got %d", failed, bal.Uint64())
			}
			t.Logf("\t%s\tTest 0:\tShould report no change and leave the sheet unchanged.", success)
		}

		t.Log("\tTest 1:\tWhen the listener accepts both sides.")
		{
			rec.reject = ""

			if err := sheet.Transfer(acctA, acctB, amount(4), 3); err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to transfer: %v", failed, err)
			}
			if rec.batches != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould report the transfer in one call: got %d", failed, rec.batches)
			}
			t.Logf("\t%s\tTest 1:\tShould report the transfer in one call.", success)
		}

		t.Log("\tTest 2:\tWhen restoring a snapshot.")
		{
			snap := sheet.Snapshot(acctA, acctC)
			if err := sheet.Mint(acctC, amount(7), 4); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to mint: %v", failed, err)
			}
			if err := sheet.Burn(acctA, amount(6), 4); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to burn: %v", failed, err)
			}

			sheet.Restore(snap)

			if bal := sheet.BalanceOf(acctA); bal.Uint64() != 6 {
				t.Fatalf("\t%s\tTest 2:\tShould restore the balance of %s to 6: got %d", failed, acctA, bal.Uint64())
			}
			if _, exists := sheet.Copy()[acctC]; exists {
				t.Fatalf("\t%s\tTest 2:\tShould remove %s from the sheet.", failed, acctC)
			}
			t.Logf("\t%s\tTest 2:\tShould restore the snapshot.", success)
		}
	}
}

func TestSheetWithLedger(t *testing.T) {
	clk := fixed(10)
	l, err := ledger.New(ledger.Config{Clock: &clk, MaxSupply: amount(50)})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a ledger: %v", failed, err)
	}

	sheet := token.NewSheet(l)

	t.Log("Given the need to keep the sheet and the ledger in agreement.")
	{
		if err := sheet.Mint(acctA, amount(40), 10); err != nil {
			t.Fatalf("\t%s\tShould be able to mint: %v", failed, err)
		}

		if err := sheet.Mint(acctB, amount(11), 10); !errors.Is(err, ledger.ErrSupplyOverflow) {
			t.Fatalf("\t%s\tShould fail a mint past the maximum supply: got %v", failed, err)
		}
		t.Logf("\t%s\tShould fail a mint past the maximum supply.", success)

		if bal := sheet.BalanceOf(acctB); !bal.IsZero() {
			t.Fatalf("\t%s\tShould not credit the failed mint: got %d", failed, bal.Uint64())
		}

		for account, bal := range sheet.Copy() {
			got := l.BalanceOf(account)
			if !got.Eq(&bal) {
				t.Fatalf("\t%s\tShould agree on the balance of %s: sheet %s, ledger %s", failed, account, bal.Dec(), got.Dec())
			}
		}
		t.Logf("\t%s\tShould agree on every balance.", success)
	}
}

// fixed is a clock that never moves.
type fixed uint64

func (f *fixed) Current() uint64 {
	return uint64(*f)
}
