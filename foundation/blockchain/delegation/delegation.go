// Package delegation maintains the current delegate of every account. Only
// the current mapping is kept, power history lives in the ledger.
package delegation

import (
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
)

// Record represents the current delegation for an account.
type Record struct {
	Delegatee database.AccountID
	Since     uint64
}

// Table maps accounts to their current delegate. An account with no entry
// has no delegate, which is different from delegating to itself. A Table
// is not safe for concurrent use, the owner provides the locking.
type Table struct {
	records map[database.AccountID]Record
}

// New constructs an empty delegation table.
func New() *Table {
	return &Table{
		records: make(map[database.AccountID]Record),
	}
}

// DelegateOf returns the current delegation for the account. The bool is
// false when the account has no delegate.
func (t *Table) DelegateOf(account database.AccountID) (Record, bool) {
	rec, exists := t.records[account]
	return rec, exists
}

// SetDelegate records the new delegate for the account effective at the
// specified index and returns the previous delegate, empty for none. An
// empty delegatee removes the delegation. Setting the existing delegate
// changes nothing.
func (t *Table) SetDelegate(account database.AccountID, delegatee database.AccountID, atIndex uint64) database.AccountID {
	prev := t.records[account]

	switch {
	case prev.Delegatee == delegatee:
	case delegatee.IsZero():
		delete(t.records, account)
	default:
		t.records[account] = Record{Delegatee: delegatee, Since: atIndex}
	}

	return prev.Delegatee
}

// Restore puts back a delegation captured with DelegateOf. The exists value
// is the bool DelegateOf returned.
func (t *Table) Restore(account database.AccountID, rec Record, exists bool) {
	if !exists {
		delete(t.records, account)
		return
	}

	t.records[account] = rec
}

// Copy returns a copy of every delegation in the table.
func (t *Table) Copy() map[database.AccountID]Record {
	cpy := make(map[database.AccountID]Record, len(t.records))
	for account, rec := range t.records {
		cpy[account] = rec
	}
	return cpy
}
