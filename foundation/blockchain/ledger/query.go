package ledger

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/voteledger/foundation/blockchain/checkpoint"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/delegation"
	"github.com/holiman/uint256"
)

// Votes returns the current voting power of the account.
func (l *Ledger) Votes(account database.AccountID) uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.power.Latest(account)
}

// PastVotes returns the voting power of the account at the specified index.
// The index must be strictly before the current clock index.
func (l *Ledger) PastVotes(account database.AccountID, atIndex uint64) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.power.At(account, atIndex, l.clock.Current())
}

// TotalSupply returns the current sum of all raw balances.
func (l *Ledger) TotalSupply() uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.supply.Latest()
}

// PastTotalSupply returns the sum of all raw balances at the specified
// index. The index must be strictly before the current clock index.
func (l *Ledger) PastTotalSupply(atIndex uint64) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := checkpoint.ValidatePast(atIndex, l.clock.Current()); err != nil {
		return uint256.Int{}, err
	}

	return l.supply.UpperLookup(atIndex), nil
}

// BalanceOf returns the current raw balance of the account.
func (l *Ledger) BalanceOf(account database.AccountID) uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances.Latest(account)
}

// PastBalanceOf returns the raw balance of the account at the specified
// index. The index must be strictly before the current clock index.
func (l *Ledger) PastBalanceOf(account database.AccountID, atIndex uint64) (uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.balances.At(account, atIndex, l.clock.Current())
}

// Delegates returns the current delegate of the account, empty for none.
func (l *Ledger) Delegates(account database.AccountID) database.AccountID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, _ := l.delegates.DelegateOf(account)
	return rec.Delegatee
}

// DelegateOf returns the current delegation record of the account. The bool
// is false when the account has no delegate.
func (l *Ledger) DelegateOf(account database.AccountID) (delegation.Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.delegates.DelegateOf(account)
}

// NumCheckpoints returns the number of power checkpoints for the account.
func (l *Ledger) NumCheckpoints(account database.AccountID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, exists := l.power.History(account)
	if !exists {
		return 0
	}

	return h.Len()
}

// Checkpoint returns the power checkpoint at the specified position for
// the account.
func (l *Ledger) Checkpoint(account database.AccountID, pos int) (checkpoint.Checkpoint, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, exists := l.power.History(account)
	if !exists {
		return checkpoint.Checkpoint{}, fmt.Errorf("account %s has no checkpoints", account)
	}

	return h.Checkpoint(pos)
}

// PowerHistory returns a copy of the power checkpoints for the account.
func (l *Ledger) PowerHistory(account database.AccountID) []checkpoint.Checkpoint {
	l.mu.RLock()
	defer l.mu.RUnlock()

	h, exists := l.power.History(account)
	if !exists {
		return nil
	}

	return h.Checkpoints()
}

// Accounts returns every account that has a balance or power history,
// sorted by account.
func (l *Ledger) Accounts() []database.AccountID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	set := make(map[database.AccountID]struct{})
	for _, account := range l.balances.Entities() {
		set[account] = struct{}{}
	}
	for _, account := range l.power.Entities() {
		set[account] = struct{}{}
	}

	accounts := make([]database.AccountID, 0, len(set))
	for account := range set {
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i] < accounts[j]
	})

	return accounts
}
