// Package token maintains raw token balances in memory and reports every
// balance change to a listener.
package token

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// Set of error variables for token operations.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrZeroAccount         = errors.New("operation requires an account")
	ErrBalanceOverflow     = errors.New("balance would overflow")
)

// Listener is told about every raw balance change, each side of a transfer
// independently, at the index the change happens.
type Listener interface {
	OnBalanceChange(account database.AccountID, newBalance uint256.Int, atIndex uint64) error
}

// BatchListener is implemented by listeners that can take every change of
// one operation at once and apply all of them or none.
type BatchListener interface {
	OnBalanceChanges(changes []database.BalanceChange, atIndex uint64) error
}

// Sheet represents the data representation to maintain account balances.
type Sheet struct {
	sheet    map[database.AccountID]uint256.Int
	listener Listener
	mu       sync.RWMutex
}

// NewSheet constructs a new, empty balance sheet that reports changes to
// the specified listener.
func NewSheet(listener Listener) *Sheet {
	return &Sheet{
		sheet:    make(map[database.AccountID]uint256.Int),
		listener: listener,
	}
}

// BalanceOf returns the balance of the account.
func (bs *Sheet) BalanceOf(account database.AccountID) uint256.Int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	return bs.sheet[account]
}

// TotalSupply returns the sum of all balances.
func (bs *Sheet) TotalSupply() uint256.Int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	var total uint256.Int
	for _, bal := range bs.sheet {
		total.Add(&total, &bal)
	}
	return total
}

// Copy makes a copy of the current balance sheet but returns the raw data.
func (bs *Sheet) Copy() map[database.AccountID]uint256.Int {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	sheet := make(map[database.AccountID]uint256.Int, len(bs.sheet))
	for account, bal := range bs.sheet {
		sheet[account] = bal
	}
	return sheet
}

// Snapshot holds the balances of a set of accounts as they were when it was
// taken.
type Snapshot struct {
	balances map[database.AccountID]uint256.Int
	absent   map[database.AccountID]struct{}
}

// Snapshot captures the balances of the specified accounts. Empty accounts
// are ignored.
func (bs *Sheet) Snapshot(accounts ...database.AccountID) Snapshot {
	bs.mu.RLock()
	defer bs.mu.RUnlock()

	snap := Snapshot{
		balances: make(map[database.AccountID]uint256.Int),
		absent:   make(map[database.AccountID]struct{}),
	}

	for _, account := range accounts {
		if account.IsZero() {
			continue
		}

		bal, exists := bs.sheet[account]
		if !exists {
			snap.absent[account] = struct{}{}
			continue
		}
		snap.balances[account] = bal
	}

	return snap
}

// Restore puts back the balances captured in the snapshot. The listener is
// not told, the caller is expected to revert it separately.
func (bs *Sheet) Restore(snap Snapshot) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	for account, bal := range snap.balances {
		bs.sheet[account] = bal
	}
	for account := range snap.absent {
		delete(bs.sheet, account)
	}
}

// Mint creates the amount and gives it to the account.
func (bs *Sheet) Mint(to database.AccountID, amount uint256.Int, atIndex uint64) error {
	if to.IsZero() {
		return ErrZeroAccount
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	bal := bs.sheet[to]

	var newBal uint256.Int
	if _, overflow := newBal.AddOverflow(&bal, &amount); overflow {
		return fmt.Errorf("mint to %s: %w", to, ErrBalanceOverflow)
	}

	if err := bs.listener.OnBalanceChange(to, newBal, atIndex); err != nil {
		return fmt.Errorf("mint to %s: %w", to, err)
	}

	bs.sheet[to] = newBal
	return nil
}

// Burn destroys the amount from the account.
func (bs *Sheet) Burn(from database.AccountID, amount uint256.Int, atIndex uint64) error {
	if from.IsZero() {
		return ErrZeroAccount
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	bal := bs.sheet[from]
	if amount.Gt(&bal) {
		return fmt.Errorf("burn from %s: %w: balance %s, amount %s", from, ErrInsufficientBalance, bal.Dec(), amount.Dec())
	}

	var newBal uint256.Int
	newBal.Sub(&bal, &amount)

	if err := bs.listener.OnBalanceChange(from, newBal, atIndex); err != nil {
		return fmt.Errorf("burn from %s: %w", from, err)
	}

	bs.sheet[from] = newBal
	return nil
}

// Transfer moves the amount from one account to another. The debit and the
// credit are reported to the listener separately.
func (bs *Sheet) Transfer(from database.AccountID, to database.AccountID, amount uint256.Int, atIndex uint64) error {
	if from.IsZero() || to.IsZero() {
		return ErrZeroAccount
	}

	bs.mu.Lock()
	defer bs.mu.Unlock()

	fromBal := bs.sheet[from]
	if amount.Gt(&fromBal) {
		return fmt.Errorf("transfer from %s: %w: balance %s, amount %s", from, ErrInsufficientBalance, fromBal.Dec(), amount.Dec())
	}

	// Sending to yourself changes nothing.
	if from == to {
		return nil
	}

	toBal := bs.sheet[to]

	var newFrom, newTo uint256.Int
	newFrom.Sub(&fromBal, &amount)
	if _, overflow := newTo.AddOverflow(&toBal, &amount); overflow {
		return fmt.Errorf("transfer to %s: %w", to, ErrBalanceOverflow)
	}

	if err := bs.reportTransfer(from, newFrom, fromBal, to, newTo, atIndex); err != nil {
		return err
	}

	bs.sheet[from] = newFrom
	bs.sheet[to] = newTo

	return nil
}

// reportTransfer tells the listener about both sides of a transfer. A batch
// listener gets both changes in one call. Otherwise a rejected credit is
// followed by a report that puts the debit back, which leaves an extra
// checkpoint for the sender at the same index.
func (bs *Sheet) reportTransfer(from database.AccountID, newFrom uint256.Int, oldFrom uint256.Int, to database.AccountID, newTo uint256.Int, atIndex uint64) error {
	if bl, ok := bs.listener.(BatchListener); ok {
		changes := []database.BalanceChange{
			{Account: from, Balance: newFrom},
			{Account: to, Balance: newTo},
		}
		if err := bl.OnBalanceChanges(changes, atIndex); err != nil {
			return fmt.Errorf("transfer %s to %s: %w", from, to, err)
		}
		return nil
	}

	if err := bs.listener.OnBalanceChange(from, newFrom, atIndex); err != nil {
		return fmt.Errorf("transfer debit %s: %w", from, err)
	}

	if err := bs.listener.OnBalanceChange(to, newTo, atIndex); err != nil {
		if rerr := bs.listener.OnBalanceChange(from, oldFrom, atIndex); rerr != nil {
			return fmt.Errorf("transfer credit %s: %w, restore debit: %v", to, err, rerr)
		}
		return fmt.Errorf("transfer credit %s: %w", to, err)
	}

	return nil
}
