// Package ledger tracks raw balances and delegated voting power as checkpoint
// histories so voting power can be read at any past sequence index.
package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/checkpoint"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/delegation"
	"github.com/holiman/uint256"
)

// Set of error variables for ledger mutations and queries.
var (
	ErrOutOfOrderWrite        = checkpoint.ErrOutOfOrderWrite
	ErrFutureIndexQuery       = checkpoint.ErrFutureIndexQuery
	ErrNegativePowerInvariant = errors.New("voting power bookkeeping would go negative")
	ErrSupplyOverflow         = errors.New("total supply would exceed the maximum")
)

// DefaultMaxSupply is the largest total supply the ledger accepts, 2^224-1.
var DefaultMaxSupply = func() uint256.Int {
	one := uint256.NewInt(1)
	limit := new(uint256.Int).Lsh(one, 224)
	return *limit.Sub(limit, one)
}()

// =============================================================================

// Clock provides the current sequence index. The index must never go
// backwards over the lifetime of the ledger.
type Clock interface {
	Current() uint64
}

// EventHandler defines a function that is called when the ledger accepts
// a mutation.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct a ledger.
type Config struct {
	Clock     Clock
	MaxSupply uint256.Int
	EvHandler EventHandler
}

// Ledger is the only writer of the raw balance, power and total supply
// histories. Mutations are serialized and each one is applied completely
// or not at all. Readers never observe a partially applied mutation.
type Ledger struct {
	mu        sync.RWMutex
	clock     Clock
	maxSupply uint256.Int
	evHandler EventHandler
	lastIndex uint64

	balances  *checkpoint.Store[database.AccountID]
	power     *checkpoint.Store[database.AccountID]
	supply    checkpoint.History
	delegated checkpoint.History
	delegates *delegation.Table

	tx *undoLog
}

// undoLog collects what is needed to revert the mutations applied since
// Begin was called.
type undoLog struct {
	lastIndex uint64
	steps     []func()
}

// New constructs an empty ledger.
func New(cfg Config) (*Ledger, error) {
	if cfg.Clock == nil {
		return nil, errors.New("ledger requires a clock")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	maxSupply := cfg.MaxSupply
	if maxSupply.IsZero() {
		maxSupply = DefaultMaxSupply
	}

	l := Ledger{
		clock:     cfg.Clock,
		maxSupply: maxSupply,
		evHandler: ev,
		balances:  checkpoint.NewStore[database.AccountID](),
		power:     checkpoint.NewStore[database.AccountID](),
		delegates: delegation.New(),
	}

	return &l, nil
}

// =============================================================================

// Begin starts recording the mutations that follow so they can be reverted
// as one unit with Rollback. Commit ends the recording and keeps them.
func (l *Ledger) Begin() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tx = &undoLog{lastIndex: l.lastIndex}
}

// Commit keeps the mutations applied since Begin.
func (l *Ledger) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tx = nil
}

// Rollback reverts every mutation applied since Begin, newest first.
func (l *Ledger) Rollback() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.tx == nil {
		return
	}

	for i := len(l.tx.steps) - 1; i >= 0; i-- {
		l.tx.steps[i]()
	}
	l.lastIndex = l.tx.lastIndex
	l.tx = nil

	l.evHandler("ledger: Rollback: index[%d]", l.lastIndex)
}

// record keeps an undo step when a recording is in progress.
func (l *Ledger) record(step func()) {
	if l.tx != nil {
		l.tx.steps = append(l.tx.steps, step)
	}
}

// =============================================================================

// OnBalanceChange records the new raw balance of the account at the specified
// index. The difference from the previous balance is applied to the total
// supply and, if the account has a delegate, to the delegate's power.
func (l *Ledger) OnBalanceChange(account database.AccountID, newBalance uint256.Int, atIndex uint64) error {
	return l.OnBalanceChanges([]database.BalanceChange{{Account: account, Balance: newBalance}}, atIndex)
}

// OnBalanceChanges records several balance changes at the specified index
// as one mutation. Each change is computed on top of the ones before it, and
// either every change is applied or none is.
func (l *Ledger) OnBalanceChanges(changes []database.BalanceChange, atIndex uint64) error {
	for _, c := range changes {
		if c.Account.IsZero() {
			return errors.New("balance change requires an account")
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkIndex(atIndex); err != nil {
		return err
	}

	var b batch
	for _, c := range changes {
		if err := l.stageBalance(&b, c.Account, c.Balance); err != nil {
			return err
		}
	}

	if err := b.validate(atIndex); err != nil {
		return err
	}
	l.apply(&b, atIndex)
	l.lastIndex = atIndex

	supply := l.supply.Latest()
	for _, c := range changes {
		l.evHandler("ledger: OnBalanceChange: account[%s] balance[%s] supply[%s] index[%d]", c.Account, c.Balance.Dec(), supply.Dec(), atIndex)
		if rec, delegated := l.delegates.DelegateOf(c.Account); delegated {
			votes := l.power.Latest(rec.Delegatee)
			l.evHandler("ledger: OnBalanceChange: delegatee[%s] votes[%s] index[%d]", rec.Delegatee, votes.Dec(), atIndex)
		}
	}

	return nil
}

// Delegate changes the delegate of the account at the specified index. The
// account's entire current raw balance moves from the old delegate's power
// to the new delegate's power. An empty delegatee removes the delegation.
// Delegating to the current delegate changes nothing.
func (l *Ledger) Delegate(account database.AccountID, newDelegate database.AccountID, atIndex uint64) error {
	if account.IsZero() {
		return errors.New("delegate requires an account")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkIndex(atIndex); err != nil {
		return err
	}

	rec, exists := l.delegates.DelegateOf(account)
	oldDelegate := rec.Delegatee
	if oldDelegate == newDelegate {
		l.lastIndex = atIndex
		return nil
	}

	bal := l.balances.Latest(account)

	var b batch
	if !bal.IsZero() {
		if !oldDelegate.IsZero() {
			power := l.power.Latest(oldDelegate)
			newPower, err := l.adjust(power, bal, false)
			if err != nil {
				return fmt.Errorf("power of %s: %w", oldDelegate, err)
			}
			b.entity(l.power, oldDelegate, newPower)
		}

		if !newDelegate.IsZero() {
			power := l.power.Latest(newDelegate)
			newPower, err := l.adjust(power, bal, true)
			if err != nil {
				return fmt.Errorf("power of %s: %w", newDelegate, err)
			}
			b.entity(l.power, newDelegate, newPower)
		}

		// Only a move between no delegate and some delegate changes the
		// amount of balance that carries votes.
		if oldDelegate.IsZero() != newDelegate.IsZero() {
			delegated := l.delegated.Latest()
			newDelegated, err := l.adjust(delegated, bal, oldDelegate.IsZero())
			if err != nil {
				return fmt.Errorf("delegated supply: %w", err)
			}
			b.total(&l.delegated, newDelegated)
		}
	}

	if err := b.validate(atIndex); err != nil {
		return err
	}

	l.delegates.SetDelegate(account, newDelegate, atIndex)
	l.record(func() { l.delegates.Restore(account, rec, exists) })
	l.apply(&b, atIndex)
	l.lastIndex = atIndex

	l.evHandler("ledger: Delegate: account[%s] from[%s] to[%s] moved[%s] index[%d]", account, oldDelegate, newDelegate, bal.Dec(), atIndex)

	return nil
}

// =============================================================================

// stageBalance adds the writes for one balance change to the batch, on top
// of the writes already staged.
func (l *Ledger) stageBalance(b *batch, account database.AccountID, newBalance uint256.Int) error {
	oldBalance := b.latest(l.balances, account)
	if oldBalance.Eq(&newBalance) {
		return nil
	}

	// Capture the direction and size of the change.
	increase := newBalance.Gt(&oldBalance)
	var delta uint256.Int
	if increase {
		delta.Sub(&newBalance, &oldBalance)
	} else {
		delta.Sub(&oldBalance, &newBalance)
	}

	b.entity(l.balances, account, newBalance)

	// Apply the change to the total supply.
	newSupply, err := l.adjust(b.latestTotal(&l.supply), delta, increase)
	if err != nil {
		return fmt.Errorf("total supply: %w", err)
	}
	b.total(&l.supply, newSupply)

	// Move the change into the delegate's power if the account has one.
	rec, delegated := l.delegates.DelegateOf(account)
	if !delegated {
		return nil
	}

	newPower, err := l.adjust(b.latest(l.power, rec.Delegatee), delta, increase)
	if err != nil {
		return fmt.Errorf("power of %s: %w", rec.Delegatee, err)
	}
	b.entity(l.power, rec.Delegatee, newPower)

	newDelegated, err := l.adjust(b.latestTotal(&l.delegated), delta, increase)
	if err != nil {
		return fmt.Errorf("delegated supply: %w", err)
	}
	b.total(&l.delegated, newDelegated)

	return nil
}

// checkIndex rejects a mutation older than the newest accepted mutation.
func (l *Ledger) checkIndex(atIndex uint64) error {
	if atIndex < l.lastIndex {
		return fmt.Errorf("%w: index %d, last %d", ErrOutOfOrderWrite, atIndex, l.lastIndex)
	}

	return nil
}

// adjust applies the delta to the value in the specified direction and
// enforces the bounds of the ledger.
func (l *Ledger) adjust(value uint256.Int, delta uint256.Int, increase bool) (uint256.Int, error) {
	var result uint256.Int

	if !increase {
		if _, underflow := result.SubOverflow(&value, &delta); underflow {
			return uint256.Int{}, fmt.Errorf("%w: %s - %s", ErrNegativePowerInvariant, value.Dec(), delta.Dec())
		}
		return result, nil
	}

	if _, overflow := result.AddOverflow(&value, &delta); overflow || result.Gt(&l.maxSupply) {
		return uint256.Int{}, fmt.Errorf("%w: %s + %s", ErrSupplyOverflow, value.Dec(), delta.Dec())
	}

	return result, nil
}

// apply performs the writes of a validated batch and records how to undo
// each one.
func (l *Ledger) apply(b *batch, atIndex uint64) {
	for _, w := range b.writes {
		switch {
		case w.store != nil:
			m, existed := w.store.Mark(w.account)
			w.store.Append(w.account, atIndex, w.value)
			l.record(func() { w.store.Rewind(w.account, m, existed) })

		default:
			m := w.history.Mark()
			w.history.Push(atIndex, w.value)
			l.record(func() { w.history.Rewind(m) })
		}
	}
}

// =============================================================================

// write is a single pending checkpoint write against either an entity in a
// store or a ledger wide history.
type write struct {
	store   *checkpoint.Store[database.AccountID]
	history *checkpoint.History
	account database.AccountID
	value   uint256.Int
}

// batch collects the checkpoint writes of one mutation so they can all be
// validated before any of them is applied.
type batch struct {
	writes []write
}

func (b *batch) entity(store *checkpoint.Store[database.AccountID], account database.AccountID, value uint256.Int) {
	b.writes = append(b.writes, write{store: store, account: account, value: value})
}

func (b *batch) total(history *checkpoint.History, value uint256.Int) {
	b.writes = append(b.writes, write{history: history, value: value})
}

// latest returns the value the entity will have once the staged writes are
// applied.
func (b *batch) latest(store *checkpoint.Store[database.AccountID], account database.AccountID) uint256.Int {
	for i := len(b.writes) - 1; i >= 0; i-- {
		if w := b.writes[i]; w.store == store && w.account == account {
			return w.value
		}
	}

	return store.Latest(account)
}

// latestTotal returns the value the history will have once the staged
// writes are applied.
func (b *batch) latestTotal(history *checkpoint.History) uint256.Int {
	for i := len(b.writes) - 1; i >= 0; i-- {
		if w := b.writes[i]; w.history == history {
			return w.value
		}
	}

	return history.Latest()
}

func (b *batch) validate(atIndex uint64) error {
	for _, w := range b.writes {
		var err error
		switch {
		case w.store != nil:
			err = w.store.CanAppend(w.account, atIndex)
		default:
			err = w.history.CanPush(atIndex)
		}

		if err != nil {
			return err
		}
	}

	return nil
}
