package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ardanlabs/voteledger/foundation/blockchain/checkpoint"
	"github.com/holiman/uint256"
)

// ErrAudit is returned when the ledger histories disagree with each other.
var ErrAudit = errors.New("ledger audit failed")

// Check compares the current values only: the total supply against the sum
// of raw balances, and the power of all delegates against the balances of
// all delegating accounts. The cost grows with the number of accounts, not
// with the length of the histories.
func (l *Ledger) Check() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var sum uint256.Int
	for _, account := range l.balances.Entities() {
		bal := l.balances.Latest(account)
		sum.Add(&sum, &bal)
	}

	supply := l.supply.Latest()
	if !sum.Eq(&supply) {
		return fmt.Errorf("%w: supply %s, sum of balances %s", ErrAudit, supply.Dec(), sum.Dec())
	}

	var power uint256.Int
	for _, account := range l.power.Entities() {
		p := l.power.Latest(account)
		power.Add(&power, &p)
	}

	var delegated uint256.Int
	for account := range l.delegates.Copy() {
		bal := l.balances.Latest(account)
		delegated.Add(&delegated, &bal)
	}

	if !power.Eq(&delegated) {
		return fmt.Errorf("%w: power %s, delegated balances %s", ErrAudit, power.Dec(), delegated.Dec())
	}

	recorded := l.delegated.Latest()
	if !recorded.Eq(&delegated) {
		return fmt.Errorf("%w: delegated supply %s, delegated balances %s", ErrAudit, recorded.Dec(), delegated.Dec())
	}

	return nil
}

// Audit walks every history and checks the ledger invariants at every
// recorded index: each history is strictly increasing by index, the total
// supply equals the sum of raw balances, and the power of all delegates
// equals the delegated supply. The current state is then checked against
// the delegation table with Check. The cost grows with the number of
// indexes times the number of accounts.
func (l *Ledger) Audit() error {
	if err := l.auditHistories(); err != nil {
		return err
	}

	return l.Check()
}

func (l *Ledger) auditHistories() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	indexes := make(map[uint64]struct{})

	// Every history must be strictly increasing by index.
	check := func(name string, cps []checkpoint.Checkpoint) error {
		for i, cp := range cps {
			if i > 0 && cp.Index <= cps[i-1].Index {
				return fmt.Errorf("%w: %s history not increasing at position %d", ErrAudit, name, i)
			}
			indexes[cp.Index] = struct{}{}
		}
		return nil
	}

	for _, account := range l.balances.Entities() {
		h, _ := l.balances.History(account)
		if err := check("balance of "+string(account), h.Checkpoints()); err != nil {
			return err
		}
	}
	for _, account := range l.power.Entities() {
		h, _ := l.power.History(account)
		if err := check("power of "+string(account), h.Checkpoints()); err != nil {
			return err
		}
	}
	if err := check("total supply", l.supply.Checkpoints()); err != nil {
		return err
	}
	if err := check("delegated supply", l.delegated.Checkpoints()); err != nil {
		return err
	}

	sorted := make([]uint64, 0, len(indexes))
	for idx := range indexes {
		sorted = append(sorted, idx)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, idx := range sorted {

		// The total supply must equal the sum of raw balances.
		var sum uint256.Int
		for _, account := range l.balances.Entities() {
			h, _ := l.balances.History(account)
			bal := h.UpperLookup(idx)
			sum.Add(&sum, &bal)
		}

		supply := l.supply.UpperLookup(idx)
		if !sum.Eq(&supply) {
			return fmt.Errorf("%w: index %d: supply %s, sum of balances %s", ErrAudit, idx, supply.Dec(), sum.Dec())
		}

		// The power of all delegates must equal the delegated supply.
		var power uint256.Int
		for _, account := range l.power.Entities() {
			h, _ := l.power.History(account)
			p := h.UpperLookup(idx)
			power.Add(&power, &p)
		}

		delegated := l.delegated.UpperLookup(idx)
		if !power.Eq(&delegated) {
			return fmt.Errorf("%w: index %d: power %s, delegated supply %s", ErrAudit, idx, power.Dec(), delegated.Dec())
		}
	}

	return nil
}
