package state

import (
	"fmt"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// Mint creates the amount and gives it to the account at the current index.
func (s *State) Mint(to database.AccountID, amount uint256.Int) (database.Tx, error) {
	return s.submit(database.NewMintTx(0, to, amount))
}

// Burn destroys the amount from the account at the current index.
func (s *State) Burn(from database.AccountID, amount uint256.Int) (database.Tx, error) {
	return s.submit(database.NewBurnTx(0, from, amount))
}

// Transfer moves the amount between accounts at the current index.
func (s *State) Transfer(from database.AccountID, to database.AccountID, amount uint256.Int) (database.Tx, error) {
	return s.submit(database.NewTransferTx(0, from, to, amount))
}

// Delegate changes the delegate of the account at the current index. An
// empty delegatee removes the delegation.
func (s *State) Delegate(account database.AccountID, delegatee database.AccountID) (database.Tx, error) {
	return s.submit(database.NewDelegateTx(0, account, delegatee))
}

// MineBlock closes the current block and moves the clock to the next one.
func (s *State) MineBlock() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := s.clock.Advance()
	s.evHandler("state: MineBlock: block[%d]", number)

	return number
}

// =============================================================================

// submit stamps the operation with the current index, applies it to the
// ledger and records it in the journal. If the journal write fails the
// operation is reverted, so the ledger never holds an unrecorded operation.
func (s *State) submit(tx database.Tx) (database.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.Index = s.clock.Current()

	snap := s.sheet.Snapshot(tx.From, tx.To)
	s.ledger.Begin()

	if err := s.execute(tx); err != nil {
		s.ledger.Rollback()
		s.sheet.Restore(snap)
		return database.Tx{}, err
	}

	if err := s.db.Write(tx); err != nil {
		s.ledger.Rollback()
		s.sheet.Restore(snap)
		return database.Tx{}, fmt.Errorf("%w: %w", ErrJournal, err)
	}

	s.ledger.Commit()

	s.evHandler("state: %s: index[%d] from[%s] to[%s] amount[%s]", tx.Kind, tx.Index, tx.From, tx.To, tx.Amount)

	if s.autoMine {
		number := s.clock.Advance()
		s.evHandler("state: MineBlock: block[%d]", number)
	}

	return tx, nil
}
