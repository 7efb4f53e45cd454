package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/voteledger/foundation/blockchain/checkpoint"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// ErrJournal is returned when an applied operation could not be written to
// the journal.
var ErrJournal = errors.New("journal write failed")

// AccountInfo is a summary of an account the ledger has seen.
type AccountInfo struct {
	Account  database.AccountID
	Balance  uint256.Int
	Votes    uint256.Int
	Delegate database.AccountID
}

// =============================================================================

// QueryClock returns the index the next operation is applied at.
func (s *State) QueryClock() uint64 {
	return s.clock.Current()
}

// QueryJournalLatest returns the index of the last journal record and the
// number of records.
func (s *State) QueryJournalLatest() (index uint64, records int) {
	return s.db.Latest()
}

// QueryVotes returns the current voting power of the account.
func (s *State) QueryVotes(account database.AccountID) uint256.Int {
	return s.ledger.Votes(account)
}

// QueryPastVotes returns the voting power of the account at a past index.
func (s *State) QueryPastVotes(account database.AccountID, index uint64) (uint256.Int, error) {
	return s.ledger.PastVotes(account, index)
}

// QueryTotalSupply returns the current total supply.
func (s *State) QueryTotalSupply() uint256.Int {
	return s.ledger.TotalSupply()
}

// QueryPastTotalSupply returns the total supply at a past index.
func (s *State) QueryPastTotalSupply(index uint64) (uint256.Int, error) {
	return s.ledger.PastTotalSupply(index)
}

// QueryBalance returns the current raw balance of the account.
func (s *State) QueryBalance(account database.AccountID) uint256.Int {
	return s.ledger.BalanceOf(account)
}

// QueryPastBalance returns the raw balance of the account at a past index.
func (s *State) QueryPastBalance(account database.AccountID, index uint64) (uint256.Int, error) {
	return s.ledger.PastBalanceOf(account, index)
}

// QueryDelegates returns the current delegate of the account. The empty
// account means the account has no delegate.
func (s *State) QueryDelegates(account database.AccountID) database.AccountID {
	return s.ledger.Delegates(account)
}

// QueryDelegatedSince returns the index the current delegation was set at.
func (s *State) QueryDelegatedSince(account database.AccountID) (uint64, bool) {
	rec, exists := s.ledger.DelegateOf(account)
	return rec.Since, exists
}

// QueryCheckpoints returns the voting power history of the account.
func (s *State) QueryCheckpoints(account database.AccountID) []checkpoint.Checkpoint {
	return s.ledger.PowerHistory(account)
}

// QueryAccounts returns a summary of every account the ledger has seen.
func (s *State) QueryAccounts() []AccountInfo {
	accounts := s.ledger.Accounts()

	out := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, AccountInfo{
			Account:  account,
			Balance:  s.ledger.BalanceOf(account),
			Votes:    s.ledger.Votes(account),
			Delegate: s.ledger.Delegates(account),
		})
	}

	return out
}

// QueryJournalByAccount returns the journal records that involve the
// account. If the account is empty, all records are returned. This function
// reads the journal from storage.
func (s *State) QueryJournalByAccount(account database.AccountID) ([]database.Tx, error) {
	var out []database.Tx

	iter := s.db.ForEach()
	defer iter.Close()

	for tx, err := iter.Next(); !iter.Done(); tx, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if account == "" || tx.From == account || tx.To == account {
			out = append(out, tx)
		}
	}

	return out, nil
}

// Check compares the current ledger totals with each other and with the
// balance sheet. Its cost does not grow with the length of the histories.
func (s *State) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Check(); err != nil {
		return err
	}

	return s.checkSheet()
}

// Audit checks the ledger invariants over every recorded index and that the
// balance sheet agrees with the ledger's raw balances.
func (s *State) Audit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Audit(); err != nil {
		return err
	}

	return s.checkSheet()
}

// checkSheet compares the balance sheet with the ledger's raw balances.
func (s *State) checkSheet() error {
	for account, bal := range s.sheet.Copy() {
		got := s.ledger.BalanceOf(account)
		if !got.Eq(&bal) {
			return fmt.Errorf("balance of %s: sheet %s, ledger %s", account, bal.Dec(), got.Dec())
		}
	}

	sheetSupply := s.sheet.TotalSupply()
	ledgerSupply := s.ledger.TotalSupply()
	if !sheetSupply.Eq(&ledgerSupply) {
		return fmt.Errorf("total supply: sheet %s, ledger %s", sheetSupply.Dec(), ledgerSupply.Dec())
	}

	return nil
}
