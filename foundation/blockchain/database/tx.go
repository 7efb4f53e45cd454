package database

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// TxKind identifies the ledger operation a journal record represents.
type TxKind string

// Set of operations that can be recorded in the journal.
const (
	TxMint     TxKind = "mint"
	TxBurn     TxKind = "burn"
	TxTransfer TxKind = "transfer"
	TxDelegate TxKind = "delegate"
)

// Tx is a single accepted ledger operation and the sequence index it was
// applied at. Replaying the records in order rebuilds the ledger.
type Tx struct {
	Index  uint64    `json:"index"`
	Kind   TxKind    `json:"kind"`
	From   AccountID `json:"from,omitempty"`
	To     AccountID `json:"to,omitempty"`
	Amount string    `json:"amount,omitempty"`
}

// NewMintTx constructs a record for minting to an account.
func NewMintTx(index uint64, to AccountID, amount uint256.Int) Tx {
	return Tx{Index: index, Kind: TxMint, To: to, Amount: amount.Dec()}
}

// NewBurnTx constructs a record for burning from an account.
func NewBurnTx(index uint64, from AccountID, amount uint256.Int) Tx {
	return Tx{Index: index, Kind: TxBurn, From: from, Amount: amount.Dec()}
}

// NewTransferTx constructs a record for moving balance between accounts.
func NewTransferTx(index uint64, from AccountID, to AccountID, amount uint256.Int) Tx {
	return Tx{Index: index, Kind: TxTransfer, From: from, To: to, Amount: amount.Dec()}
}

// NewDelegateTx constructs a record for a delegation change. An empty to
// account clears the delegation.
func NewDelegateTx(index uint64, account AccountID, delegatee AccountID) Tx {
	return Tx{Index: index, Kind: TxDelegate, From: account, To: delegatee}
}

// Value returns the amount carried by the record.
func (tx Tx) Value() (uint256.Int, error) {
	if tx.Amount == "" {
		return uint256.Int{}, nil
	}

	return ParseAmount(tx.Amount)
}

// Validate checks the record is well formed for its kind.
func (tx Tx) Validate() error {
	switch tx.Kind {
	case TxMint:
		if tx.To.IsZero() {
			return errors.New("mint requires a to account")
		}
	case TxBurn:
		if tx.From.IsZero() {
			return errors.New("burn requires a from account")
		}
	case TxTransfer:
		if tx.From.IsZero() || tx.To.IsZero() {
			return errors.New("transfer requires from and to accounts")
		}
	case TxDelegate:
		if tx.From.IsZero() {
			return errors.New("delegate requires a from account")
		}
		return nil
	default:
		return fmt.Errorf("unknown tx kind %q", tx.Kind)
	}

	if _, err := tx.Value(); err != nil {
		return err
	}

	return nil
}

// BalanceChange is the new raw balance of an account.
type BalanceChange struct {
	Account AccountID
	Balance uint256.Int
}

// =============================================================================

// ParseAmount converts a base 10 string into an amount.
func ParseAmount(s string) (uint256.Int, error) {
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	return *v, nil
}
