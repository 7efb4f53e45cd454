// Package state is the core API for the ledger node and implements all the
// business rules and processing.
package state

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/voteledger/foundation/blockchain/clock"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/voteledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/voteledger/foundation/blockchain/token"
)

// EventHandler defines a function that is called when events
// occur in the processing of ledger operations.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for producing blocks.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Config represents the configuration required to start
// the ledger node.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Serializer
	AutoMine  bool
	EvHandler EventHandler
}

// State manages the ledger and the journal backing it.
type State struct {
	mu        sync.Mutex
	autoMine  bool
	evHandler EventHandler

	genesis genesis.Genesis
	clock   *clock.Block
	db      *database.Database
	sheet   *token.Sheet
	ledger  *ledger.Ledger

	Worker Worker
}

// New constructs the node state. An empty journal is seeded from the genesis
// information at index 0, otherwise the journal is replayed to rebuild the
// ledger. The clock resumes one past the last recorded index.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("state requires storage")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	maxSupply, err := cfg.Genesis.Supply()
	if err != nil {
		return nil, err
	}

	clk := clock.New(0)

	ldgr, err := ledger.New(ledger.Config{
		Clock:     clk,
		MaxSupply: maxSupply,
		EvHandler: ledger.EventHandler(ev),
	})
	if err != nil {
		return nil, err
	}

	// Capture the latest index and the number of records in the journal.
	db, err := database.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	state := State{
		autoMine:  cfg.AutoMine,
		evHandler: ev,

		genesis: cfg.Genesis,
		clock:   clk,
		db:      db,
		sheet:   token.NewSheet(ldgr),
		ledger:  ldgr,
	}

	switch _, records := db.Latest(); records {
	case 0:
		if err := state.applyGenesis(); err != nil {
			return nil, fmt.Errorf("apply genesis: %w", err)
		}

	default:
		if err := state.replay(); err != nil {
			return nil, fmt.Errorf("replay journal: %w", err)
		}
	}

	latest, records := db.Latest()
	if err := clk.Restore(latest + 1); err != nil {
		return nil, err
	}

	ev("state: New: journal records[%d] latest index[%d] clock[%d]", records, latest, clk.Current())

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the journal is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all block production.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// IsAutoMine reports whether the clock moves after every accepted operation.
func (s *State) IsAutoMine() bool {
	return s.autoMine
}

// =============================================================================

// applyGenesis mints the initial balances and applies the initial
// delegations at index 0, writing each operation to the journal.
func (s *State) applyGenesis() error {
	allocs, err := s.genesis.Allocations()
	if err != nil {
		return err
	}

	dels, err := s.genesis.Delegates()
	if err != nil {
		return err
	}

	var txs []database.Tx
	for _, alloc := range allocs {
		txs = append(txs, database.NewMintTx(0, alloc.Account, alloc.Amount))
	}
	for _, del := range dels {
		if del.Delegatee.IsZero() {
			continue
		}
		txs = append(txs, database.NewDelegateTx(0, del.Account, del.Delegatee))
	}

	for _, tx := range txs {
		if err := s.execute(tx); err != nil {
			return err
		}
	}

	// Every operation is applied before any is recorded so a rejected
	// genesis leaves nothing in the journal.
	for _, tx := range txs {
		if err := s.db.Write(tx); err != nil {
			if rerr := s.db.Reset(); rerr != nil {
				return fmt.Errorf("%w, reset journal: %v", err, rerr)
			}
			return err
		}
	}

	s.evHandler("state: applyGenesis: chain[%d] balances[%d] delegations[%d]", s.genesis.ChainID, len(allocs), len(dels))

	return nil
}

// replay re-applies every journal record in order.
func (s *State) replay() error {
	var n int

	iter := s.db.ForEach()
	defer iter.Close()

	for tx, err := iter.Next(); !iter.Done(); tx, err = iter.Next() {
		if err != nil {
			return err
		}

		if err := s.execute(tx); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
		n++
	}

	s.evHandler("state: replay: records[%d]", n)

	return nil
}

// execute applies a single journal record to the balance sheet or the
// ledger at the record's index.
func (s *State) execute(tx database.Tx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	amount, err := tx.Value()
	if err != nil {
		return err
	}

	switch tx.Kind {
	case database.TxMint:
		return s.sheet.Mint(tx.To, amount, tx.Index)

	case database.TxBurn:
		return s.sheet.Burn(tx.From, amount, tx.Index)

	case database.TxTransfer:
		return s.sheet.Transfer(tx.From, tx.To, amount, tx.Index)

	case database.TxDelegate:
		return s.ledger.Delegate(tx.From, tx.To, tx.Index)
	}

	return fmt.Errorf("unknown tx kind %q", tx.Kind)
}
