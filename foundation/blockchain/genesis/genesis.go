// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// DefaultPath is where the node looks for the genesis file.
const DefaultPath = "zblock/genesis.json"

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time         `json:"date"`
	ChainID     uint16            `json:"chain_id"`    // The chain id represents an unique id for this running instance.
	MaxSupply   string            `json:"max_supply"`  // Largest total supply the ledger accepts, empty means 2^224-1.
	Balances    map[string]string `json:"balances"`    // Initial raw balances minted at index 0.
	Delegations map[string]string `json:"delegations"` // Initial delegations applied at index 0.
}

// Allocation is a single genesis balance in account order.
type Allocation struct {
	Account database.AccountID
	Amount  uint256.Int
}

// Delegation is a single genesis delegation in account order.
type Delegation struct {
	Account   database.AccountID
	Delegatee database.AccountID
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	if path == "" {
		path = DefaultPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	if _, err := genesis.Supply(); err != nil {
		return Genesis{}, err
	}

	if _, err := genesis.Allocations(); err != nil {
		return Genesis{}, err
	}

	if _, err := genesis.Delegates(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Supply returns the configured maximum supply. A zero value means the
// ledger default applies.
func (g Genesis) Supply() (uint256.Int, error) {
	if g.MaxSupply == "" {
		return uint256.Int{}, nil
	}

	limit, err := database.ParseAmount(g.MaxSupply)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("genesis max supply: %w", err)
	}

	return limit, nil
}

// Allocations returns the initial balances sorted by account so they are
// always applied in the same order.
func (g Genesis) Allocations() ([]Allocation, error) {
	allocs := make([]Allocation, 0, len(g.Balances))
	for acct, amt := range g.Balances {
		accountID, err := database.ToAccountID(acct)
		if err != nil || accountID.IsZero() {
			return nil, fmt.Errorf("genesis balance account %q: invalid account", acct)
		}

		amount, err := database.ParseAmount(amt)
		if err != nil {
			return nil, fmt.Errorf("genesis balance %s: %w", accountID, err)
		}

		allocs = append(allocs, Allocation{Account: accountID, Amount: amount})
	}

	sort.Slice(allocs, func(i, j int) bool {
		return allocs[i].Account < allocs[j].Account
	})

	return allocs, nil
}

// Delegates returns the initial delegations sorted by account.
func (g Genesis) Delegates() ([]Delegation, error) {
	dels := make([]Delegation, 0, len(g.Delegations))
	for acct, to := range g.Delegations {
		accountID, err := database.ToAccountID(acct)
		if err != nil || accountID.IsZero() {
			return nil, fmt.Errorf("genesis delegation account %q: invalid account", acct)
		}

		delegatee, err := database.ToAccountID(to)
		if err != nil {
			return nil, fmt.Errorf("genesis delegatee %q: %w", to, err)
		}

		dels = append(dels, Delegation{Account: accountID, Delegatee: delegatee})
	}

	sort.Slice(dels, func(i, j int) bool {
		return dels[i].Account < dels[j].Account
	})

	return dels, nil
}
