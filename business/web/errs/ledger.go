package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ardanlabs/voteledger/foundation/blockchain/ledger"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
	"github.com/ardanlabs/voteledger/foundation/blockchain/token"
	"github.com/ardanlabs/voteledger/foundation/web"
)

// FromLedger converts an error returned by the ledger node into an error the
// web layer knows how to respond with. Bookkeeping failures shut the node
// down since the in-memory ledger can no longer be trusted.
func FromLedger(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, ledger.ErrNegativePowerInvariant), errors.Is(err, state.ErrJournal):
		return web.NewShutdownError(fmt.Sprintf("ledger integrity: %s", err))

	case errors.Is(err, ledger.ErrOutOfOrderWrite):
		return NewTrusted(err, http.StatusConflict)

	case errors.Is(err, ledger.ErrFutureIndexQuery),
		errors.Is(err, ledger.ErrSupplyOverflow),
		errors.Is(err, token.ErrInsufficientBalance),
		errors.Is(err, token.ErrZeroAccount),
		errors.Is(err, token.ErrBalanceOverflow):
		return NewTrusted(err, http.StatusBadRequest)
	}

	return err
}
