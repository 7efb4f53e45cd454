// Package private maintains the group of handlers for node to node and
// operator access.
package private

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ardanlabs/voteledger/business/web/errs"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
	"github.com/ardanlabs/voteledger/foundation/nameservice"
	"github.com/ardanlabs/voteledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger mutation endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
}

// Mint creates tokens for an account.
func (h Handlers) Mint(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mintRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	to, err := h.resolve("to", req.To)
	if err != nil {
		return err
	}

	amount, err := database.ParseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("mint", "traceid", web.GetTraceID(ctx), "to", to, "amount", req.Amount)

	tx, err := h.State.Mint(to, amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Burn destroys tokens held by an account.
func (h Handlers) Burn(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req burnRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	from, err := h.resolve("from", req.From)
	if err != nil {
		return err
	}

	amount, err := database.ParseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("burn", "traceid", web.GetTraceID(ctx), "from", from, "amount", req.Amount)

	tx, err := h.State.Burn(from, amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Transfer moves tokens between accounts.
func (h Handlers) Transfer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req transferRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	from, err := h.resolve("from", req.From)
	if err != nil {
		return err
	}

	to, err := h.resolve("to", req.To)
	if err != nil {
		return err
	}

	amount, err := database.ParseAmount(req.Amount)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("transfer", "traceid", web.GetTraceID(ctx), "from", from, "to", to, "amount", req.Amount)

	tx, err := h.State.Transfer(from, to, amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Delegate changes the delegate of an account.
func (h Handlers) Delegate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req delegateRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	account, err := h.resolve("account", req.Account)
	if err != nil {
		return err
	}

	var delegatee database.AccountID
	if req.Delegatee != "" {
		if delegatee, err = h.resolve("delegatee", req.Delegatee); err != nil {
			return err
		}
	}

	h.Log.Infow("delegate", "traceid", web.GetTraceID(ctx), "account", account, "delegatee", delegatee)

	tx, err := h.State.Delegate(account, delegatee)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// MineBlock closes the current block.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index := h.State.MineBlock()

	return web.Respond(ctx, w, mineResponse{Index: index}, http.StatusOK)
}

// =============================================================================

// resolve converts a name or hex encoded account from a request field.
func (h Handlers) resolve(field string, nameOrAccount string) (database.AccountID, error) {
	accountID, err := h.NS.Resolve(nameOrAccount)
	if err != nil {
		return "", errs.NewTrusted(fmt.Errorf("%s: %w", field, err), http.StatusBadRequest)
	}

	return accountID, nil
}
