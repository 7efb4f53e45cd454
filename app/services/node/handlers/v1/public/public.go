// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"time"

	"github.com/ardanlabs/voteledger/business/web/errs"
	"github.com/ardanlabs/voteledger/foundation/blockchain/database"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
	"github.com/ardanlabs/voteledger/foundation/events"
	"github.com/ardanlabs/voteledger/foundation/nameservice"
	"github.com/ardanlabs/voteledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger query endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Block waiting for events from the ledger or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Clock returns the index the next operation will be applied at.
func (h Handlers) Clock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	_, records := h.State.QueryJournalLatest()

	resp := clock{
		Index:    h.State.QueryClock(),
		AutoMine: h.State.IsAutoMine(),
		Records:  records,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Genesis(), http.StatusOK)
}

// Accounts returns every account the ledger has seen.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	infos := h.State.QueryAccounts()

	accts := make([]account, len(infos))
	for i, info := range infos {
		accts[i] = toAccount(info, h.NS.Lookup(info.Account))
	}

	return web.Respond(ctx, w, accts, http.StatusOK)
}

// Balance returns the current raw balance of an account.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	bal := h.State.QueryBalance(accountID)

	return web.Respond(ctx, w, amount{Account: accountID, Amount: bal.Dec()}, http.StatusOK)
}

// PastBalance returns the raw balance of an account at a past index.
func (h Handlers) PastBalance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	index, err := pastIndex(r)
	if err != nil {
		return err
	}

	bal, err := h.State.QueryPastBalance(accountID, index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, amount{Account: accountID, Index: &index, Amount: bal.Dec()}, http.StatusOK)
}

// Votes returns the current voting power of an account.
func (h Handlers) Votes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	votes := h.State.QueryVotes(accountID)

	return web.Respond(ctx, w, amount{Account: accountID, Amount: votes.Dec()}, http.StatusOK)
}

// PastVotes returns the voting power of an account at a past index.
func (h Handlers) PastVotes(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	index, err := pastIndex(r)
	if err != nil {
		return err
	}

	votes, err := h.State.QueryPastVotes(accountID, index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, amount{Account: accountID, Index: &index, Amount: votes.Dec()}, http.StatusOK)
}

// Supply returns the current total supply.
func (h Handlers) Supply(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	supply := h.State.QueryTotalSupply()

	return web.Respond(ctx, w, amount{Amount: supply.Dec()}, http.StatusOK)
}

// PastSupply returns the total supply at a past index.
func (h Handlers) PastSupply(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := pastIndex(r)
	if err != nil {
		return err
	}

	supply, err := h.State.QueryPastTotalSupply(index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, amount{Index: &index, Amount: supply.Dec()}, http.StatusOK)
}

// Delegates returns the current delegate of an account.
func (h Handlers) Delegates(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	resp := delegation{
		Account:  accountID,
		Delegate: h.State.QueryDelegates(accountID),
	}
	if since, exists := h.State.QueryDelegatedSince(accountID); exists {
		resp.Since = &since
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Checkpoints returns the voting power history of an account.
func (h Handlers) Checkpoints(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	accountID, err := h.account(r)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toPoints(h.State.QueryCheckpoints(accountID)), http.StatusOK)
}

// Journal returns the journal records for an account, or every record when
// no account is provided.
func (h Handlers) Journal(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var accountID database.AccountID
	if web.Param(r, "account") != "" {
		var err error
		if accountID, err = h.account(r); err != nil {
			return err
		}
	}

	txs, err := h.State.QueryJournalByAccount(accountID)
	if err != nil {
		return err
	}

	if len(txs) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// =============================================================================

// account resolves the account parameter, which can be a known name or a
// hex encoded account.
func (h Handlers) account(r *http.Request) (database.AccountID, error) {
	accountID, err := h.NS.Resolve(web.Param(r, "account"))
	if err != nil {
		return "", errs.NewTrusted(err, http.StatusBadRequest)
	}

	return accountID, nil
}

// pastIndex parses the index parameter.
func pastIndex(r *http.Request) (uint64, error) {
	index, err := web.ParamUint64(r, "index")
	if err != nil {
		return 0, errs.NewTrusted(err, http.StatusBadRequest)
	}

	return index, nil
}
