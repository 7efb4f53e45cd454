// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/voteledger/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/voteledger/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/voteledger/foundation/blockchain/state"
	"github.com/ardanlabs/voteledger/foundation/events"
	"github.com/ardanlabs/voteledger/foundation/nameservice"
	"github.com/ardanlabs/voteledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/clock", pbl.Clock)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/balances/:account", pbl.Balance)
	app.Handle(http.MethodGet, version, "/balances/:account/past/:index", pbl.PastBalance)
	app.Handle(http.MethodGet, version, "/votes/:account", pbl.Votes)
	app.Handle(http.MethodGet, version, "/votes/:account/past/:index", pbl.PastVotes)
	app.Handle(http.MethodGet, version, "/supply", pbl.Supply)
	app.Handle(http.MethodGet, version, "/supply/past/:index", pbl.PastSupply)
	app.Handle(http.MethodGet, version, "/delegates/:account", pbl.Delegates)
	app.Handle(http.MethodGet, version, "/checkpoints/:account", pbl.Checkpoints)
	app.Handle(http.MethodGet, version, "/journal/list", pbl.Journal)
	app.Handle(http.MethodGet, version, "/journal/list/:account", pbl.Journal)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
	}

	app.Handle(http.MethodPost, version, "/token/mint", prv.Mint)
	app.Handle(http.MethodPost, version, "/token/burn", prv.Burn)
	app.Handle(http.MethodPost, version, "/token/transfer", prv.Transfer)
	app.Handle(http.MethodPost, version, "/delegate", prv.Delegate)
	app.Handle(http.MethodPost, version, "/blocks/mine", prv.MineBlock)
}
