// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"
	"time"

	"github.com/ardanlabs/ledger/app/services/ledger/handlers/v1/ledgergrp"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	State       *state.State
	Evts        *events.Events
	MineTimeout time.Duration
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	lgh := ledgergrp.Handlers{
		Log:         cfg.Log,
		State:       cfg.State,
		WS:          websocket.Upgrader{},
		Evts:        cfg.Evts,
		MineTimeout: cfg.MineTimeout,
	}

	app.Handle(http.MethodGet, version, "/events", lgh.Events)
	app.Handle(http.MethodGet, version, "/status", lgh.Status)
	app.Handle(http.MethodGet, version, "/validate", lgh.Validate)
	app.Handle(http.MethodGet, version, "/blocks", lgh.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", lgh.BlocksByIndex)
	app.Handle(http.MethodGet, version, "/blocks/:index", lgh.BlockByIndex)
	app.Handle(http.MethodPost, version, "/blocks", lgh.Mine)
	app.Handle(http.MethodPost, version, "/blocks/propose", lgh.ProposeBlock)
}
