// Package ledgergrp maintains the group of handlers for ledger access.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/business/web/errs"
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/events"
	"github.com/ardanlabs/ledger/foundation/validate"
	"github.com/ardanlabs/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// maxBodyBytes limits the size of a request body that is decoded.
const maxBodyBytes = 64 << 10

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log         *zap.SugaredLogger
	State       *state.State
	WS          websocket.Upgrader
	Evts        *events.Events
	MineTimeout time.Duration
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
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

// Status returns the current status of the ledger.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ledger := h.State.Ledger()
	head := ledger.Head()

	status := Status{
		Blocks:     ledger.Len(),
		Difficulty: ledger.Difficulty(),
		Algorithm:  ledger.Algorithm(),
		HeadIndex:  head.Index(),
		HeadHash:   head.Hash(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// Validate walks the ledger and reports the first block that fails.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := Validation{
		Valid:  true,
		Blocks: h.State.Ledger().Len(),
	}

	if err := h.State.Validate(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()

		var be *database.BlockError
		if errors.As(err, &be) {
			index := be.Index
			resp.Index = &index
		}
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Blocks returns every block in the ledger.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toBlockData(h.State.QueryBlocks()), http.StatusOK)
}

// BlockByIndex returns the block at the specified index.
func (h Handlers) BlockByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := parseIndex(web.Param(r, "index"))
	if err != nil {
		return err
	}

	block, err := h.State.QueryBlockByIndex(index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusOK)
}

// BlocksByIndex returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByIndex(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := parseIndex(web.Param(r, "from"))
	if err != nil {
		return err
	}
	to, err := parseIndex(web.Param(r, "to"))
	if err != nil {
		return err
	}

	// Compare the range using the head's index in place of latest.
	head := h.State.Ledger().Head().Index()
	if from == state.QueryLatest {
		from = head
	}
	if to == state.QueryLatest {
		to = head
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByIndex(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toBlockData(blocks), http.StatusOK)
}

// Mine builds a new block over the data, solves the proof-of-work and
// appends the block to the ledger.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var nb NewBlock
	if err := web.Decode(r, &nb); err != nil {
		return badRequest(err)
	}

	if h.MineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.MineTimeout)
		defer cancel()
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "data", len(nb.Data))

	block, err := h.State.MineBlock(ctx, nb.Data)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusCreated)
}

// ProposeBlock takes a block mined elsewhere, validates it and if that
// passes, adds the block to the ledger.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var pb ProposedBlock
	if err := web.Decode(r, &pb); err != nil {
		return badRequest(err)
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "index", pb.Index, "hash", pb.Hash)

	block, err := h.State.ProposeBlock(pb.toBlockData())
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, database.NewBlockData(block), http.StatusCreated)
}

// =============================================================================

func toBlockData(blocks []database.Block) []database.BlockData {
	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}
	return blockData
}

// parseIndex converts a path parameter into a block index. The value
// "latest" refers to the head of the ledger.
func parseIndex(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}

	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid block index %q", s), http.StatusBadRequest)
	}

	return index, nil
}

// badRequest keeps field errors intact for the error middleware and turns
// any other decode failure into a client error.
func badRequest(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}
	return errs.NewTrusted(err, http.StatusBadRequest)
}
