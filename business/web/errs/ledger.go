package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// StatusClientClosedRequest is reported when the client went away before
// the request finished. net/http has no constant for it.
const StatusClientClosedRequest = 499

// FromLedger maps the errors returned by the ledger into trusted errors
// carrying the status the client should see. Errors the client can't act
// on are returned unchanged and will be reported as internal errors.
func FromLedger(err error) error {
	if err == nil {
		return nil
	}

	var status int
	switch {
	case database.IsRejection(err):
		status = http.StatusConflict
	case errors.Is(err, database.ErrBlockNotFound):
		status = http.StatusNotFound
	case errors.Is(err, database.ErrBudgetExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = StatusClientClosedRequest
	default:
		return err
	}

	te := Trusted{Err: err, Status: status}

	var be *database.BlockError
	if errors.As(err, &be) {
		index := be.Index
		te.Index = &index
	}

	return &te
}
