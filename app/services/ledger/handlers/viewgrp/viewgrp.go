// Package viewgrp serves a read only html view of the ledger.
package viewgrp

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/web"
)

var index = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Ledger</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.invalid { color: #b00; }
</style>
</head>
<body>
<h1>Ledger</h1>
<p>{{.Blocks}} blocks, difficulty {{.Difficulty}}, algorithm {{.Algorithm}}</p>
{{if .Error}}<p class="invalid">invalid: {{.Error}}</p>{{else}}<p>valid</p>{{end}}
<table>
<tr><th>Index</th><th>Timestamp</th><th>Data</th><th>Nonce</th><th>Prev Hash</th><th>Hash</th></tr>
{{range .Chain}}<tr><td>{{.Index}}</td><td>{{.Timestamp.Format "2006-01-02T15:04:05Z07:00"}}</td><td>{{.Data}}</td><td>{{.Nonce}}</td><td>{{.PrevHash}}</td><td>{{.Hash}}</td></tr>
{{end}}</table>
</body>
</html>
`))

// Handlers manages the set of view endpoints.
type Handlers struct {
	State *state.State
}

// Index renders every block in the ledger along with its validity.
func (h Handlers) Index(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ledger := h.State.Ledger()

	blocks := h.State.QueryBlocks()
	chain := make([]database.BlockData, len(blocks))
	for i, b := range blocks {
		chain[i] = database.NewBlockData(b)
	}

	data := struct {
		Blocks     int
		Difficulty uint
		Algorithm  string
		Error      string
		Chain      []database.BlockData
	}{
		Blocks:     len(chain),
		Difficulty: ledger.Difficulty(),
		Algorithm:  ledger.Algorithm(),
		Chain:      chain,
	}

	if err := h.State.Validate(); err != nil {
		data.Error = err.Error()
	}

	if err := web.SetStatusCode(ctx, http.StatusOK); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := index.Execute(w, data); err != nil {
		return fmt.Errorf("render index: %w", err)
	}

	return nil
}
