package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print every block in the ledger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showRun(cmd, opts)
		},
	}
}

func showRun(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()

	log, err := opts.newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := opts.openState(out, log)
	if err != nil {
		return err
	}

	ledger := st.Ledger()
	pterm.Info.WithWriter(out).Printfln("%s: %d blocks, difficulty %d, algorithm %s", opts.file, ledger.Len(), ledger.Difficulty(), ledger.Algorithm())

	td := pterm.TableData{
		{"Index", "Timestamp", "Data", "Nonce", "Prev Hash", "Hash"},
	}
	for _, b := range st.QueryBlocks() {
		td = append(td, []string{
			strconv.FormatUint(b.Index(), 10),
			b.Timestamp().Format(time.RFC3339),
			fmt.Sprintf("%q", b.Data()),
			strconv.FormatUint(b.Nonce(), 10),
			b.PrevHash(),
			b.Hash(),
		})
	}

	return pterm.DefaultTable.WithHasHeader().WithData(td).WithWriter(out).Render()
}
