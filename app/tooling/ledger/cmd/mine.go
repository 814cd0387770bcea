package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newMineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mine <data>",
		Short: "Mine a block over the data and append it to the ledger.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mineRun(cmd, opts, args[0])
		},
	}
}

func mineRun(cmd *cobra.Command, opts *options, data string) error {
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

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	ledger := st.Ledger()
	pterm.Info.WithWriter(out).Printfln("mining block %d at difficulty %d", ledger.Len(), ledger.Difficulty())

	block, err := st.MineBlock(ctx, data)
	switch {
	case errors.Is(err, state.ErrSave):
		pterm.Error.WithWriter(out).Printfln("block %d mined but not saved: %s", block.Index(), err)
		return err

	case err != nil:
		pterm.Error.WithWriter(out).Printfln("block not mined: %s", err)
		return nil
	}

	pterm.Success.WithWriter(out).Printfln("mined block %d: nonce %d: hash %s", block.Index(), block.Nonce(), block.Hash())

	return nil
}
