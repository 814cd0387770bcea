package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every block in the ledger.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return validateRun(cmd, opts)
		},
	}
}

// validateRun prints whether the ledger is valid. An invalid ledger is a
// result, not a failure of the command.
func validateRun(cmd *cobra.Command, opts *options) error {
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

	if err := st.Validate(); err != nil {
		pterm.Error.WithWriter(out).Printfln("ledger is invalid: %s", err)
		return nil
	}

	pterm.Success.WithWriter(out).Printfln("ledger is valid: %d blocks", st.Ledger().Len())

	return nil
}
