// Package cmd contains the ledger app.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
	"github.com/ardanlabs/ledger/foundation/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// options holds the values of the persistent flags.
type options struct {
	file        string
	genesisFile string
	difficulty  uint
	algorithm   string
	workers     int
	maxAttempts uint64
	timeout     time.Duration
	verbose     bool
}

// Execute runs the ledger app and exits with a non-zero code when a
// command fails to persist the ledger or the flags are invalid.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:           "ledger",
		Short:         "A hash-chained proof-of-work ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.file, "file", "f", "blockchain.json", "Path to the ledger file.")
	flags.StringVarP(&opts.genesisFile, "genesis", "g", "", "Path to a genesis file used when starting a new ledger.")
	flags.UintVarP(&opts.difficulty, "difficulty", "d", 2, "Leading zeros required when starting a new ledger.")
	flags.StringVarP(&opts.algorithm, "algorithm", "a", signature.DefaultAlgorithm, fmt.Sprintf("Hash algorithm when starting a new ledger %v.", signature.Algorithms()))
	flags.IntVarP(&opts.workers, "workers", "w", 0, "Number of mining goroutines, 0 mines on a single goroutine.")
	flags.Uint64Var(&opts.maxAttempts, "max-attempts", 0, "Maximum hashes to try when mining, 0 means no limit.")
	flags.DurationVarP(&opts.timeout, "timeout", "t", 0, "Maximum time to spend mining, 0 means no limit.")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log mining events to stderr.")

	rootCmd.AddCommand(newMineCmd(&opts))
	rootCmd.AddCommand(newShowCmd(&opts))
	rootCmd.AddCommand(newValidateCmd(&opts))

	return rootCmd
}

// =============================================================================

// newLogger constructs the logger used for ledger events. Events are only
// written when verbose is set.
func (o *options) newLogger() (*zap.SugaredLogger, error) {
	level := zapcore.WarnLevel
	if o.verbose {
		level = zapcore.DebugLevel
	}

	return logger.NewAtLevel("LEDGER", level, "stderr")
}

// genesis returns the settings used to start a new ledger.
func (o *options) genesis() (genesis.Genesis, error) {
	if o.genesisFile != "" {
		return genesis.Load(o.genesisFile)
	}

	if _, err := signature.Lookup(o.algorithm); err != nil {
		return genesis.Genesis{}, err
	}

	gen := genesis.Default(o.difficulty)
	gen.Algorithm = o.algorithm

	return gen, nil
}

// openState loads the ledger from the file. A ledger that can't be loaded
// is replaced with a new one and the reason is printed.
func (o *options) openState(out io.Writer, log *zap.SugaredLogger) (*state.State, error) {
	gen, err := o.genesis()
	if err != nil {
		return nil, err
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...), "file", o.file)
	}

	st, err := state.New(state.Config{
		Genesis:     gen,
		Storage:     disk.New(o.file),
		Workers:     o.workers,
		MaxAttempts: o.maxAttempts,
		EvHandler:   ev,
	})
	if err != nil {
		return nil, err
	}

	if err := st.LoadError(); err != nil && !errors.Is(err, storage.ErrNotFound) {
		pterm.Warning.WithWriter(out).Printfln("unable to load %s, starting a new ledger: %s", o.file, err)
	}

	return st, nil
}
