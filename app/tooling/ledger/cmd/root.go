// Package cmd contains the ledger commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dbPath      string
	genesisPath string
)

// Values opened by the root command for the command being run.
var (
	log *zap.SugaredLogger
	db  *database.Database
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "zblock/blocks", "Path to the ledger database.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
}

var rootCmd = &cobra.Command{
	Use:               "ledger",
	Short:             "Append to and read a proof of work ledger",
	SilenceUsage:      true,
	PersistentPreRunE: openLedger,
	PersistentPostRun: closeLedger,
}

// Execute runs the command selected on the command line. An interrupt
// cancels any mining in progress.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if log != nil {
			log.Errorw("ledger", "ERROR", err)
		}
		closeLedger(rootCmd, nil)
		os.Exit(1)
	}
}

// openLedger builds the logger and opens the ledger, mining the genesis
// block on first use.
func openLedger(cmd *cobra.Command, args []string) error {
	var err error
	log, err = logger.New("LEDGER", "stderr")
	if err != nil {
		return err
	}

	traceID := uuid.NewString()
	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...), "traceid", traceID)
	}

	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	strg, err := disk.New(dbPath)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	db, err = database.New(strg, gen, ev)
	if err != nil {
		strg.Close()
		return fmt.Errorf("opening ledger: %w", err)
	}

	return nil
}

// closeLedger releases the ledger opened by openLedger.
func closeLedger(cmd *cobra.Command, args []string) {
	if db != nil {
		if err := db.Close(); err != nil {
			log.Errorw("ledger", "status", "closing ledger", "ERROR", err)
		}
		db = nil
	}

	if log != nil {
		log.Sync()
	}
}
