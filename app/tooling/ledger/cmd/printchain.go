package cmd

import (
	"encoding/json"
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var printChainCmd = &cobra.Command{
	Use:   "print-chain",
	Short: "Print every block from the tip to the genesis block.",
	RunE:  printChainRun,
}

func init() {
	rootCmd.AddCommand(printChainCmd)
}

func printChainRun(cmd *cobra.Command, args []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	iter := db.ForEach()
	for {
		block, err := iter.Next()
		if errors.Is(err, database.ErrEndOfChain) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := enc.Encode(block); err != nil {
			return err
		}
	}
}
