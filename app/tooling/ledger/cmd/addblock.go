package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var transPath string

var addBlockCmd = &cobra.Command{
	Use:   "add-block",
	Short: "Mine a block holding the transactions in a JSON file.",
	Long: `Mine a block holding the transactions in a JSON file.

A coinbase must commit to the height of the new block: its unlocking data
is the height, a colon and the memo, such as "4:Reward to 'bill'".`,
	RunE: addBlockRun,
}

func init() {
	rootCmd.AddCommand(addBlockCmd)
	addBlockCmd.Flags().StringVarP(&transPath, "file", "f", "-", "Path to a JSON array of transactions, - for stdin.")
}

func addBlockRun(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if transPath != "-" {
		f, err := os.Open(transPath)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	trans, err := readTrans(r)
	if err != nil {
		return err
	}

	block, err := db.AddBlock(cmd.Context(), trans)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "block %d mined: %s\n", block.Height, block.Hash)
	return nil
}

// readTrans decodes the transactions and assigns their ids so a caller
// doesn't have to compute them.
func readTrans(r io.Reader) ([]database.Tx, error) {
	var trans []database.Tx
	if err := json.NewDecoder(r).Decode(&trans); err != nil {
		return nil, fmt.Errorf("decoding transactions: %w", err)
	}

	for i, tx := range trans {
		ntx, err := database.NewTx(tx.Inputs, tx.Outputs)
		if err != nil {
			return nil, err
		}

		if tx.ID != "" && tx.ID != ntx.ID {
			return nil, fmt.Errorf("transaction %d id doesn't match content, got %s, exp %s", i, tx.ID, ntx.ID)
		}

		trans[i] = ntx
	}

	return trans, nil
}
