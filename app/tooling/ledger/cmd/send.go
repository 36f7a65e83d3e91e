package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	from   string
	to     string
	amount int64
	miner  string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send value between two addresses and mine it into a block.",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&from, "from", "f", "", "Address sending the value.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address receiving the value.")
	sendCmd.Flags().Int64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().StringVarP(&miner, "miner", "m", "", "Address rewarded for mining, the sender when empty.")
	sendCmd.MarkFlagRequired("from")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	tx, err := balance.NewSheet(db, nil).Transfer(from, to, amount)
	if err != nil {
		return err
	}

	beneficiary := miner
	if beneficiary == "" {
		beneficiary = from
	}

	coinbase, err := database.NewCoinbase(beneficiary, "", db.Height()+1)
	if err != nil {
		return err
	}

	block, err := db.AddBlock(cmd.Context(), []database.Tx{coinbase, tx})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "sent %d from '%s' to '%s' in block %d: %s\n", amount, from, to, block.Height, block.Hash)
	return nil
}
