package cmd

import (
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Print the balance and unspent outputs of an address.",
	Args:  cobra.ExactArgs(1),
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	address := args[0]

	sheet := balance.NewSheet(db, nil)

	outs, err := sheet.UTXO(address)
	if err != nil {
		return err
	}

	total, err := sheet.Balance(address)
	if err != nil {
		return err
	}

	for _, out := range outs {
		fmt.Fprintf(cmd.OutOrStdout(), "utxo: %d\n", out.Value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Balance of '%s': %d\n", address, total)

	return nil
}
