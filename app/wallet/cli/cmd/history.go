package cmd

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
)

type history struct {
	Address      string        `json:"address"`
	Transactions []database.Tx `json:"transactions"`
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the transactions of your wallet.",
	RunE:  historyRun,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	var hist history
	if err := get(fmt.Sprintf("%s/v1/tx/history/%s", nodeURL, url.PathEscape(w.Address())), &hist); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, tx := range hist.Transactions {
		dir := "IN "
		if tx.Sender == w.Address() {
			dir = "OUT"
		}
		ts := time.UnixMilli(tx.Timestamp).UTC().Format(time.RFC3339)
		fmt.Fprintf(out, "%s  %s  %s -> %s  %.2f V\n", dir, ts, tx.Sender, tx.Receiver, tx.Amount)
	}

	return nil
}
