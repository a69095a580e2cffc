package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type balance struct {
	Address string  `json:"address"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	w, err := loadWallet()
	if err != nil {
		return err
	}

	bal, err := getBalance(w.Address())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "For Address:", bal.Address)
	fmt.Fprintf(out, "%.2f V\n", bal.Balance)

	return nil
}

func getBalance(address string) (balance, error) {
	var bal balance
	if err := get(fmt.Sprintf("%s/v1/balance/%s", nodeURL, url.PathEscape(address)), &bal); err != nil {
		return balance{}, err
	}

	return bal, nil
}
