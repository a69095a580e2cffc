package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount float64
)

type submitted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Hash    string `json:"hash"`
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the receiver.")
	sendCmd.Flags().Float64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.MarkFlagRequired("amount")
}

func sendRun(cmd *cobra.Command, args []string) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be greater than zero")
	}

	w, err := loadWallet()
	if err != nil {
		return err
	}

	// The node doesn't check for overspending so the wallet does.
	bal, err := getBalance(w.Address())
	if err != nil {
		return err
	}

	if bal.Balance < amount {
		return fmt.Errorf("insufficient balance: have %.2f V, need %.2f V", bal.Balance, amount)
	}

	tx, err := w.NewTransaction(to, amount)
	if err != nil {
		return err
	}

	var resp submitted
	if err := post(nodeURL+"/v1/tx/submit", tx, &resp); err != nil {
		return err
	}

	color.Green("%s", resp.Message)
	fmt.Fprintln(cmd.OutOrStdout(), resp.Hash)

	return nil
}
