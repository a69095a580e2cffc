package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
)

var force bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing private key.")
}

func generateRun(cmd *cobra.Command, args []string) error {
	path := getPrivateKeyPath()

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("private key %s already exists", path)
	}

	w, err := wallet.Generate(accountName)
	if err != nil {
		return err
	}

	if err := w.Save(path); err != nil {
		return err
	}

	color.Green("Wallet generated: %s", path)
	fmt.Fprintln(cmd.OutOrStdout(), w.Address())

	return nil
}
