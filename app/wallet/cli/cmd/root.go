// Package cmd contains the wallet app.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/vnetwork/vblockchain/foundation/blockchain/wallet"
)

var (
	accountName string
	accountPath string
	nodeURL     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Your simple V wallet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("ERROR: %s", err)
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := strings.TrimSuffix(accountName, wallet.KeyExtension)
	return filepath.Join(accountPath, name+wallet.KeyExtension)
}

func loadWallet() (wallet.Wallet, error) {
	return wallet.Load(getPrivateKeyPath())
}
