package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vnetwork/vblockchain/foundation/blockchain/registry"
)

var registryURL string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the network totals kept by the registry.",
	RunE:  statsRun,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVarP(&registryURL, "registry", "r", "http://localhost:3000", "Url of the registry.")
}

func statsRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := registry.NewClient(registryURL, 10*time.Second).NetworkStats(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Nodes:    ", stats.TotalNodes)
	fmt.Fprintln(out, "Active:   ", stats.ActiveNodes)
	fmt.Fprintln(out, "Addresses:", stats.TotalAddresses)
	fmt.Fprintf(out, "Total:     %.2f V\n", stats.TotalV)

	return nil
}
