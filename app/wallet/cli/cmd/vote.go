package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	privateURL string
	blockIndex int64
	reject     bool
)

type voteRequest struct {
	BlockIndex *uint64 `json:"blockIndex,omitempty"`
	Approve    bool    `json:"approve"`
}

type voteResult struct {
	BlockIndex uint64  `json:"blockIndex"`
	Approved   bool    `json:"approved"`
	Percentage float64 `json:"percentage"`
	Threshold  float64 `json:"threshold"`
}

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast the node's vote on a block.",
	RunE:  voteRun,
}

func init() {
	rootCmd.AddCommand(voteCmd)
	voteCmd.Flags().StringVar(&privateURL, "private-url", "http://localhost:9080", "Url of the node's private api.")
	voteCmd.Flags().Int64VarP(&blockIndex, "block", "b", -1, "Index of the block, the latest block when negative.")
	voteCmd.Flags().BoolVarP(&reject, "reject", "r", false, "Vote against the block.")
}

func voteRun(cmd *cobra.Command, args []string) error {
	req := voteRequest{Approve: !reject}
	if blockIndex >= 0 {
		idx := uint64(blockIndex)
		req.BlockIndex = &idx
	}

	var res voteResult
	if err := post(privateURL+"/v1/vote", req, &res); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Block %d: %.1f%% approving, threshold %.1f%%\n", res.BlockIndex, res.Percentage, res.Threshold)

	if !res.Approved {
		color.Yellow("Block not approved yet")
		return nil
	}
	color.Green("Block approved")

	return nil
}
