package private

import "github.com/vnetwork/vblockchain/foundation/blockchain/peer"

type mining struct {
	Success bool   `json:"success"`
	Mining  bool   `json:"mining"`
	Message string `json:"message"`
}

type vote struct {
	BlockIndex *uint64 `json:"blockIndex"`
	Approve    bool    `json:"approve"`
}

type voteResult struct {
	BlockIndex uint64  `json:"blockIndex"`
	Approved   bool    `json:"approved"`
	Percentage float64 `json:"percentage"`
	Threshold  float64 `json:"threshold"`
}

type syncResult struct {
	Discovered int `json:"discovered"`
	Requested  int `json:"requested"`
}

type peers struct {
	Connected []string    `json:"connected"`
	Known     []peer.Peer `json:"known"`
}
