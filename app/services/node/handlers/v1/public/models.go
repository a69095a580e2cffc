package public

import (
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
)

type status struct {
	NodeID         string   `json:"nodeId"`
	Name           string   `json:"name"`
	Difficulty     int      `json:"difficulty"`
	MinerReward    float64  `json:"minerReward"`
	ConnectedPeers []string `json:"connectedPeers"`
	worker.Stats
}

type chain struct {
	Length  int              `json:"length"`
	IsValid bool             `json:"isValid"`
	Chain   []database.Block `json:"chain"`
}

type balance struct {
	Address string  `json:"address"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type pending struct {
	Count        int           `json:"count"`
	Transactions []database.Tx `json:"transactions"`
}

type history struct {
	Address      string        `json:"address"`
	Name         string        `json:"name"`
	Transactions []database.Tx `json:"transactions"`
}

type submitted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Hash    string `json:"hash"`
}
