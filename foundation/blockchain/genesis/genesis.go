// Package genesis maintains access to the chain parameters a new ledger
// is created with.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Default chain parameters.
const (
	DefaultDifficulty    = 2
	DefaultVoteThreshold = 66.7
	DefaultMinerReward   = 10
	DefaultWelcomeBonus  = 50
)

// Genesis represents the genesis file.
type Genesis struct {
	Date          time.Time `json:"date"`
	Difficulty    int       `json:"difficulty"`     // Number of leading zeros a block hash must have.
	VoteThreshold float64   `json:"vote_threshold"` // Percentage of approving votes a voted block needs.
	MinerReward   float64   `json:"miner_reward"`   // Reward for mining a block.
	WelcomeBonus  float64   `json:"welcome_bonus"`  // Balance credited to the node address of a new ledger.
}

// Default returns the parameters used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Date:          time.Now().UTC(),
		Difficulty:    DefaultDifficulty,
		VoteThreshold: DefaultVoteThreshold,
		MinerReward:   DefaultMinerReward,
		WelcomeBonus:  DefaultWelcomeBonus,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Any parameter left out of the
// file takes its default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
