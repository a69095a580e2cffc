package database

import (
	"strings"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/signature"
)

// Block represents a group of transactions batched together. The votes are
// not part of the block's identity and are excluded from its hash.
type Block struct {
	Index        uint64          `json:"index"`
	Transactions []Tx            `json:"transactions"`
	PreviousHash string          `json:"previousHash"`
	Timestamp    int64           `json:"timestamp"`
	Miner        string          `json:"miner"`
	Nonce        uint64          `json:"nonce"`
	Votes        map[string]bool `json:"votes"`
}

// blockHeader is the portion of a block that is hashed.
type blockHeader struct {
	Index        uint64 `json:"index"`
	Transactions []Tx   `json:"transactions"`
	PreviousHash string `json:"previousHash"`
	Timestamp    int64  `json:"timestamp"`
	Miner        string `json:"miner"`
	Nonce        uint64 `json:"nonce"`
}

// NewBlock constructs an unmined block timestamped with the current time.
func NewBlock(index uint64, txs []Tx, previousHash string, miner string) Block {
	if txs == nil {
		txs = []Tx{}
	}

	return Block{
		Index:        index,
		Transactions: txs,
		PreviousHash: previousHash,
		Timestamp:    time.Now().UnixMilli(),
		Miner:        miner,
		Votes:        make(map[string]bool),
	}
}

// NewGenesisBlock constructs and mines the first block of a chain.
func NewGenesisBlock(difficulty int) Block {
	b := NewBlock(0, nil, GenesisPrevHash, MintingID)
	b.Mine(difficulty)

	return b
}

// Hash returns the unique hash for the block. It is recomputed from the
// current field values on every call.
func (b Block) Hash() string {
	txs := b.Transactions
	if txs == nil {
		txs = []Tx{}
	}

	return signature.Hash(blockHeader{
		Index:        b.Index,
		Transactions: txs,
		PreviousHash: b.PreviousHash,
		Timestamp:    b.Timestamp,
		Miner:        b.Miner,
		Nonce:        b.Nonce,
	})
}

// Mine increments the nonce from zero until the hash of the block starts
// with difficulty zeros and returns the winning hash. There is no upper
// bound on the search and it can't be cancelled.
func (b *Block) Mine(difficulty int) string {
	b.Nonce = 0

	for {
		hash := b.Hash()
		if IsHashSolved(difficulty, hash) {
			return hash
		}
		b.Nonce++
	}
}

// AddVote records the voter's approval. A later vote by the same voter
// overwrites the earlier one.
func (b *Block) AddVote(voter string, approve bool) {
	if b.Votes == nil {
		b.Votes = make(map[string]bool)
	}

	b.Votes[voter] = approve
}

// VoteCount returns the number of distinct voters for the block.
func (b Block) VoteCount() int {
	return len(b.Votes)
}

// VotePercentage returns the percentage of votes that approve the block, or
// zero when there are no votes.
func (b Block) VotePercentage() float64 {
	if len(b.Votes) == 0 {
		return 0
	}

	var approved int
	for _, approve := range b.Votes {
		if approve {
			approved++
		}
	}

	return 100 * float64(approved) / float64(len(b.Votes))
}

// IsVoteApproved reports whether the vote percentage meets the threshold.
func (b Block) IsVoteApproved(threshold float64) bool {
	return b.VotePercentage() >= threshold
}

// Clone returns a copy of the block that shares no memory with the original.
func (b Block) Clone() Block {
	cpy := b

	cpy.Transactions = make([]Tx, len(b.Transactions))
	copy(cpy.Transactions, b.Transactions)

	cpy.Votes = make(map[string]bool, len(b.Votes))
	for voter, approve := range b.Votes {
		cpy.Votes[voter] = approve
	}

	return cpy
}

// normalize replaces the nil collections a decoded block may carry.
func (b *Block) normalize() {
	if b.Transactions == nil {
		b.Transactions = []Tx{}
	}

	if b.Votes == nil {
		b.Votes = make(map[string]bool)
	}
}

// Normalize replaces the nil collections of every block in the chain.
func Normalize(chain []Block) {
	for i := range chain {
		chain[i].normalize()
	}
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty int, hash string) bool {
	if difficulty <= 0 {
		return true
	}

	return strings.HasPrefix(hash, strings.Repeat("0", difficulty))
}
