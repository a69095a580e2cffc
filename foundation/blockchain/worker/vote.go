package worker

// VoteResult represents the outcome of casting a vote.
type VoteResult struct {
	Approved   bool    `json:"approved"`
	Percentage float64 `json:"percentage"`
}

// CastVote records the miner's vote on the last block of the chain and shares
// it with the peers. The block index is passed along to the peers as is; the
// local vote always lands on the last block.
func (w *Worker) CastVote(blockIndex uint64, approve bool) VoteResult {
	pct := w.ledger.AddVoteToLatestBlock(w.minerID, approve)
	approved := w.ledger.IsVoteApprovedForLatestBlock()

	w.evHandler("worker: CastVote: blockIndex[%d] approve[%v] pct[%.2f] approved[%v]", blockIndex, approve, pct, approved)

	w.persist("CastVote")

	if w.network != nil {
		w.network.BroadcastVote(w.minerID, blockIndex, approve)
	}

	return VoteResult{
		Approved:   approved,
		Percentage: pct,
	}
}
