package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/genesis"
	"github.com/vnetwork/vblockchain/foundation/blockchain/ledger"
	"github.com/vnetwork/vblockchain/foundation/blockchain/p2p"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
	"github.com/vnetwork/vblockchain/foundation/blockchain/signature"
	"github.com/vnetwork/vblockchain/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const minerID = "VMINER"

// =============================================================================

func Test_Mining(t *testing.T) {
	t.Log("Given the need to mine pending transactions on an interval.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining is started with one pending transaction.", testID)
		{
			l := newLedger(t)
			net := &fakeNetwork{}
			w := newWorker(t, l, net)
			defer w.Shutdown()

			l.AddTransaction(database.NewMintingTx("VALICE", 5))

			mined := make(chan database.Block, 1)
			onMined := func(block database.Block) {
				select {
				case mined <- block:
				default:
				}
			}

			if !w.Start(onMined) {
				t.Fatalf("\t%s\tTest %d:\tShould be able to start mining.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to start mining.", success, testID)

			if w.Start(onMined) {
				t.Fatalf("\t%s\tTest %d:\tShould not start mining twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not start mining twice.", success, testID)

			var block database.Block
			select {
			case block = <-mined:
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould mine a block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			w.Stop()
			if w.IsRunning() {
				t.Fatalf("\t%s\tTest %d:\tShould be idle after stopping.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be idle after stopping.", success, testID)

			if block.Index != 1 || len(block.Transactions) != 2 || block.Miner != minerID {
				t.Fatalf("\t%s\tTest %d:\tShould get the right block: %+v", failed, testID, block)
			}
			t.Logf("\t%s\tTest %d:\tShould get the right block.", success, testID)

			if got := net.blocks(); len(got) != 1 || got[0].Hash() != block.Hash() {
				t.Fatalf("\t%s\tTest %d:\tShould broadcast the mined block: %d", failed, testID, len(got))
			}
			t.Logf("\t%s\tTest %d:\tShould broadcast the mined block.", success, testID)

			l.AddTransaction(database.NewMintingTx("VBOB", 5))
			time.Sleep(100 * time.Millisecond)

			if l.PendingCount() != 1 || l.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould not mine while idle: pending[%d] length[%d]", failed, testID, l.PendingCount(), l.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould not mine while idle.", success, testID)

			stats := w.Stats()
			if stats.MinerAddress != minerID || stats.Balance != 10 || stats.ChainLength != 2 || stats.PendingTransactions != 1 || stats.Mining || !stats.IsChainValid {
				t.Fatalf("\t%s\tTest %d:\tShould get the right stats: %+v", failed, testID, stats)
			}
			t.Logf("\t%s\tTest %d:\tShould get the right stats.", success, testID)
		}
	}
}

func Test_MineNow(t *testing.T) {
	l := newLedger(t)
	w := newWorker(t, l, nil)
	defer w.Shutdown()

	if _, err := w.MineNow(); err == nil {
		t.Fatalf("Should not mine an empty pending queue.")
	}

	l.AddTransaction(database.NewMintingTx("VALICE", 5))

	block, err := w.MineNow()
	if err != nil {
		t.Fatalf("Should be able to mine: %s", err)
	}

	if block.Index != 1 || l.PendingCount() != 0 {
		t.Fatalf("Should append the block and clear the queue.")
	}
}

func Test_CastVote(t *testing.T) {
	t.Log("Given the need to vote on blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the miner approves the last block.", testID)
		{
			l := newLedger(t)
			net := &fakeNetwork{}
			w := newWorker(t, l, net)
			defer w.Shutdown()

			res := w.CastVote(99, true)
			if !res.Approved || res.Percentage != 100 {
				t.Fatalf("\t%s\tTest %d:\tShould approve the block: %+v", failed, testID, res)
			}
			t.Logf("\t%s\tTest %d:\tShould approve the block.", success, testID)

			if l.LatestBlock().Votes[minerID] != true {
				t.Fatalf("\t%s\tTest %d:\tShould record the vote on the last block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould record the vote on the last block.", success, testID)

			votes := net.votes()
			if len(votes) != 1 || votes[0].BlockIndex != 99 || votes[0].Voter != minerID || !votes[0].VoteValue {
				t.Fatalf("\t%s\tTest %d:\tShould broadcast the vote as cast: %+v", failed, testID, votes)
			}
			t.Logf("\t%s\tTest %d:\tShould broadcast the vote as cast.", success, testID)

			res = w.CastVote(0, false)
			if res.Approved || res.Percentage != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould overwrite the earlier vote: %+v", failed, testID, res)
			}
			t.Logf("\t%s\tTest %d:\tShould overwrite the earlier vote.", success, testID)
		}
	}
}

func Test_ProcessEvent(t *testing.T) {
	t.Log("Given the need to apply peer messages to the ledger.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen receiving each kind of message.", testID)
		{
			l := newLedger(t)
			net := &fakeNetwork{}
			w := newWorker(t, l, net)
			defer w.Shutdown()

			// A remote ledger that is one block ahead.
			remote := newLedger(t)
			remote.AddTransaction(database.NewMintingTx("VALICE", 5))
			remote.MinePendingTransactions("VREMOTE")

			stale := remote.Chain()[1]
			stale.Index = 5
			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.NewBlock{Block: stale}})
			if l.Length() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould reject a block with the wrong index.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a block with the wrong index.", success, testID)

			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.NewBlock{Block: remote.Chain()[1]}})
			if l.Length() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould append a block with the next index.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould append a block with the next index.", success, testID)

			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.Vote{Voter: "VREMOTE", BlockIndex: 1, VoteValue: true}})
			if got := l.Chain()[1].Votes["VREMOTE"]; !got {
				t.Fatalf("\t%s\tTest %d:\tShould record the vote at the block index.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould record the vote at the block index.", success, testID)

			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.Vote{Voter: "VREMOTE", BlockIndex: 50, VoteValue: true}})
			t.Logf("\t%s\tTest %d:\tShould ignore a vote for a missing block.", success, testID)

			unsigned, _ := database.NewTx("VALICE", "VBOB", 1)
			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.NewTransaction{Transaction: unsigned}})
			if l.PendingCount() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould reject an unsigned transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an unsigned transaction.", success, testID)

			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.NewTransaction{Transaction: signedTx(t)}})
			if l.PendingCount() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould queue a signed transaction.", failed, testID)
			}
			if len(net.txs()) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould not share a peer's transaction again.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould queue a signed transaction without sharing it again.", success, testID)

			remote.AddTransaction(database.NewMintingTx("VALICE", 5))
			remote.MinePendingTransactions("VREMOTE")
			remote.AddTransaction(database.NewMintingTx("VALICE", 5))
			remote.MinePendingTransactions("VREMOTE")

			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.BlockchainData{Chain: remote.Chain()}})
			if l.Length() != remote.Length() {
				t.Fatalf("\t%s\tTest %d:\tShould adopt a longer valid chain: %d", failed, testID, l.Length())
			}
			t.Logf("\t%s\tTest %d:\tShould adopt a longer valid chain.", success, testID)

			peers := []peer.Peer{
				peer.New(minerID, "127.0.0.1", 6001),
				peer.New("VOTHER", "127.0.0.1", 6002),
			}
			w.ProcessEvent(p2p.Event{From: "VREMOTE", Message: p2p.PeersList{Peers: peers}})
			if got := net.connected(); len(got) != 1 || got[0] != "VOTHER" {
				t.Fatalf("\t%s\tTest %d:\tShould connect to every listed peer but itself: %v", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould connect to every listed peer but itself.", success, testID)

			if n := net.dialDeadlines(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould dial the listed peers without a timeout: %d", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould dial the listed peers without a timeout.", success, testID)
		}
	}
}

func Test_Run(t *testing.T) {
	l := newLedger(t)
	w := newWorker(t, l, nil)

	events := make(chan p2p.Event)
	w.Run(events)

	events <- p2p.Event{From: "VREMOTE", Message: p2p.NewTransaction{Transaction: database.NewMintingTx("VALICE", 1)}}

	deadline := time.Now().Add(2 * time.Second)
	for l.PendingCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Should apply events received on the channel.")
		}
		time.Sleep(10 * time.Millisecond)
	}

	w.Shutdown()
}

func Test_SubmitTransaction(t *testing.T) {
	l := newLedger(t)
	net := &fakeNetwork{}
	w := newWorker(t, l, net)
	defer w.Shutdown()

	unsigned, _ := database.NewTx("VALICE", "VBOB", 1)
	if err := w.SubmitTransaction(unsigned); err == nil {
		t.Fatalf("Should reject an unsigned transaction.")
	}

	if err := w.SubmitTransaction(signedTx(t)); err != nil {
		t.Fatalf("Should accept a signed transaction: %s", err)
	}

	if len(net.txs()) != 1 || l.PendingCount() != 1 {
		t.Fatalf("Should queue and share the transaction.")
	}
}

// =============================================================================

func newLedger(t *testing.T) *ledger.Ledger {
	gen := genesis.Default()
	gen.Difficulty = 1

	return ledger.New(ledger.Config{
		NodeAddress: minerID,
		Genesis:     gen,
		EvHandler:   func(v string, args ...any) { t.Logf(v, args...) },
	})
}

func newWorker(t *testing.T, l *ledger.Ledger, net worker.Network) *worker.Worker {
	return worker.New(worker.Config{
		MinerID:   minerID,
		Ledger:    l,
		Network:   net,
		Interval:  10 * time.Millisecond,
		EvHandler: func(v string, args ...any) { t.Logf(v, args...) },
	})
}

func signedTx(t *testing.T) database.Tx {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	tx, err := database.NewTx(signature.PublicKeyToAddress(pk.PublicKey), "VBOB", 1)
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %s", err)
	}

	if err := tx.Sign(pk); err != nil {
		t.Fatalf("Should be able to sign a transaction: %s", err)
	}
	tx.PublicKey = signature.EncodePublicKey(pk.PublicKey)

	return tx
}

// =============================================================================

// fakeNetwork records what the worker asks of the network.
type fakeNetwork struct {
	mu        sync.Mutex
	blockList []database.Block
	txList    []database.Tx
	voteList  []p2p.Vote
	peerList  []string
	deadlines int
}

func (f *fakeNetwork) BroadcastNewBlock(block database.Block) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blockList = append(f.blockList, block)
}

func (f *fakeNetwork) BroadcastNewTransaction(tx database.Tx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txList = append(f.txList, tx)
}

func (f *fakeNetwork) BroadcastVote(voter string, blockIndex uint64, approve bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voteList = append(f.voteList, p2p.Vote{Voter: voter, BlockIndex: blockIndex, VoteValue: approve})
}

func (f *fakeNetwork) ConnectToPeer(ctx context.Context, p peer.Peer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.peerList = append(f.peerList, p.NodeID)
	if _, ok := ctx.Deadline(); ok {
		f.deadlines++
	}
	return nil
}

func (f *fakeNetwork) RequestSync(ctx context.Context, p peer.Peer) error {
	return f.ConnectToPeer(ctx, p)
}

func (f *fakeNetwork) dialDeadlines() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deadlines
}

func (f *fakeNetwork) blocks() []database.Block {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.Block(nil), f.blockList...)
}

func (f *fakeNetwork) txs() []database.Tx {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]database.Tx(nil), f.txList...)
}

func (f *fakeNetwork) votes() []p2p.Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]p2p.Vote(nil), f.voteList...)
}

func (f *fakeNetwork) connected() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.peerList...)
}
