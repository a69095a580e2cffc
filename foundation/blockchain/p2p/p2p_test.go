package p2p_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/p2p"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const waitTime = 2 * time.Second

// =============================================================================

func Test_Messages(t *testing.T) {
	block := database.NewGenesisBlock(1)

	type table struct {
		name   string
		msg    p2p.Message
		fields []string
	}

	tt := []table{
		{name: "sync", msg: p2p.SyncBlockchain{}, fields: nil},
		{name: "data", msg: p2p.BlockchainData{Chain: []database.Block{block}}, fields: []string{`"chain"`}},
		{name: "block", msg: p2p.NewBlock{Block: block}, fields: []string{`"block"`}},
		{name: "tx", msg: p2p.NewTransaction{Transaction: database.NewMintingTx("VNODE", 1)}, fields: []string{`"transaction"`}},
		{name: "vote", msg: p2p.Vote{Voter: "VNODE", BlockIndex: 3, VoteValue: true}, fields: []string{`"voter"`, `"blockIndex"`, `"voteValue"`}},
		{name: "peers", msg: p2p.PeersList{Peers: []peer.Peer{peer.New("VNODE", "", 4000)}}, fields: []string{`"peers"`}},
	}

	t.Log("Given the need to put messages on the wire.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen encoding a %s message.", testID, tst.msg.Type())
			{
				f := func(t *testing.T) {
					data, err := p2p.Encode("VSENDER", tst.msg)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to encode: %v", failed, testID, err)
					}

					line := string(data)
					if !strings.HasSuffix(line, "\n") || strings.Count(line, "\n") != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould get exactly one line: %q", failed, testID, line)
					}

					want := append([]string{`"type":"` + string(tst.msg.Type()) + `"`, `"nodeId":"VSENDER"`}, tst.fields...)
					for _, field := range want {
						if !strings.Contains(line, field) {
							t.Fatalf("\t%s\tTest %d:\tShould carry %s at the top level: %s", failed, testID, field, line)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould carry the fields at the top level.", success, testID)

					from, msg, err := p2p.Decode(data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to decode: %v", failed, testID, err)
					}

					if from != "VSENDER" || msg.Type() != tst.msg.Type() {
						t.Fatalf("\t%s\tTest %d:\tShould decode the sender and type: %s %s", failed, testID, from, msg.Type())
					}
					t.Logf("\t%s\tTest %d:\tShould decode the sender and type.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_DecodeFailures(t *testing.T) {
	if _, _, err := p2p.Decode([]byte(`{"type":"GOSSIP","nodeId":"VX"}`)); !errors.Is(err, p2p.ErrUnknownMessage) {
		t.Fatalf("Should reject an unknown type: %v", err)
	}

	if _, _, err := p2p.Decode([]byte(`not json`)); err == nil {
		t.Fatalf("Should reject malformed input.")
	}

	if _, _, err := p2p.Decode([]byte(`{"type":"VOTE","nodeId":"VX","blockIndex":"three"}`)); err == nil {
		t.Fatalf("Should reject a payload of the wrong shape.")
	}

	_, msg, err := p2p.Decode([]byte(`{"type":"NEW_BLOCK","nodeId":"VX","block":{"index":1,"previousHash":"0"}}`))
	if err != nil {
		t.Fatalf("Should decode a sparse block: %v", err)
	}
	blk := msg.(p2p.NewBlock).Block
	if blk.Votes == nil || blk.Transactions == nil {
		t.Fatalf("Should normalize the decoded block.")
	}
}

func Test_Broadcast(t *testing.T) {
	t.Log("Given the need to fan out messages to connected peers.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two peers are connected and a third joins later.", testID)
		{
			a := startNetwork(t, "VA", nil, nil)
			b := startNetwork(t, "VB", nil, nil)
			c := startNetwork(t, "VC", nil, nil)
			d := startNetwork(t, "VD", nil, nil)

			ctx := context.Background()
			for _, n := range []*p2p.Network{b, c} {
				if err := a.ConnectToPeer(ctx, n.Self()); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to connect to %s: %v", failed, testID, n.NodeID(), err)
				}
			}

			if err := a.ConnectToPeer(ctx, b.Self()); err != nil || len(a.Peers()) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould not connect twice to the same peer: %v", failed, testID, a.Peers())
			}
			t.Logf("\t%s\tTest %d:\tShould be connected to both peers.", success, testID)

			tx := database.NewMintingTx("VA", 1)
			if sent := a.Broadcast(p2p.NewTransaction{Transaction: tx}); sent != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould send to both peers: %d", failed, testID, sent)
			}

			if err := a.ConnectToPeer(ctx, d.Self()); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to connect to the late peer: %v", failed, testID, err)
			}

			for _, n := range []*p2p.Network{b, c} {
				ev := waitEvent(t, n)
				got, ok := ev.Message.(p2p.NewTransaction)
				if !ok || ev.From != "VA" || got.Transaction.Receiver != "VA" {
					t.Fatalf("\t%s\tTest %d:\tShould receive the transaction on %s: %+v", failed, testID, n.NodeID(), ev)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould deliver to the peers connected at the time.", success, testID)

			select {
			case ev := <-d.Events():
				t.Fatalf("\t%s\tTest %d:\tShould not deliver to the late peer: %+v", failed, testID, ev)
			case <-time.After(200 * time.Millisecond):
			}
			t.Logf("\t%s\tTest %d:\tShould not deliver to the late peer.", success, testID)

			a.BroadcastVote("VA", 1, true)
			ev := waitEvent(t, d)
			if vote, ok := ev.Message.(p2p.Vote); !ok || vote.BlockIndex != 1 || !vote.VoteValue {
				t.Fatalf("\t%s\tTest %d:\tShould deliver later messages to the late peer: %+v", failed, testID, ev)
			}
			t.Logf("\t%s\tTest %d:\tShould deliver later messages to the late peer.", success, testID)
		}
	}
}

func Test_Sync(t *testing.T) {
	chain := []database.Block{database.NewGenesisBlock(1)}
	next := database.NewBlock(1, nil, chain[0].Hash(), "VA")
	next.Mine(1)
	chain = append(chain, next)

	a := startNetwork(t, "VA", staticChain(chain), nil)
	b := startNetwork(t, "VB", nil, nil)

	if err := b.RequestSync(context.Background(), a.Self()); err != nil {
		t.Fatalf("Should be able to request a sync: %s", err)
	}

	ev := waitEvent(t, b)
	data, ok := ev.Message.(p2p.BlockchainData)
	if !ok {
		t.Fatalf("Should receive the chain: %+v", ev)
	}

	if len(data.Chain) != 2 || data.Chain[1].Hash() != next.Hash() {
		t.Fatalf("Should receive the full chain: %d blocks", len(data.Chain))
	}
}

func Test_MalformedInput(t *testing.T) {
	a := startNetwork(t, "VA", nil, nil)

	raw, err := net.Dial("tcp", a.Self().Addr())
	if err != nil {
		t.Fatalf("Should be able to dial the network: %s", err)
	}
	defer raw.Close()

	tx, err := p2p.Encode("VRAW", p2p.NewTransaction{Transaction: database.NewMintingTx("VRAW", 2)})
	if err != nil {
		t.Fatalf("Should be able to encode: %s", err)
	}

	input := append([]byte("garbage\n{\"type\":\"GOSSIP\"}\n"), tx...)
	if _, err := raw.Write(input); err != nil {
		t.Fatalf("Should be able to write: %s", err)
	}

	ev := waitEvent(t, a)
	if _, ok := ev.Message.(p2p.NewTransaction); !ok || ev.From != "VRAW" {
		t.Fatalf("Should keep the connection open past malformed lines: %+v", ev)
	}

	peers := a.Peers()
	if len(peers) != 1 || peers[0] != "VRAW" {
		t.Fatalf("Should register the inbound peer by its node id: %v", peers)
	}
}

func Test_Discovery(t *testing.T) {
	b := startNetwork(t, "VB", nil, nil)

	reg := staticRegistry{peers: []peer.Peer{b.Self(), peer.New("VA", "", 1)}}
	a := p2p.New(p2p.Config{NodeID: "VA", Host: "127.0.0.1", Registry: reg, DiscoveryInterval: time.Hour, EvHandler: logf(t)})
	defer a.Close()

	if got := a.DiscoverPeers(context.Background()); got != 1 {
		t.Fatalf("Should connect to the one other registered node: %d", got)
	}

	if got := a.DiscoverPeers(context.Background()); got != 0 {
		t.Fatalf("Should not reconnect to a connected node: %d", got)
	}

	ev := waitEvent(t, b)
	list, ok := ev.Message.(p2p.PeersList)
	if !ok || len(list.Peers) == 0 {
		t.Fatalf("Should share the peers after connecting: %+v", ev)
	}
}

func Test_Close(t *testing.T) {
	a := startNetwork(t, "VA", nil, nil)
	b := startNetwork(t, "VB", nil, nil)

	if err := a.ConnectToPeer(context.Background(), b.Self()); err != nil {
		t.Fatalf("Should be able to connect: %s", err)
	}

	a.Close()
	a.Close()

	if _, open := <-a.Events(); open {
		t.Fatalf("Should close the events channel.")
	}

	if len(a.Peers()) != 0 {
		t.Fatalf("Should drop every peer: %v", a.Peers())
	}
}

// =============================================================================

type staticChain []database.Block

func (c staticChain) Chain() []database.Block {
	return c
}

type staticRegistry struct {
	peers []peer.Peer
}

func (r staticRegistry) KnownPeers(ctx context.Context) ([]peer.Peer, error) {
	return r.peers, nil
}

func logf(t *testing.T) p2p.EventHandler {
	return func(v string, args ...any) {
		t.Logf(v, args...)
	}
}

func startNetwork(t *testing.T, nodeID string, chain p2p.ChainSource, reg p2p.Registry) *p2p.Network {
	n := p2p.New(p2p.Config{
		NodeID:        nodeID,
		Host:          "127.0.0.1",
		AdvertiseHost: "127.0.0.1",
		Chain:         chain,
		Registry:      reg,
		EvHandler:     logf(t),
	})

	if err := n.Start(); err != nil {
		t.Fatalf("Should be able to start network %s: %s", nodeID, err)
	}
	t.Cleanup(n.Close)

	return n
}

func waitEvent(t *testing.T, n *p2p.Network) p2p.Event {
	select {
	case ev, open := <-n.Events():
		if !open {
			t.Fatalf("Should get an event on %s before close.", n.NodeID())
		}
		return ev
	case <-time.After(waitTime):
		t.Fatalf("Should get an event on %s in time.", n.NodeID())
	}

	return p2p.Event{}
}
