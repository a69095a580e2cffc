// Package p2p implements the peer network of a node. Peers hold persistent
// TCP connections and exchange newline delimited JSON messages. Received
// messages are surfaced as events and never relayed or validated here.
package p2p

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// DefaultDiscoveryInterval represents the interval of asking the registry
// for the nodes in the network.
const DefaultDiscoveryInterval = 10 * time.Second

// eventBuffer is the number of received messages that can wait for the
// consumer before the reading connections block.
const eventBuffer = 100

// ErrClosed is returned when using a network that has been closed.
var ErrClosed = errors.New("network closed")

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of the network.
type EventHandler func(v string, args ...any)

// ChainSource provides the chain sent to peers asking for a sync.
type ChainSource interface {
	Chain() []database.Block
}

// Registry provides the set of nodes registered in the network.
type Registry interface {
	KnownPeers(ctx context.Context) ([]peer.Peer, error)
}

// Event is a message received from a peer.
type Event struct {
	From    string
	Message Message
}

// Config represents the configuration required to start the network.
type Config struct {
	NodeID            string
	Host              string
	Port              int
	AdvertiseHost     string
	Chain             ChainSource
	Registry          Registry
	DiscoveryInterval time.Duration
	EvHandler         EventHandler
}

// Network manages the connections to the peers of the node.
type Network struct {
	nodeID            string
	host              string
	port              int
	advertiseHost     string
	chain             ChainSource
	registry          Registry
	discoveryInterval time.Duration
	evHandler         EventHandler
	knownPeers        *peer.PeerSet

	listener  net.Listener
	events    chan Event
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
	peers  map[string]*conn
	conns  map[*conn]struct{}
}

// New constructs a network for the node. Nothing is opened until Start.
func New(cfg Config) *Network {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.DiscoveryInterval
	if interval <= 0 {
		interval = DefaultDiscoveryInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Network{
		nodeID:            cfg.NodeID,
		host:              cfg.Host,
		port:              cfg.Port,
		advertiseHost:     cfg.AdvertiseHost,
		chain:             cfg.Chain,
		registry:          cfg.Registry,
		discoveryInterval: interval,
		evHandler:         ev,
		knownPeers:        peer.NewPeerSet(),
		events:            make(chan Event, eventBuffer),
		ctx:               ctx,
		cancel:            cancel,
		peers:             make(map[string]*conn),
		conns:             make(map[*conn]struct{}),
	}
}

// Start opens the listener and starts accepting peers. When a registry is
// configured, discovery runs once right away and then periodically.
func (n *Network) Start() error {
	listener, err := net.Listen("tcp", net.JoinHostPort(n.host, strconv.Itoa(n.port)))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	n.listener = listener

	n.evHandler("p2p: Start: node[%s] listening[%s]", n.nodeID, listener.Addr())

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.acceptOperations()
	}()

	if n.registry != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.discoveryOperations()
		}()
	}

	return nil
}

// Close stops the listener and discovery and closes every peer connection
// without notifying the peers. The events channel is closed once every
// reader has stopped.
func (n *Network) Close() {
	n.closeOnce.Do(func() {
		n.evHandler("p2p: Close: started")
		defer n.evHandler("p2p: Close: completed")

		n.mu.Lock()
		n.closed = true
		conns := make([]*conn, 0, len(n.conns))
		for c := range n.conns {
			conns = append(conns, c)
		}
		n.mu.Unlock()

		n.cancel()

		if n.listener != nil {
			n.listener.Close()
		}

		for _, c := range conns {
			c.close()
		}

		n.wg.Wait()
		close(n.events)
	})
}

// Events returns the channel of messages received from peers.
func (n *Network) Events() <-chan Event {
	return n.events
}

// NodeID returns the identifier of this node.
func (n *Network) NodeID() string {
	return n.nodeID
}

// Port returns the port the network is listening on.
func (n *Network) Port() int {
	if n.listener == nil {
		return n.port
	}

	if addr, ok := n.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}

	return n.port
}

// Self returns the peer information other nodes use to reach this node.
func (n *Network) Self() peer.Peer {
	return peer.New(n.nodeID, n.advertiseHost, n.Port())
}

// Peers returns the node ids of the connected peers, sorted.
func (n *Network) Peers() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	ids := make([]string, 0, len(n.peers))
	for id := range n.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// KnownPeers returns the peers this node has dialed or learned about.
func (n *Network) KnownPeers() []peer.Peer {
	return n.knownPeers.Copy(n.nodeID)
}

// =============================================================================

// ConnectToPeer dials the peer and starts reading from the connection. It
// does nothing when the peer is this node or is already connected.
func (n *Network) ConnectToPeer(ctx context.Context, p peer.Peer) error {
	if p.Match(n.nodeID) || n.isConnected(p.NodeID) {
		return nil
	}

	var d net.Dialer
	netConn, err := d.DialContext(ctx, "tcp", p.Addr())
	if err != nil {
		return fmt.Errorf("connecting to peer %s at %s: %w", p.NodeID, p.Addr(), err)
	}

	c := newConn(netConn, p.NodeID)
	if !n.track(c) {
		c.close()
		return nil
	}

	n.knownPeers.Add(p)
	n.evHandler("p2p: ConnectToPeer: connected: peer[%s] addr[%s]", p.NodeID, p.Addr())

	return nil
}

// RequestSync connects to the peer when needed and asks for its chain. The
// answer arrives later as a BlockchainData event.
func (n *Network) RequestSync(ctx context.Context, p peer.Peer) error {
	if err := n.ConnectToPeer(ctx, p); err != nil {
		return err
	}

	return n.Send(p.NodeID, SyncBlockchain{})
}

// Send writes the message to the connected peer.
func (n *Network) Send(nodeID string, msg Message) error {
	n.mu.RLock()
	c, exists := n.peers[nodeID]
	n.mu.RUnlock()

	if !exists {
		return fmt.Errorf("peer %s not connected", nodeID)
	}

	data, err := Encode(n.nodeID, msg)
	if err != nil {
		return err
	}

	return c.write(data)
}

// Broadcast writes the message to every peer connected at the time of the
// call and returns the number of peers written to. A failed write is logged
// and skipped.
func (n *Network) Broadcast(msg Message) int {
	data, err := Encode(n.nodeID, msg)
	if err != nil {
		n.evHandler("p2p: Broadcast: ERROR: %s", err)
		return 0
	}

	n.mu.RLock()
	targets := make(map[string]*conn, len(n.peers))
	for id, c := range n.peers {
		targets[id] = c
	}
	n.mu.RUnlock()

	var sent int
	for id, c := range targets {
		if err := c.write(data); err != nil {
			n.evHandler("p2p: Broadcast: %s: peer[%s]: WARNING: %s", msg.Type(), id, err)
			continue
		}
		sent++
	}

	n.evHandler("p2p: Broadcast: %s: sent[%d] peers[%d]", msg.Type(), sent, len(targets))

	return sent
}

// BroadcastNewBlock announces the block to every connected peer.
func (n *Network) BroadcastNewBlock(block database.Block) {
	n.Broadcast(NewBlock{Block: block})
}

// BroadcastNewTransaction announces the transaction to every connected peer.
func (n *Network) BroadcastNewTransaction(tx database.Tx) {
	n.Broadcast(NewTransaction{Transaction: tx})
}

// BroadcastVote announces the vote to every connected peer.
func (n *Network) BroadcastVote(voter string, blockIndex uint64, approve bool) {
	n.Broadcast(Vote{Voter: voter, BlockIndex: blockIndex, VoteValue: approve})
}

// BroadcastPeers shares this node and the peers it knows about.
func (n *Network) BroadcastPeers() {
	peers := append(n.knownPeers.Copy(n.nodeID), n.Self())
	n.Broadcast(PeersList{Peers: peers})
}

// =============================================================================

// acceptOperations accepts inbound peers until the listener is closed.
func (n *Network) acceptOperations() {
	n.evHandler("p2p: acceptOperations: G started")
	defer n.evHandler("p2p: acceptOperations: G completed")

	for {
		netConn, err := n.listener.Accept()
		if err != nil {
			if n.isClosed() || errors.Is(err, net.ErrClosed) {
				return
			}
			n.evHandler("p2p: acceptOperations: ERROR: %s", err)
			continue
		}

		c := newConn(netConn, "")
		if !n.track(c) {
			c.close()
			return
		}

		n.evHandler("p2p: acceptOperations: accepted: addr[%s]", c.addr)
	}
}

// readOperations reads messages from the connection until it fails.
func (n *Network) readOperations(c *conn) {
	defer n.drop(c)

	reader := bufio.NewReader(c.netConn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			n.handle(c, line)
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !n.isClosed() {
				n.evHandler("p2p: readOperations: addr[%s]: WARNING: %s", c.addr, err)
			}
			return
		}
	}
}

// handle processes one message. A message that can't be decoded is logged
// and dropped while the connection stays open.
func (n *Network) handle(c *conn, line []byte) {
	from, msg, err := Decode(line)
	if err != nil {
		n.evHandler("p2p: handle: addr[%s]: dropped message: %s", c.addr, err)
		return
	}

	n.identify(c, from)

	if _, ok := msg.(SyncBlockchain); ok {
		n.answerSync(c, from)
		return
	}

	n.evHandler("p2p: handle: received %s: from[%s]", msg.Type(), from)

	select {
	case n.events <- Event{From: from, Message: msg}:
	case <-n.ctx.Done():
	}
}

// answerSync writes the full local chain back on the connection.
func (n *Network) answerSync(c *conn, from string) {
	if n.chain == nil {
		return
	}

	data, err := Encode(n.nodeID, BlockchainData{Chain: n.chain.Chain()})
	if err != nil {
		n.evHandler("p2p: answerSync: ERROR: %s", err)
		return
	}

	if err := c.write(data); err != nil {
		n.evHandler("p2p: answerSync: peer[%s]: WARNING: %s", from, err)
		return
	}

	n.evHandler("p2p: answerSync: sent chain: peer[%s]", from)
}

// identify records the node id an inbound connection announced in its first
// message. The connection joins the peers only when that node isn't already
// connected.
func (n *Network) identify(c *conn, nodeID string) {
	if nodeID == "" || nodeID == n.nodeID {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if c.nodeID != "" {
		return
	}
	c.nodeID = nodeID

	if _, exists := n.peers[nodeID]; !exists {
		n.peers[nodeID] = c
	}
}

// track registers the connection and starts reading from it. It returns
// false when the network is closed or the peer is already connected.
func (n *Network) track(c *conn) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return false
	}

	if c.nodeID != "" {
		if _, exists := n.peers[c.nodeID]; exists {
			return false
		}
		n.peers[c.nodeID] = c
	}
	n.conns[c] = struct{}{}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.readOperations(c)
	}()

	return true
}

// drop forgets the connection and closes it.
func (n *Network) drop(c *conn) {
	n.mu.Lock()
	delete(n.conns, c)
	if c.nodeID != "" && n.peers[c.nodeID] == c {
		delete(n.peers, c.nodeID)
	}
	n.mu.Unlock()

	c.close()
}

func (n *Network) isConnected(nodeID string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	_, exists := n.peers[nodeID]
	return exists
}

func (n *Network) isClosed() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.closed
}

// =============================================================================

// conn is a single peer connection. Writes are serialized so concurrent
// broadcasts never interleave their lines.
type conn struct {
	netConn net.Conn
	addr    string
	nodeID  string // guarded by Network.mu

	wmu sync.Mutex
}

func newConn(netConn net.Conn, nodeID string) *conn {
	return &conn{
		netConn: netConn,
		addr:    netConn.RemoteAddr().String(),
		nodeID:  nodeID,
	}
}

func (c *conn) write(data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	_, err := c.netConn.Write(data)
	return err
}

func (c *conn) close() {
	c.netConn.Close()
}
