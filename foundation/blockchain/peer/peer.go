// Package peer maintains the peer related information such as the set
// of known peers and how to reach them.
package peer

import (
	"net"
	"sort"
	"strconv"
	"sync"
)

// DefaultHost is used to reach a peer that didn't register a host.
const DefaultHost = "localhost"

// Peer represents information about a Node in the network.
type Peer struct {
	NodeID string `json:"nodeId"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
}

// New contructs a new info value.
func New(nodeID string, host string, port int) Peer {
	return Peer{
		NodeID: nodeID,
		Host:   host,
		Port:   port,
	}
}

// Match validates if the specified node id matches this peer.
func (p Peer) Match(nodeID string) bool {
	return p.NodeID == nodeID
}

// Addr returns the host:port used to dial the peer.
func (p Peer) Addr() string {
	host := p.Host
	if host == "" {
		host = DefaultHost
	}

	return net.JoinHostPort(host, strconv.Itoa(p.Port))
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[string]Peer
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[string]Peer),
	}
}

// Add adds a new node to the set. A peer already known by its node id is
// replaced and false is returned.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer.NodeID]
	ps.set[peer.NodeID] = peer

	return !exists
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(nodeID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, nodeID)
}

// Get returns the peer known by the node id.
func (ps *PeerSet) Get(nodeID string) (Peer, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	peer, exists := ps.set[nodeID]
	return peer, exists
}

// Copy returns a list of the known peers, sorted by node id, leaving out
// the specified node.
func (ps *PeerSet) Copy(nodeID string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for _, peer := range ps.set {
		if !peer.Match(nodeID) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].NodeID < peers[j].NodeID })

	return peers
}
