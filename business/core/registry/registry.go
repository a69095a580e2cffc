// Package registry is the core API for the bootstrap registry. It keeps the
// nodes of the network and the wallet addresses registered by users.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vnetwork/vblockchain/business/sys/validate"
	"github.com/vnetwork/vblockchain/foundation/blockchain/registry"
)

// Set of error variables for registry operations.
var (
	ErrNodeExists      = errors.New("node already registered")
	ErrAddressExists   = errors.New("address already registered")
	ErrAddressNotFound = errors.New("address not found")
)

// ActiveWindow is how recently a node must have been seen to be active.
const ActiveWindow = 60 * time.Second

// DefaultWelcomeBonus is the balance recorded for a new address.
const DefaultWelcomeBonus = 50

// =============================================================================

// NewNode contains the information needed to register a node.
type NewNode struct {
	NodeID    string `json:"nodeId" validate:"required"`
	Host      string `json:"host" validate:"required"`
	Port      int    `json:"port" validate:"required,gt=0"`
	PublicKey string `json:"publicKey"`
}

// NewAddress contains the information needed to register an address.
type NewAddress struct {
	Address   string `json:"address" validate:"required"`
	Username  string `json:"username" validate:"required"`
	PublicKey string `json:"publicKey" validate:"required"`
}

// Health represents the health report of the registry.
type Health struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Nodes     int    `json:"nodes"`
	Addresses int    `json:"addresses"`
}

// Config represents the configuration required to construct the core.
type Config struct {
	DBPath       string
	WelcomeBonus float64
	Now          func() time.Time
}

// Core manages the set of APIs for registry access.
type Core struct {
	store        *store
	welcomeBonus float64
	now          func() time.Time

	mu        sync.RWMutex
	nodes     []registry.Node
	addresses map[string]registry.AddressInfo
}

// New constructs a core for registry api access, loading what was
// previously registered.
func New(cfg Config) (*Core, error) {
	strg, err := newStore(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	nodes, addresses, err := strg.read()
	if err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	bonus := cfg.WelcomeBonus
	if bonus == 0 {
		bonus = DefaultWelcomeBonus
	}

	return &Core{
		store:        strg,
		welcomeBonus: bonus,
		now:          now,
		nodes:        nodes,
		addresses:    addresses,
	}, nil
}

// =============================================================================

// RegisterNode records the node and returns every other registered node.
func (c *Core) RegisterNode(nn NewNode) ([]registry.Node, error) {
	if err := validate.Check(nn); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, node := range c.nodes {
		if node.NodeID == nn.NodeID {
			return nil, ErrNodeExists
		}
	}

	now := c.now().UnixMilli()
	nodes := make([]registry.Node, len(c.nodes), len(c.nodes)+1)
	copy(nodes, c.nodes)
	nodes = append(nodes, registry.Node{
		NodeID:       nn.NodeID,
		Host:         nn.Host,
		Port:         nn.Port,
		PublicKey:    nn.PublicKey,
		RegisteredAt: now,
		LastSeen:     now,
	})

	// The node is only registered once the documents are saved.
	if err := c.save(nodes, c.addresses); err != nil {
		return nil, err
	}
	c.nodes = nodes

	return c.peers(nn.NodeID), nil
}

// Peers returns every registered node other than the specified one.
func (c *Core) Peers(nodeID string) []registry.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.peers(nodeID)
}

// Nodes returns every registered node marked with whether it was seen
// within the active window.
func (c *Core) Nodes() []registry.Node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()

	nodes := make([]registry.Node, len(c.nodes))
	for i, node := range c.nodes {
		node.IsActive = c.isActive(node, now)
		nodes[i] = node
	}

	return nodes
}

// Heartbeat records that the node is alive. It reports whether the node is
// registered; an unknown node is not an error.
func (c *Core) Heartbeat(nodeID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.nodes {
		if c.nodes[i].NodeID == nodeID {
			c.nodes[i].LastSeen = c.now().UnixMilli()
			return true, c.save(c.nodes, c.addresses)
		}
	}

	return false, nil
}

// =============================================================================

// RegisterAddress records the address with the welcome balance.
func (c *Core) RegisterAddress(na NewAddress) (registry.AddressInfo, error) {
	if err := validate.Check(na); err != nil {
		return registry.AddressInfo{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.addresses[na.Address]; exists {
		return registry.AddressInfo{}, ErrAddressExists
	}

	info := registry.AddressInfo{
		Username:     na.Username,
		PublicKey:    na.PublicKey,
		RegisteredAt: c.now().UnixMilli(),
		Balance:      c.welcomeBonus,
	}
	addresses := make(map[string]registry.AddressInfo, len(c.addresses)+1)
	for address, ai := range c.addresses {
		addresses[address] = ai
	}
	addresses[na.Address] = info

	// The address is only registered once the documents are saved.
	if err := c.save(c.nodes, addresses); err != nil {
		return registry.AddressInfo{}, err
	}
	c.addresses = addresses

	return info, nil
}

// AddressInfo returns what is known about the address.
func (c *Core) AddressInfo(address string) (registry.AddressInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, exists := c.addresses[address]
	if !exists {
		return registry.AddressInfo{}, fmt.Errorf("%w: %s", ErrAddressNotFound, address)
	}

	return info, nil
}

// Addresses returns every registered address, sorted by address.
func (c *Core) Addresses() []registry.AddressInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]registry.AddressInfo, 0, len(c.addresses))
	for address, info := range c.addresses {
		info.Address = address
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Address < infos[j].Address
	})

	return infos
}

// =============================================================================

// NetworkStats returns the registry totals.
func (c *Core) NetworkStats() registry.NetworkStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()

	stats := registry.NetworkStats{
		TotalNodes:     len(c.nodes),
		TotalAddresses: len(c.addresses),
	}

	for _, info := range c.addresses {
		stats.TotalV += info.Balance
	}

	for _, node := range c.nodes {
		if c.isActive(node, now) {
			stats.ActiveNodes++
		}
	}

	return stats
}

// Health returns the health report of the registry.
func (c *Core) Health() Health {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Health{
		Status:    "OK",
		Timestamp: c.now().UnixMilli(),
		Nodes:     len(c.nodes),
		Addresses: len(c.addresses),
	}
}

// =============================================================================

// peers returns the nodes other than the specified one. The caller must
// hold the lock.
func (c *Core) peers(nodeID string) []registry.Node {
	peers := make([]registry.Node, 0, len(c.nodes))
	for _, node := range c.nodes {
		if node.NodeID != nodeID {
			peers = append(peers, node)
		}
	}

	return peers
}

// isActive reports whether the node was seen within the active window.
func (c *Core) isActive(node registry.Node, now time.Time) bool {
	return now.UnixMilli()-node.LastSeen < ActiveWindow.Milliseconds()
}

// save writes both registry files. The caller must hold the lock.
func (c *Core) save(nodes []registry.Node, addresses map[string]registry.AddressInfo) error {
	if err := c.store.write(nodes, addresses); err != nil {
		return fmt.Errorf("saving registry: %w", err)
	}

	return nil
}
