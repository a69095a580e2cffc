// Package registry provides a client for the bootstrap registry that nodes
// use to find each other and to register wallet addresses.
package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// Node represents a node registered with the registry.
type Node struct {
	NodeID       string `json:"nodeId"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	PublicKey    string `json:"publicKey,omitempty"`
	RegisteredAt int64  `json:"registeredAt,omitempty"`
	LastSeen     int64  `json:"lastSeen,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// AddressInfo represents a wallet address registered with the registry.
type AddressInfo struct {
	Address      string  `json:"address,omitempty"`
	Username     string  `json:"username"`
	PublicKey    string  `json:"publicKey"`
	RegisteredAt int64   `json:"registeredAt"`
	Balance      float64 `json:"balance"`
}

// NetworkStats represents the totals the registry keeps.
type NetworkStats struct {
	TotalNodes     int     `json:"totalNodes"`
	TotalAddresses int     `json:"totalAddresses"`
	TotalV         float64 `json:"totalV"`
	ActiveNodes    int     `json:"activeNodes"`
}

// =============================================================================

// Client talks to the registry over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client for the registry at the base url.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Nodes returns every node registered with the registry.
func (c *Client) Nodes(ctx context.Context) ([]Node, error) {
	var nodes []Node
	if err := c.do(ctx, http.MethodGet, "/get-all-nodes", nil, &nodes); err != nil {
		return nil, err
	}

	return nodes, nil
}

// KnownPeers returns every registered node as a peer that can be dialed.
func (c *Client) KnownPeers(ctx context.Context) ([]peer.Peer, error) {
	nodes, err := c.Nodes(ctx)
	if err != nil {
		return nil, err
	}

	peers := make([]peer.Peer, len(nodes))
	for i, node := range nodes {
		peers[i] = peer.New(node.NodeID, node.Host, node.Port)
	}

	return peers, nil
}

// RegisterNode registers the node and returns the other registered nodes.
func (c *Client) RegisterNode(ctx context.Context, node Node) ([]Node, error) {
	req := struct {
		NodeID    string `json:"nodeId"`
		Host      string `json:"host"`
		Port      int    `json:"port"`
		PublicKey string `json:"publicKey,omitempty"`
	}{
		NodeID:    node.NodeID,
		Host:      node.Host,
		Port:      node.Port,
		PublicKey: node.PublicKey,
	}

	var resp struct {
		Peers []Node `json:"peers"`
	}
	if err := c.do(ctx, http.MethodPost, "/register-node", req, &resp); err != nil {
		return nil, err
	}

	return resp.Peers, nil
}

// Peers returns the registered nodes other than the specified one.
func (c *Client) Peers(ctx context.Context, nodeID string) ([]Node, error) {
	var resp struct {
		Peers []Node `json:"peers"`
	}
	if err := c.do(ctx, http.MethodGet, "/get-peers/"+url.PathEscape(nodeID), nil, &resp); err != nil {
		return nil, err
	}

	return resp.Peers, nil
}

// Heartbeat tells the registry the node is still alive.
func (c *Client) Heartbeat(ctx context.Context, nodeID string) error {
	return c.do(ctx, http.MethodPost, "/heartbeat/"+url.PathEscape(nodeID), nil, nil)
}

// RegisterAddress registers a wallet address with its welcome balance.
func (c *Client) RegisterAddress(ctx context.Context, address string, username string, publicKey string) (AddressInfo, error) {
	req := struct {
		Address   string `json:"address"`
		Username  string `json:"username"`
		PublicKey string `json:"publicKey"`
	}{
		Address:   address,
		Username:  username,
		PublicKey: publicKey,
	}

	var resp struct {
		Data AddressInfo `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/register-address", req, &resp); err != nil {
		return AddressInfo{}, err
	}

	return resp.Data, nil
}

// AddressInfo returns what the registry knows about the address.
func (c *Client) AddressInfo(ctx context.Context, address string) (AddressInfo, error) {
	var info AddressInfo
	if err := c.do(ctx, http.MethodGet, "/get-address-info/"+url.PathEscape(address), nil, &info); err != nil {
		return AddressInfo{}, err
	}

	return info, nil
}

// NetworkStats returns the registry totals.
func (c *Client) NetworkStats(ctx context.Context) (NetworkStats, error) {
	var stats NetworkStats
	if err := c.do(ctx, http.MethodGet, "/network-stats", nil, &stats); err != nil {
		return NetworkStats{}, err
	}

	return stats, nil
}

// =============================================================================

// do sends the request and decodes a successful response into resp. An error
// response is returned as an error carrying the registry's message.
func (c *Client) do(ctx context.Context, method string, path string, body any, resp any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(res.Body).Decode(&errResp)
		return fmt.Errorf("registry %s %s: status %d: %s", method, path, res.StatusCode, errResp.Error)
	}

	if resp == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
