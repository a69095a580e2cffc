package registrygrp

import "github.com/vnetwork/vblockchain/foundation/blockchain/registry"

type index struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

var endpoints = map[string]string{
	"POST /register-node":            "Register new node",
	"GET /get-peers/:nodeId":         "Get peer list",
	"POST /register-address":         "Register wallet address",
	"GET /get-address-info/:address": "Get address info",
	"GET /get-all-addresses":         "Get all registered addresses",
	"GET /get-all-nodes":             "Get all registered nodes",
	"POST /heartbeat/:nodeId":        "Update node heartbeat",
	"GET /network-stats":             "Get network statistics",
	"GET /health":                    "Server health check",
}

type registerNode struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Peers   []registry.Node `json:"peers"`
}

type peers struct {
	Peers []registry.Node `json:"peers"`
}

type registerAddress struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Data    registry.AddressInfo `json:"data"`
}
