package p2p

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vnetwork/vblockchain/foundation/blockchain/database"
	"github.com/vnetwork/vblockchain/foundation/blockchain/peer"
)

// MessageType identifies the kind of a wire message.
type MessageType string

// Set of message types exchanged between peers.
const (
	TypeSyncBlockchain MessageType = "SYNC_BLOCKCHAIN"
	TypeBlockchainData MessageType = "BLOCKCHAIN_DATA"
	TypeNewBlock       MessageType = "NEW_BLOCK"
	TypeNewTransaction MessageType = "NEW_TRANSACTION"
	TypeVote           MessageType = "VOTE"
	TypePeersList      MessageType = "PEERS_LIST"
)

// ErrUnknownMessage is returned when decoding a message of a type this node
// doesn't know.
var ErrUnknownMessage = errors.New("unknown message type")

// =============================================================================

// Message is implemented by every message that can cross the wire. The set
// of implementations is closed.
type Message interface {
	Type() MessageType
	message()
}

// SyncBlockchain asks a peer for its full chain.
type SyncBlockchain struct{}

// BlockchainData answers a SyncBlockchain with the full chain.
type BlockchainData struct {
	Chain []database.Block `json:"chain"`
}

// NewBlock announces a mined block.
type NewBlock struct {
	Block database.Block `json:"block"`
}

// NewTransaction announces a transaction added to the pending queue.
type NewTransaction struct {
	Transaction database.Tx `json:"transaction"`
}

// Vote announces a vote on a block.
type Vote struct {
	Voter      string `json:"voter"`
	BlockIndex uint64 `json:"blockIndex"`
	VoteValue  bool   `json:"voteValue"`
}

// PeersList shares the peers a node knows about.
type PeersList struct {
	Peers []peer.Peer `json:"peers"`
}

func (SyncBlockchain) Type() MessageType { return TypeSyncBlockchain }
func (BlockchainData) Type() MessageType { return TypeBlockchainData }
func (NewBlock) Type() MessageType       { return TypeNewBlock }
func (NewTransaction) Type() MessageType { return TypeNewTransaction }
func (Vote) Type() MessageType           { return TypeVote }
func (PeersList) Type() MessageType      { return TypePeersList }

func (SyncBlockchain) message() {}
func (BlockchainData) message() {}
func (NewBlock) message()       {}
func (NewTransaction) message() {}
func (Vote) message()           {}
func (PeersList) message()      {}

// =============================================================================

// envelope holds the fields every message carries next to its payload.
type envelope struct {
	Type   MessageType `json:"type"`
	NodeID string      `json:"nodeId"`
}

// Encode returns the wire form of the message: one JSON object holding the
// type, the sending node id and the payload fields, terminated by a newline.
func Encode(nodeID string, msg Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", msg.Type(), err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("flattening %s payload: %w", msg.Type(), err)
	}

	typ, err := json.Marshal(msg.Type())
	if err != nil {
		return nil, err
	}
	id, err := json.Marshal(nodeID)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	fields["nodeId"] = id

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s message: %w", msg.Type(), err)
	}

	return append(data, '\n'), nil
}

// Decode parses one wire message and returns the sending node id and the
// typed message.
func Decode(data []byte) (string, Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("decoding envelope: %w", err)
	}

	var msg Message
	switch env.Type {
	case TypeSyncBlockchain:
		msg = SyncBlockchain{}

	case TypeBlockchainData:
		var m BlockchainData
		if err := json.Unmarshal(data, &m); err != nil {
			return env.NodeID, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		database.Normalize(m.Chain)
		msg = m

	case TypeNewBlock:
		var m NewBlock
		if err := json.Unmarshal(data, &m); err != nil {
			return env.NodeID, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		blocks := []database.Block{m.Block}
		database.Normalize(blocks)
		m.Block = blocks[0]
		msg = m

	case TypeNewTransaction:
		var m NewTransaction
		if err := json.Unmarshal(data, &m); err != nil {
			return env.NodeID, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		msg = m

	case TypeVote:
		var m Vote
		if err := json.Unmarshal(data, &m); err != nil {
			return env.NodeID, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		msg = m

	case TypePeersList:
		var m PeersList
		if err := json.Unmarshal(data, &m); err != nil {
			return env.NodeID, nil, fmt.Errorf("decoding %s: %w", env.Type, err)
		}
		msg = m

	default:
		return env.NodeID, nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	return env.NodeID, msg, nil
}
