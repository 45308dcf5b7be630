package model

import (
	"encoding/json"
	"fmt"
)

// GossipStaticOutboundFlag is the node flag carrying the peers to dial on start.
const GossipStaticOutboundFlag = "--add-gossip-static-outbound"

// EncodePeerArgs builds the node's startup arguments for the given peers.
// Seeds get no peer flag at all; its presence is what tells a node to dial out.
func EncodePeerArgs(peers []NodeAddr) ([]string, error) {
	if len(peers) == 0 {
		return []string{}, nil
	}
	payload, err := json.Marshal(peers)
	if err != nil {
		return nil, fmt.Errorf("encode peers: %w", err)
	}
	return []string{GossipStaticOutboundFlag, string(payload)}, nil
}

// DecodePeerArgs recovers the ordered peer list from arguments produced by
// EncodePeerArgs.
func DecodePeerArgs(args []string) ([]NodeAddr, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) != 2 || args[0] != GossipStaticOutboundFlag {
		return nil, fmt.Errorf("decode peers: unexpected args %q", args)
	}
	var peers []NodeAddr
	if err := json.Unmarshal([]byte(args[1]), &peers); err != nil {
		return nil, fmt.Errorf("decode peers: %w", err)
	}
	return peers, nil
}
