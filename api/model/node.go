package model

import (
	"fmt"
	"net"
	"sort"
	"strconv"
)

// MaxNodes is the cluster-size ceiling. Node names are zero-padded to two
// digits, so indices past 99 would stop sorting in index order.
const MaxNodes = 100

// NodeAddr is a node identifier and the address the node can be dialed at.
type NodeAddr struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// NodeName returns the workload name and identity label for the node at index.
func NodeName(index int) string {
	return fmt.Sprintf("consensus-node-%02d", index)
}

// ValidIndex reports whether index is inside the supported cluster size.
func ValidIndex(index int) bool {
	return index >= 0 && index < MaxNodes
}

// PeersFromSeeds turns a discovered id -> pod IP map into the dial list for
// non-seed nodes. Entries are ordered by node id so every node dials seeds in
// the same order.
func PeersFromSeeds(seeds map[string]string, port int) []NodeAddr {
	ids := make([]string, 0, len(seeds))
	for id := range seeds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	peers := make([]NodeAddr, 0, len(ids))
	for _, id := range ids {
		peers = append(peers, NodeAddr{
			ID:      id,
			Address: net.JoinHostPort(seeds[id], strconv.Itoa(port)),
		})
	}
	return peers
}
