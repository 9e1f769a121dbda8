package consensus

import "sort"

// SortedParticipants returns {self} ∪ peers sorted lexicographically over
// the canonical byte form of each identifier. All nodes with the same peer
// set compute this identically.
func SortedParticipants(self string, peers []string) []string {
	all := make([]string, 0, len(peers)+1)
	all = append(all, self)
	all = append(all, peers...)
	sort.Strings(all)
	return all
}

// LeaderFor returns the deterministic round-robin leader for roundID given
// self and its known peers: sort {self, known_peers} by identifier, then
// leader := sorted[round_id mod N].
func LeaderFor(self string, peers []string, roundID uint64) string {
	sorted := SortedParticipants(self, peers)
	n := uint64(len(sorted))
	return sorted[roundID%n]
}

// IsLeader reports whether self is the leader for roundID given peers.
func IsLeader(self string, peers []string, roundID uint64) bool {
	return LeaderFor(self, peers, roundID) == self
}
