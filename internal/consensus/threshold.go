package consensus

// CheckThreshold applies the terminal predicate of spec §4.6's Tallying
// state. requiredPeers is |known_peers| + 1 (self included). The threshold
// is strict: a round with exactly ⌊2·required_peers/3⌋ agreements fails,
// one with ⌊2·required_peers/3⌋ + 1 succeeds.
func CheckThreshold(agreeCount, totalCount, requiredPeers int) Outcome {
	if totalCount < requiredPeers {
		return Pending
	}
	threshold := (2 * requiredPeers) / 3
	if agreeCount > threshold {
		return Achieved
	}
	return Failed
}
