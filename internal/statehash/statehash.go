// Package statehash computes the canonical 32-byte fingerprint of a node's
// local agent store for a given tick, the value that the consensus
// coordinator proposes and votes on each round.
package statehash

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/manifoldweb/node/internal/agent"
)

// Hash is the 32-byte SHA-256 digest produced by Compute.
type Hash [32]byte

// Compute absorbs the tick counter followed by every agent in store, in
// sorted identifier order, into a single SHA-256 digest. The byte sequence
// absorbed per agent is fixed by contract so that two nodes holding
// identical agent stores and the same tick counter produce a byte-identical
// digest:
//
//  1. identifier UTF-8 bytes
//  2. energy, 8 bytes little-endian
//  3. position x, y, z, each 4 bytes little-endian IEEE-754 single precision
//  4. content-address UTF-8 bytes
//  5. parameter byte vector
//
// NaN bit patterns in a position are a contract violation by the caller;
// this function does not canonicalize them and will simply hash whatever
// bit pattern math.Float32bits returns.
func Compute(tick uint64, store *agent.Store) Hash {
	h := sha256.New()

	var tickBuf [8]byte
	binary.LittleEndian.PutUint64(tickBuf[:], tick)
	h.Write(tickBuf[:])

	store.IterSorted(func(a agent.Agent) bool {
		h.Write([]byte(a.ID))

		var energyBuf [8]byte
		binary.LittleEndian.PutUint64(energyBuf[:], a.Energy)
		h.Write(energyBuf[:])

		var posBuf [4]byte
		for _, f := range [3]float32{a.Position.X, a.Position.Y, a.Position.Z} {
			binary.LittleEndian.PutUint32(posBuf[:], math.Float32bits(f))
			h.Write(posBuf[:])
		}

		h.Write([]byte(a.Behavior.CID))
		h.Write(a.Behavior.Parameters)
		return true
	})

	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
