package shard

import (
	"fmt"
	"math/rand/v2"

	"github.com/spaolacci/murmur3"
)

// Selector chooses the shard suffix for a write. Implementations must be
// safe for concurrent use.
type Selector interface {
	SelectShard(logicalKey string) string
}

// RandomSelector picks a suffix uniformly at random. This is the default
// strategy: independent writers need no coordination and the distribution
// stays statistically balanced.
type RandomSelector struct {
	suffixes []string
}

// NewRandomSelector creates a RandomSelector over the given suffixes.
func NewRandomSelector(suffixes []string) (*RandomSelector, error) {
	if len(suffixes) == 0 {
		return nil, ErrNoSuffixes
	}
	return &RandomSelector{suffixes: append([]string(nil), suffixes...)}, nil
}

// SelectShard returns a uniformly random suffix.
func (s *RandomSelector) SelectShard(string) string {
	return s.suffixes[rand.IntN(len(s.suffixes))]
}

// HashSelector picks a suffix by hashing the logical key. Every write for
// the same logical key lands on the same shard, so it only spreads load when
// callers fold a sub-stream identifier into the logical key.
type HashSelector struct {
	suffixes []string
}

// NewHashSelector creates a HashSelector over the given suffixes.
func NewHashSelector(suffixes []string) (*HashSelector, error) {
	if len(suffixes) == 0 {
		return nil, ErrNoSuffixes
	}
	return &HashSelector{suffixes: append([]string(nil), suffixes...)}, nil
}

// SelectShard returns the suffix at the murmur3 hash of the logical key.
func (s *HashSelector) SelectShard(logicalKey string) string {
	h := murmur3.Sum32([]byte(logicalKey))
	return s.suffixes[int(h%uint32(len(s.suffixes)))]
}

// DefaultSuffixes returns n suffixes named S0..S{n-1}.
func DefaultSuffixes(n int) []string {
	if n <= 0 {
		return nil
	}
	suffixes := make([]string, n)
	for i := range suffixes {
		suffixes[i] = fmt.Sprintf("S%d", i)
	}
	return suffixes
}
