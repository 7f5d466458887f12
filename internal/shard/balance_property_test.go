package shard

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_RandomSelectionApproximateBalance validates that uniform
// random shard selection stays statistically balanced: over 120 selections
// across 4 shards no shard should collect more than twice its expected 30.
// The bound is loose on purpose; the distribution is random, not round-robin,
// and the test asserts approximate balance over many trials rather than
// exact equality.
func TestProperty_RandomSelectionApproximateBalance(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	suffixes := DefaultSuffixes(4)

	properties.Property("no shard exceeds 2x the expected share of 120 selections", prop.ForAll(
		func(logicalKey string) bool {
			selector, err := NewRandomSelector(suffixes)
			if err != nil {
				return false
			}

			counts := make(map[string]int, len(suffixes))
			for i := 0; i < 120; i++ {
				counts[selector.SelectShard(logicalKey)]++
			}

			total := 0
			for _, suffix := range suffixes {
				if counts[suffix] > 60 {
					return false
				}
				total += counts[suffix]
			}
			return total == 120
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
