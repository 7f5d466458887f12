package shard

import (
	"errors"
	"testing"
)

func TestNewRandomSelector_RequiresSuffixes(t *testing.T) {
	if _, err := NewRandomSelector(nil); !errors.Is(err, ErrNoSuffixes) {
		t.Errorf("NewRandomSelector(nil) error = %v, want ErrNoSuffixes", err)
	}
}

func TestRandomSelector_ReturnsKnownSuffix(t *testing.T) {
	suffixes := DefaultSuffixes(4)
	selector, err := NewRandomSelector(suffixes)
	if err != nil {
		t.Fatalf("NewRandomSelector: %v", err)
	}

	known := make(map[string]bool, len(suffixes))
	for _, s := range suffixes {
		known[s] = true
	}
	for i := 0; i < 100; i++ {
		if suffix := selector.SelectShard("USER#hotuser"); !known[suffix] {
			t.Fatalf("unknown suffix %q", suffix)
		}
	}
}

func TestNewHashSelector_RequiresSuffixes(t *testing.T) {
	if _, err := NewHashSelector(nil); !errors.Is(err, ErrNoSuffixes) {
		t.Errorf("NewHashSelector(nil) error = %v, want ErrNoSuffixes", err)
	}
}

func TestHashSelector_Deterministic(t *testing.T) {
	selector, err := NewHashSelector(DefaultSuffixes(8))
	if err != nil {
		t.Fatalf("NewHashSelector: %v", err)
	}

	first := selector.SelectShard("TENANT#t-037#USER#u1")
	for i := 0; i < 10; i++ {
		if got := selector.SelectShard("TENANT#t-037#USER#u1"); got != first {
			t.Fatalf("hash selection not stable: %q then %q", first, got)
		}
	}

	// Different keys should not all collapse onto one shard.
	seen := make(map[string]bool)
	for _, key := range []string{"USER#u1", "USER#u2", "USER#u3", "USER#u4", "USER#u5", "USER#u6", "USER#u7", "USER#u8"} {
		seen[selector.SelectShard(key)] = true
	}
	if len(seen) < 2 {
		t.Errorf("8 distinct keys mapped to %d shard(s)", len(seen))
	}
}
