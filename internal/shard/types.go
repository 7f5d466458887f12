// Package shard implements write sharding for hot partition keys: writes for
// one logical key are spread across a fixed set of physical partition keys,
// and reads fan out to every shard and merge the results client-side.
package shard

import (
	"context"
	"errors"
)

// Error types for router operations.
var (
	// ErrThrottled marks a capacity error from the underlying store. Store
	// implementations wrap throttling errors with it so the router knows the
	// operation is safe to retry.
	ErrThrottled = errors.New("store throttled")

	ErrNoSuffixes      = errors.New("shard suffixes must not be empty")
	ErrEmptySuffix     = errors.New("shard suffix must not be empty")
	ErrDuplicateSuffix = errors.New("duplicate shard suffix")
	ErrUnknownSuffix   = errors.New("selector returned unknown shard suffix")
	ErrAllShardsFailed = errors.New("all shard queries failed")
)

// Record is one entry in a sharded partition. The payload is opaque to the
// router.
type Record struct {
	PartitionKey string
	SortKey      string
	Payload      map[string]any
}

// Entry is a record pending shard assignment: a sort key and payload without
// a physical partition key yet.
type Entry struct {
	SortKey string
	Payload map[string]any
}

// Store is the external key-range store the router writes to and reads from.
// QueryRange returns records for one partition key ordered by sort key,
// descending when descending is true, up to limit records.
type Store interface {
	Put(ctx context.Context, rec Record) error
	BatchPut(ctx context.Context, recs []Record) error
	QueryRange(ctx context.Context, partitionKey string, descending bool, limit int32) ([]Record, error)
}
