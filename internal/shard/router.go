package shard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

const (
	// DefaultPerShardLimit is the per-shard fetch limit used when a read
	// does not set one.
	DefaultPerShardLimit = 50

	// DefaultMaxTries is the retry budget per shard operation, including
	// the first attempt.
	DefaultMaxTries = 4

	// DefaultPerShardTimeout bounds each shard query so one slow shard
	// cannot stall the whole read.
	DefaultPerShardTimeout = 2 * time.Second
)

// Config configures a Router. Suffixes is required; the remaining fields
// default to the constants above. Changing the number of suffixes for a
// logical key that already has records requires an offline rewrite of those
// records; the router never reassigns a record to another shard.
type Config struct {
	Suffixes        []string
	Selector        Selector
	PerShardLimit   int32
	MaxTries        uint
	PerShardTimeout time.Duration
}

// ReadOptions controls one fan-out read. A zero PerShardLimit falls back to
// the router's limit; a zero GlobalLimit disables global truncation.
type ReadOptions struct {
	PerShardLimit int32
	GlobalLimit   int
}

// ReadResult is the merged view over all shards. Partial is true when at
// least one shard query failed after retries; FailedShards lists the
// suffixes that were omitted from the merge.
type ReadResult struct {
	Records      []Record
	Partial      bool
	FailedShards []string
}

// Router maps a logical key to one of a fixed set of physical partition keys
// on write, and on read fans out to all shards and merges.
type Router struct {
	store           Store
	suffixes        []string
	suffixSet       map[string]struct{}
	selector        Selector
	perShardLimit   int32
	maxTries        uint
	perShardTimeout time.Duration
}

// NewRouter creates a Router over store. Configuration errors (no suffixes,
// an empty or duplicate suffix) are reported here, never at request time.
func NewRouter(store Store, cfg Config) (*Router, error) {
	if len(cfg.Suffixes) == 0 {
		return nil, ErrNoSuffixes
	}
	suffixSet := make(map[string]struct{}, len(cfg.Suffixes))
	for _, s := range cfg.Suffixes {
		if s == "" {
			return nil, ErrEmptySuffix
		}
		if _, ok := suffixSet[s]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSuffix, s)
		}
		suffixSet[s] = struct{}{}
	}

	selector := cfg.Selector
	if selector == nil {
		var err error
		selector, err = NewRandomSelector(cfg.Suffixes)
		if err != nil {
			return nil, err
		}
	}

	perShardLimit := cfg.PerShardLimit
	if perShardLimit <= 0 {
		perShardLimit = DefaultPerShardLimit
	}
	maxTries := cfg.MaxTries
	if maxTries == 0 {
		maxTries = DefaultMaxTries
	}
	perShardTimeout := cfg.PerShardTimeout
	if perShardTimeout <= 0 {
		perShardTimeout = DefaultPerShardTimeout
	}

	return &Router{
		store:           store,
		suffixes:        append([]string(nil), cfg.Suffixes...),
		suffixSet:       suffixSet,
		selector:        selector,
		perShardLimit:   perShardLimit,
		maxTries:        maxTries,
		perShardTimeout: perShardTimeout,
	}, nil
}

// PhysicalKey returns the partition key for one shard of a logical key.
func PhysicalKey(logicalKey, suffix string) string {
	return logicalKey + "#" + suffix
}

// Suffixes returns the shard suffixes in configuration order.
func (r *Router) Suffixes() []string {
	return append([]string(nil), r.suffixes...)
}

// Write persists one record under a shard of logicalKey chosen by the
// selector. Throttling is retried with exponential backoff and jitter; once
// the retry budget is exhausted the error is returned, never dropped. The
// returned record carries the physical partition key the write landed on.
func (r *Router) Write(ctx context.Context, logicalKey, sortKey string, payload map[string]any) (Record, error) {
	ctx, span := otel.Tracer("hotrow/shard").Start(ctx, "Router.Write")
	defer span.End()

	suffix := r.selector.SelectShard(logicalKey)
	if _, ok := r.suffixSet[suffix]; !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownSuffix, suffix)
	}
	span.SetAttributes(attribute.String("shard.suffix", suffix))

	rec := Record{
		PartitionKey: PhysicalKey(logicalKey, suffix),
		SortKey:      sortKey,
		Payload:      payload,
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := r.store.Put(ctx, rec); err != nil {
			return struct{}{}, classify(err)
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(newBackOff()), backoff.WithMaxTries(r.maxTries))
	if err != nil {
		return Record{}, fmt.Errorf("write to shard %s: %w", suffix, err)
	}
	return rec, nil
}

// WriteBatch assigns each entry to a shard independently and persists the
// entries grouped per shard. It returns the records with their assigned
// partition keys.
func (r *Router) WriteBatch(ctx context.Context, logicalKey string, entries []Entry) ([]Record, error) {
	ctx, span := otel.Tracer("hotrow/shard").Start(ctx, "Router.WriteBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("shard.entries", len(entries)))

	records := make([]Record, 0, len(entries))
	groups := make(map[string][]Record, len(r.suffixes))
	for _, e := range entries {
		suffix := r.selector.SelectShard(logicalKey)
		if _, ok := r.suffixSet[suffix]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSuffix, suffix)
		}
		rec := Record{
			PartitionKey: PhysicalKey(logicalKey, suffix),
			SortKey:      e.SortKey,
			Payload:      e.Payload,
		}
		records = append(records, rec)
		groups[suffix] = append(groups[suffix], rec)
	}

	for _, suffix := range r.suffixes {
		batch := groups[suffix]
		if len(batch) == 0 {
			continue
		}
		_, err := backoff.Retry(ctx, func() (struct{}, error) {
			if err := r.store.BatchPut(ctx, batch); err != nil {
				return struct{}{}, classify(err)
			}
			return struct{}{}, nil
		}, backoff.WithBackOff(newBackOff()), backoff.WithMaxTries(r.maxTries))
		if err != nil {
			return nil, fmt.Errorf("batch write to shard %s: %w", suffix, err)
		}
	}
	return records, nil
}

// Read fans out one descending range query per shard, concurrently, and
// merges the results into a single sequence sorted by sort key descending.
//
// Each shard contributes at most the per-shard limit, so a strict global
// top-K requires a per-shard limit of at least K. A shard that fails after
// retries (or times out) is omitted and the result is flagged Partial; Read
// only returns an error when every shard failed.
func (r *Router) Read(ctx context.Context, logicalKey string, opts ReadOptions) (*ReadResult, error) {
	ctx, span := otel.Tracer("hotrow/shard").Start(ctx, "Router.Read")
	defer span.End()

	limit := opts.PerShardLimit
	if limit <= 0 {
		limit = r.perShardLimit
	}

	results := make([][]Record, len(r.suffixes))
	shardErrs := make([]error, len(r.suffixes))

	var g errgroup.Group
	for i, suffix := range r.suffixes {
		pk := PhysicalKey(logicalKey, suffix)
		g.Go(func() error {
			shardCtx, cancel := context.WithTimeout(ctx, r.perShardTimeout)
			defer cancel()

			recs, err := backoff.Retry(shardCtx, func() ([]Record, error) {
				recs, err := r.store.QueryRange(shardCtx, pk, true, limit)
				if err != nil {
					return nil, classify(err)
				}
				return recs, nil
			}, backoff.WithBackOff(newBackOff()), backoff.WithMaxTries(r.maxTries))
			if err != nil {
				shardErrs[i] = fmt.Errorf("query shard %s: %w", pk, err)
				return nil
			}
			results[i] = recs
			return nil
		})
	}
	// Goroutines report through the slices, never through the group, so one
	// failed shard cannot cancel its siblings.
	_ = g.Wait()

	result := &ReadResult{}
	total := 0
	failed := 0
	for i, suffix := range r.suffixes {
		if shardErrs[i] != nil {
			logger.WarnContext(ctx, "Shard query failed, omitting from merge",
				slog.String("logical_key", logicalKey),
				slog.String("suffix", suffix),
				slog.String("error", shardErrs[i].Error()),
			)
			result.Partial = true
			result.FailedShards = append(result.FailedShards, suffix)
			failed++
			continue
		}
		total += len(results[i])
	}
	if failed == len(r.suffixes) {
		return nil, fmt.Errorf("%w: %w", ErrAllShardsFailed, errors.Join(shardErrs...))
	}

	merged := make([]Record, 0, total)
	for _, recs := range results {
		merged = append(merged, recs...)
	}
	sort.Slice(merged, func(a, b int) bool {
		if merged[a].SortKey != merged[b].SortKey {
			return merged[a].SortKey > merged[b].SortKey
		}
		return merged[a].PartitionKey < merged[b].PartitionKey
	})
	if opts.GlobalLimit > 0 && len(merged) > opts.GlobalLimit {
		merged = merged[:opts.GlobalLimit]
	}
	result.Records = merged

	span.SetAttributes(
		attribute.Int("shard.records", len(result.Records)),
		attribute.Bool("shard.partial", result.Partial),
	)
	return result, nil
}

// classify turns non-throttling errors permanent so the retry loop only
// spends its budget on recoverable capacity errors.
func classify(err error) error {
	if errors.Is(err, ErrThrottled) {
		return err
	}
	return backoff.Permanent(err)
}

func newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxInterval = time.Second
	return bo
}
