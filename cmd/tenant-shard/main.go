// Package main runs the shard router against a tenant-scoped logical key on
// the shared table: 120 event writes spread over the shards, then one fan-out
// read merged descending.
package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/event"
	"github.com/hotrowlabs/hotrow/internal/shard"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
	"github.com/hotrowlabs/hotrow/internal/tenant"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

const (
	eventCount    = 120
	perShardLimit = 50
	globalLimit   = 5
)

// EventRouter defines the interface for sharded event writes and reads.
type EventRouter interface {
	WriteBatch(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error)
	Read(ctx context.Context, logicalKey string, opts shard.ReadOptions) (*shard.ReadResult, error)
}

// handler implements the tenant shard demo logic.
type handler struct {
	router     EventRouter
	logicalKey string
}

// newHandler creates a new handler.
func newHandler(router EventRouter, logicalKey string) *handler {
	return &handler{router: router, logicalKey: logicalKey}
}

// handle writes a burst of events under the tenant's logical key and reads
// the merged top of the stream back.
func (h *handler) handle(ctx context.Context) error {
	entries := make([]shard.Entry, 0, eventCount)
	for n := 0; n < eventCount; n++ {
		entries = append(entries, shard.Entry{
			SortKey: event.SortKey(int64(n), n),
			Payload: map[string]any{"seq": n},
		})
	}
	records, err := h.router.WriteBatch(ctx, h.logicalKey, entries)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.PartitionKey]++
	}
	for pk, count := range counts {
		logger.InfoContext(ctx, "Shard write distribution",
			slog.String("physical_key", pk),
			slog.Int("count", count),
		)
	}

	result, err := h.router.Read(ctx, h.logicalKey, shard.ReadOptions{
		PerShardLimit: perShardLimit,
		GlobalLimit:   globalLimit,
	})
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		keys = append(keys, rec.SortKey)
	}
	logger.InfoContext(ctx, "Merged newest events",
		slog.String("logical_key", h.logicalKey),
		slog.String("sort_keys", strings.Join(keys, ",")),
		slog.Bool("partial", result.Partial),
	)
	return nil
}

func main() {
	ctx := context.Background()

	shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to set up telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = shutdown(ctx) }()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("FATAL: Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client := cfg.NewDynamoDBClient(awsCfg)

	router, err := shard.NewRouter(event.NewStore(client, cfg.SharedTable), shard.Config{
		Suffixes: shard.DefaultSuffixes(cfg.ShardCount),
	})
	if err != nil {
		logger.Error("FATAL: Failed to create shard router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ns := tenant.Namespace{TenantID: cfg.TenantID}
	h := newHandler(router, ns.EventLogicalKey("hot"))
	if err := h.handle(ctx); err != nil {
		logger.Error("FATAL: Tenant shard demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
