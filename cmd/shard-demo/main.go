// Package main demonstrates write sharding for a hot user: 120 events are
// spread across the shard suffixes, then a fan-out read merges them back and
// reports the most recent five.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/event"
	"github.com/hotrowlabs/hotrow/internal/shard"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

const (
	writeCount    = 120
	perShardLimit = 50
	topK          = 5
)

// EventRouter defines the interface for sharded event operations.
type EventRouter interface {
	WriteBatch(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error)
	Read(ctx context.Context, logicalKey string, opts shard.ReadOptions) (*shard.ReadResult, error)
}

// handler implements the shard demo logic.
type handler struct {
	router     EventRouter
	logicalKey string
}

// newHandler creates a new handler.
func newHandler(router EventRouter, logicalKey string) *handler {
	return &handler{
		router:     router,
		logicalKey: logicalKey,
	}
}

// handle writes events across shards and reads them back merged.
func (h *handler) handle(ctx context.Context) error {
	entries := make([]shard.Entry, writeCount)
	for n := range entries {
		entries[n] = shard.Entry{
			SortKey: event.SortKey(int64(n), n),
			Payload: map[string]any{"n": n},
		}
	}
	records, err := h.router.WriteBatch(ctx, h.logicalKey, entries)
	if err != nil {
		return err
	}

	perShard := make(map[string]int)
	for _, rec := range records {
		perShard[rec.PartitionKey]++
	}
	logger.InfoContext(ctx, "Wrote events across shards",
		slog.String("logical_key", h.logicalKey),
		slog.Int("count", len(records)),
		slog.Any("per_shard", perShard),
	)

	result, err := h.router.Read(ctx, h.logicalKey, shard.ReadOptions{
		PerShardLimit: perShardLimit,
		GlobalLimit:   topK,
	})
	if err != nil {
		return err
	}

	top := make([]string, 0, len(result.Records))
	for _, rec := range result.Records {
		top = append(top, rec.SortKey)
	}
	logger.InfoContext(ctx, "Fan-out read merged",
		slog.Int("returned", len(result.Records)),
		slog.Bool("partial", result.Partial),
		slog.Any("failed_shards", result.FailedShards),
		slog.Any("top", top),
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
	table, err := cfg.RequireTable()
	if err != nil {
		logger.Error("FATAL: " + err.Error())
		os.Exit(1)
	}

	awsCfg, err := cfg.LoadAWSConfig(ctx)
	if err != nil {
		logger.Error("FATAL: Failed to load AWS config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	client := cfg.NewDynamoDBClient(awsCfg)

	store := event.NewStore(client, table)
	router, err := shard.NewRouter(store, shard.Config{
		Suffixes: shard.DefaultSuffixes(cfg.ShardCount),
	})
	if err != nil {
		logger.Error("FATAL: Failed to create router", slog.String("error", err.Error()))
		os.Exit(1)
	}

	h := newHandler(router, dynamo.PrefixUser+cfg.UserID)
	if err := h.handle(ctx); err != nil {
		logger.Error("FATAL: Shard demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
