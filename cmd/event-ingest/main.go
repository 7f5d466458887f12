// Package main is the Lambda entry point that drains event messages from SQS
// and writes each one through the shard router. Messages that fail to write
// are reported back as batch item failures so SQS redelivers only those.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/event"
	"github.com/hotrowlabs/hotrow/internal/shard"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// ingestMessage is the body of one SQS message.
type ingestMessage struct {
	LogicalKey string         `json:"logicalKey"`
	Payload    map[string]any `json:"payload"`
}

// EventWriter defines the interface for sharded event writes.
type EventWriter interface {
	Write(ctx context.Context, logicalKey, sortKey string, payload map[string]any) (shard.Record, error)
}

// handler implements the SQS event ingestion logic.
type handler struct {
	router EventWriter
	now    func() time.Time
}

// newHandler creates a new handler.
func newHandler(router EventWriter) *handler {
	return &handler{router: router, now: time.Now}
}

// handle writes each record through the router. A malformed body is a
// permanent failure and is dropped after logging; redelivery cannot fix it.
func (h *handler) handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	var response events.SQSEventResponse
	for _, record := range sqsEvent.Records {
		if err := h.ingest(ctx, record); err != nil {
			logger.ErrorContext(ctx, "Failed to ingest event, returning for redelivery",
				slog.String("message_id", record.MessageId),
				slog.String("error", err.Error()),
			)
			response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: record.MessageId,
			})
		}
	}
	return response, nil
}

func (h *handler) ingest(ctx context.Context, record events.SQSMessage) error {
	var msg ingestMessage
	if err := json.Unmarshal([]byte(record.Body), &msg); err != nil {
		logger.WarnContext(ctx, "Dropping malformed event message",
			slog.String("message_id", record.MessageId),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if msg.LogicalKey == "" {
		logger.WarnContext(ctx, "Dropping event message without logical key",
			slog.String("message_id", record.MessageId),
		)
		return nil
	}

	rec, err := h.router.Write(ctx, msg.LogicalKey, event.UniqueSortKey(h.now()), msg.Payload)
	if err != nil {
		return fmt.Errorf("write event for %s: %w", msg.LogicalKey, err)
	}
	logger.InfoContext(ctx, "Ingested event",
		slog.String("logical_key", msg.LogicalKey),
		slog.String("physical_key", rec.PartitionKey),
		slog.String("sort_key", rec.SortKey),
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

	h := newHandler(router)
	lambda.Start(h.handle)
}
