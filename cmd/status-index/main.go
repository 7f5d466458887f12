// Package main provisions the sparse status index in-band, upserts orders
// carrying its keys, and queries pending orders across all users.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/order"
	"github.com/hotrowlabs/hotrow/internal/table"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// indexWait bounds how long the command waits for a freshly created index.
const indexWait = 5 * time.Minute

// TableAdmin defines the interface for index provisioning.
type TableAdmin interface {
	EnsureGSI(ctx context.Context, indexName, hashAttr, rangeAttr string) error
}

// OrderRepository defines the interface for order operations.
type OrderRepository interface {
	PutOrder(ctx context.Context, o *order.OrderItem) error
	QueryByStatus(ctx context.Context, status string) ([]*order.OrderItem, error)
}

// handler implements the status index demo logic.
type handler struct {
	admin TableAdmin
	repo  OrderRepository
}

// newHandler creates a new handler.
func newHandler(admin TableAdmin, repo OrderRepository) *handler {
	return &handler{admin: admin, repo: repo}
}

// handle ensures the index, writes orders and queries by status.
func (h *handler) handle(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, indexWait)
	defer cancel()
	if err := h.admin.EnsureGSI(waitCtx, dynamo.IndexStatus, dynamo.AttrGSI1PK, dynamo.AttrGSI1SK); err != nil {
		return err
	}

	orders := []*order.OrderItem{
		{UserID: "u200", Date: "20250928", OrderID: "o102", Status: order.StatusShipped},
		{UserID: "u200", Date: "20250926", OrderID: "o101", Status: order.StatusPending},
	}
	for _, o := range orders {
		if err := h.repo.PutOrder(ctx, o); err != nil {
			return err
		}
	}

	pending, err := h.repo.QueryByStatus(ctx, order.StatusPending)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Pending orders across all users",
		slog.Int("count", len(pending)),
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
	tableName, err := cfg.RequireTable()
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

	h := newHandler(table.NewAdmin(client, tableName), order.NewRepository(client, tableName))
	if err := h.handle(ctx); err != nil {
		logger.Error("FATAL: Status index demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
