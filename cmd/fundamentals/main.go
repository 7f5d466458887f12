// Package main seeds one user's partition with a profile and orders, then
// contrasts the efficient single-partition query with a table scan.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/order"
	"github.com/hotrowlabs/hotrow/internal/table"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// TableAdmin defines the interface for table provisioning.
type TableAdmin interface {
	EnsureTable(ctx context.Context) error
}

// OrderRepository defines the interface for user and order operations.
type OrderRepository interface {
	Seed(ctx context.Context, user *order.UserItem, orders []*order.OrderItem) error
	GetUserPartition(ctx context.Context, userID string) (*order.Partition, error)
	ScanSample(ctx context.Context, limit int32) ([]map[string]types.AttributeValue, error)
}

// handler implements the fundamentals demo logic.
type handler struct {
	admin TableAdmin
	repo  OrderRepository
}

// newHandler creates a new handler.
func newHandler(admin TableAdmin, repo OrderRepository) *handler {
	return &handler{admin: admin, repo: repo}
}

// handle seeds and queries one user partition.
func (h *handler) handle(ctx context.Context) error {
	if err := h.admin.EnsureTable(ctx); err != nil {
		return err
	}

	user := &order.UserItem{UserID: "u123", Name: "Ada"}
	orders := []*order.OrderItem{
		{UserID: "u123", Date: "20250927", OrderID: "o1", Status: order.StatusPending},
		{UserID: "u123", Date: "20250928", OrderID: "o2", Status: order.StatusShipped},
	}
	if err := h.repo.Seed(ctx, user, orders); err != nil {
		return err
	}

	// Efficient: one query returns the profile and every order.
	partition, err := h.repo.GetUserPartition(ctx, "u123")
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Queried user partition",
		slog.String("user_id", "u123"),
		slog.Bool("profile", partition.User != nil),
		slog.Int("orders", len(partition.Orders)),
	)

	// Inefficient: a table scan, shown only for contrast.
	sample, err := h.repo.ScanSample(ctx, 5)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Scan sample", slog.Int("items", len(sample)))
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
		logger.Error("FATAL: Fundamentals demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
