// Package main seeds one tenant's namespace on the shared table and reads
// the user's partition back through tenant-scoped keys.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/order"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
	"github.com/hotrowlabs/hotrow/internal/tenant"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// TenantRepository defines the interface for tenant-scoped seeding.
type TenantRepository interface {
	SeedNamespace(ctx context.Context, user *order.UserItem, orders []*order.OrderItem) error
	GetUserPartition(ctx context.Context, userID string) ([]map[string]types.AttributeValue, error)
}

// handler implements the tenant seeding logic.
type handler struct {
	repo     TenantRepository
	tenantID string
}

// newHandler creates a new handler.
func newHandler(repo TenantRepository, tenantID string) *handler {
	return &handler{repo: repo, tenantID: tenantID}
}

// handle seeds a user with orders under the tenant namespace and queries the
// partition back.
func (h *handler) handle(ctx context.Context) error {
	user := &order.UserItem{UserID: "u1", Name: "Tenant User One", Email: "u1@example.org"}
	orders := []*order.OrderItem{
		{UserID: "u1", Date: "20250925", OrderID: "o1", Status: order.StatusPending},
		{UserID: "u1", Date: "20250927", OrderID: "o2", Status: order.StatusShipped},
	}
	if err := h.repo.SeedNamespace(ctx, user, orders); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Seeded tenant namespace",
		slog.String("tenant_id", h.tenantID),
		slog.String("user_id", user.UserID),
		slog.Int("orders", len(orders)),
	)

	items, err := h.repo.GetUserPartition(ctx, user.UserID)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Tenant user partition",
		slog.String("tenant_id", h.tenantID),
		slog.Int("items", len(items)),
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

	h := newHandler(tenant.NewRepository(client, cfg.SharedTable, cfg.TenantID), cfg.TenantID)
	if err := h.handle(ctx); err != nil {
		logger.Error("FATAL: Tenant seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
