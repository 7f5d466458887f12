// Package main contrasts the tenant-scoped status index with the global one:
// the scoped query returns only this tenant's orders, while the global query
// is expected to be denied under tenant-scoped credentials.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/dynamo"
	"github.com/hotrowlabs/hotrow/internal/order"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
	"github.com/hotrowlabs/hotrow/internal/tenant"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// StatusQuerier defines the interface for tenant status queries.
type StatusQuerier interface {
	QueryStatusScoped(ctx context.Context, status string) ([]*order.OrderItem, error)
	QueryStatusGlobal(ctx context.Context, status string) ([]*order.OrderItem, error)
}

// handler implements the status comparison logic.
type handler struct {
	repo     StatusQuerier
	tenantID string
}

// newHandler creates a new handler.
func newHandler(repo StatusQuerier, tenantID string) *handler {
	return &handler{repo: repo, tenantID: tenantID}
}

// handle queries pending orders through both indexes and logs the outcomes.
func (h *handler) handle(ctx context.Context) error {
	scoped, err := h.repo.QueryStatusScoped(ctx, order.StatusPending)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Pending orders in this tenant",
		slog.String("tenant_id", h.tenantID),
		slog.Int("count", len(scoped)),
	)

	global, err := h.repo.QueryStatusGlobal(ctx, order.StatusPending)
	if err != nil {
		if dynamo.IsAccessDenied(err) {
			logger.InfoContext(ctx, "Global status query denied as expected",
				slog.String("tenant_id", h.tenantID),
			)
			return nil
		}
		return err
	}
	logger.WarnContext(ctx, "Global status query succeeded, credentials are not tenant-scoped",
		slog.String("tenant_id", h.tenantID),
		slog.Int("count", len(global)),
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
		logger.Error("FATAL: Tenant status demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
