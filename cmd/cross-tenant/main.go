// Package main probes another tenant's data from this tenant's credentials.
// Under a working leading-key policy the probe is denied; a successful read
// is reported loudly because it means isolation is broken.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
	"github.com/hotrowlabs/hotrow/internal/tenant"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// TenantProber defines the interface for the cross-tenant probe.
type TenantProber interface {
	ProbeCrossTenant(ctx context.Context, otherTenantID, userID string) (bool, error)
}

// handler implements the cross-tenant probe logic.
type handler struct {
	repo        TenantProber
	tenantID    string
	otherTenant string
}

// newHandler creates a new handler.
func newHandler(repo TenantProber, tenantID, otherTenant string) *handler {
	return &handler{repo: repo, tenantID: tenantID, otherTenant: otherTenant}
}

// handle attempts the cross-tenant read and classifies the outcome.
func (h *handler) handle(ctx context.Context) error {
	denied, err := h.repo.ProbeCrossTenant(ctx, h.otherTenant, "u1")
	if err != nil {
		return err
	}
	if denied {
		logger.InfoContext(ctx, "Cross-tenant read denied as expected",
			slog.String("tenant_id", h.tenantID),
			slog.String("other_tenant_id", h.otherTenant),
		)
		return nil
	}
	logger.WarnContext(ctx, "Cross-tenant read succeeded, tenant isolation is broken",
		slog.String("tenant_id", h.tenantID),
		slog.String("other_tenant_id", h.otherTenant),
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

	h := newHandler(tenant.NewRepository(client, cfg.SharedTable, cfg.TenantID), cfg.TenantID, cfg.OtherTenant)
	if err := h.handle(ctx); err != nil {
		logger.Error("FATAL: Cross-tenant probe failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
