// Package main seeds the single-table demo data: one user profile and three
// orders with mixed statuses under one partition key.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hotrowlabs/hotrow/internal/config"
	"github.com/hotrowlabs/hotrow/internal/order"
	"github.com/hotrowlabs/hotrow/internal/telemetry"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

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
	repo := order.NewRepository(cfg.NewDynamoDBClient(awsCfg), table)

	user := &order.UserItem{UserID: "u200", Email: "ada@example.org"}
	orders := []*order.OrderItem{
		{UserID: "u200", Date: "20250925", OrderID: "o100", Status: order.StatusPending},
		{UserID: "u200", Date: "20250926", OrderID: "o101", Status: order.StatusPending},
		{UserID: "u200", Date: "20250928", OrderID: "o102", Status: order.StatusShipped},
	}
	if err := repo.Seed(ctx, user, orders); err != nil {
		logger.Error("FATAL: Seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.InfoContext(ctx, "Seeded single-table items",
		slog.String("user_id", "u200"),
		slog.String("table", table),
		slog.Int("orders", len(orders)),
	)
}
