package main

import (
	"context"
	"errors"
	"testing"

	"github.com/hotrowlabs/hotrow/internal/shard"
)

// mockRouter implements EventRouter for testing.
type mockRouter struct {
	writeBatchFunc func(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error)
	readFunc       func(ctx context.Context, logicalKey string, opts shard.ReadOptions) (*shard.ReadResult, error)
}

func (m *mockRouter) WriteBatch(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error) {
	if m.writeBatchFunc != nil {
		return m.writeBatchFunc(ctx, logicalKey, entries)
	}
	records := make([]shard.Record, len(entries))
	for i, e := range entries {
		records[i] = shard.Record{PartitionKey: logicalKey + "#S0", SortKey: e.SortKey, Payload: e.Payload}
	}
	return records, nil
}

func (m *mockRouter) Read(ctx context.Context, logicalKey string, opts shard.ReadOptions) (*shard.ReadResult, error) {
	if m.readFunc != nil {
		return m.readFunc(ctx, logicalKey, opts)
	}
	return &shard.ReadResult{}, nil
}

func TestHandle_WritesThenReadsTopFive(t *testing.T) {
	ctx := context.Background()

	var wroteEntries int
	mock := &mockRouter{
		writeBatchFunc: func(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error) {
			if logicalKey != "USER#hotuser" {
				t.Errorf("logical key = %q", logicalKey)
			}
			wroteEntries = len(entries)
			records := make([]shard.Record, len(entries))
			for i, e := range entries {
				records[i] = shard.Record{PartitionKey: logicalKey + "#S0", SortKey: e.SortKey}
			}
			return records, nil
		},
		readFunc: func(ctx context.Context, logicalKey string, opts shard.ReadOptions) (*shard.ReadResult, error) {
			if opts.PerShardLimit != 50 {
				t.Errorf("per-shard limit = %d, want 50", opts.PerShardLimit)
			}
			if opts.GlobalLimit != 5 {
				t.Errorf("global limit = %d, want 5", opts.GlobalLimit)
			}
			return &shard.ReadResult{}, nil
		},
	}

	h := newHandler(mock, "USER#hotuser")
	if err := h.handle(ctx); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if wroteEntries != 120 {
		t.Errorf("wrote %d entries, want 120", wroteEntries)
	}
}

func TestHandle_WriteFailureSurfaced(t *testing.T) {
	mock := &mockRouter{
		writeBatchFunc: func(ctx context.Context, logicalKey string, entries []shard.Entry) ([]shard.Record, error) {
			return nil, errors.New("throttled")
		},
	}

	h := newHandler(mock, "USER#hotuser")
	if err := h.handle(context.Background()); err == nil {
		t.Error("expected error")
	}
}
