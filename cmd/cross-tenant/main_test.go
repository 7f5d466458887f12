package main

import (
	"context"
	"errors"
	"testing"
)

type mockProber struct {
	probeFunc func(ctx context.Context, otherTenantID, userID string) (bool, error)
}

func (m *mockProber) ProbeCrossTenant(ctx context.Context, otherTenantID, userID string) (bool, error) {
	return m.probeFunc(ctx, otherTenantID, userID)
}

func TestHandleProbesOtherTenant(t *testing.T) {
	var gotTenant, gotUser string
	repo := &mockProber{
		probeFunc: func(_ context.Context, otherTenantID, userID string) (bool, error) {
			gotTenant = otherTenantID
			gotUser = userID
			return true, nil
		},
	}
	h := newHandler(repo, "t-037", "t-999")

	if err := h.handle(context.Background()); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
	if gotTenant != "t-999" {
		t.Errorf("probed tenant = %q, want t-999", gotTenant)
	}
	if gotUser != "u1" {
		t.Errorf("probed user = %q, want u1", gotUser)
	}
}

func TestHandleSurvivesSuccessfulRead(t *testing.T) {
	repo := &mockProber{
		probeFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
	}
	h := newHandler(repo, "t-037", "t-999")

	// A successful cross-tenant read is an isolation failure to report, not
	// a command error.
	if err := h.handle(context.Background()); err != nil {
		t.Fatalf("handle() error = %v", err)
	}
}

func TestHandleSurfacesProbeError(t *testing.T) {
	probeErr := errors.New("network unreachable")
	repo := &mockProber{
		probeFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, probeErr
		},
	}
	h := newHandler(repo, "t-037", "t-999")

	if err := h.handle(context.Background()); !errors.Is(err, probeErr) {
		t.Fatalf("handle() error = %v, want %v", err, probeErr)
	}
}
