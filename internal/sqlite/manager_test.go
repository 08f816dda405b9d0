package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fieldside/rostervault/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(t.TempDir(), nil)
	m.sleep = func(context.Context, time.Duration) error { return nil }
	t.Cleanup(func() { m.CloseActive() })
	return m
}

func TestManager_OpenIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	a, err := m.Open(ctx, "user-a")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	b, err := m.Open(ctx, "user-a")
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	if a != b {
		t.Error("same principal produced two handles")
	}
}

func TestManager_SwitchClosesPrevious(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	a, err := m.Open(ctx, "user-a")
	if err != nil {
		t.Fatalf("Open user-a failed: %v", err)
	}
	b, err := m.Open(ctx, "user-b")
	if err != nil {
		t.Fatalf("Open user-b failed: %v", err)
	}
	if a.Path() == b.Path() {
		t.Error("distinct principals share a partition file")
	}
	// The previous handle is closed.
	if _, err := a.Get(ctx, "k"); !errors.Is(err, types.ErrStorageUnavailable) {
		t.Errorf("expected previous handle closed, got %v", err)
	}
	if m.Active() != b {
		t.Error("Active() does not return the new handle")
	}
}

func TestManager_EmptyPrincipal(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Open(context.Background(), ""); err != types.ErrMissingPrincipal {
		t.Errorf("expected ErrMissingPrincipal, got %v", err)
	}
}

func TestManager_OpenRetryExhaustion(t *testing.T) {
	m := newTestManager(t)

	attempts := 0
	orig := openPartition
	openPartition = func(path string) (*Store, error) {
		attempts++
		return nil, fmt.Errorf("disk busy")
	}
	defer func() { openPartition = orig }()

	_, err := m.Open(context.Background(), "user-a")
	if !errors.Is(err, types.ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
	if attempts != openMaxAttempts {
		t.Errorf("attempts = %d, want %d", attempts, openMaxAttempts)
	}
}

func TestManager_OpenRecoversAfterTransientFailure(t *testing.T) {
	m := newTestManager(t)

	attempts := 0
	orig := openPartition
	openPartition = func(path string) (*Store, error) {
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("locked")
		}
		return orig(path)
	}
	defer func() { openPartition = orig }()

	s, err := m.Open(context.Background(), "user-a")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s == nil {
		t.Fatal("Open returned nil store")
	}
}
