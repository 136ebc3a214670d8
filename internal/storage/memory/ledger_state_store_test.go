package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"pumpx-core/internal/domain"
	"pumpx-core/internal/storage"
)

func TestLedgerStateStore_LoadEmpty(t *testing.T) {
	store := NewLedgerStateStore()

	_, err := store.Load(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound on empty store, got %v", err)
	}
}

func TestLedgerStateStore_SaveAndLoad(t *testing.T) {
	store := NewLedgerStateStore()
	ctx := context.Background()

	state := domain.NewLedgerState()
	state.ByCategory[domain.FeeCategoryCreation] = decimal.RequireFromString("0.01")
	state.LifetimeTotal = decimal.RequireFromString("0.01")

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.LifetimeTotal.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("lifetime total: got %s, want 0.01", loaded.LifetimeTotal)
	}
}

func TestLedgerStateStore_Isolation(t *testing.T) {
	store := NewLedgerStateStore()
	ctx := context.Background()

	state := domain.NewLedgerState()
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's copy after Save must not affect the store.
	state.LifetimeTotal = decimal.NewFromInt(99)

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !loaded.LifetimeTotal.IsZero() {
		t.Errorf("stored state mutated through caller copy: got %s", loaded.LifetimeTotal)
	}

	// Mutating the loaded copy must not affect subsequent loads.
	loaded.LifetimeTotal = decimal.NewFromInt(42)
	again, _ := store.Load(ctx)
	if !again.LifetimeTotal.IsZero() {
		t.Errorf("stored state mutated through loaded copy: got %s", again.LifetimeTotal)
	}
}

func TestLedgerStateStore_NilRejected(t *testing.T) {
	store := NewLedgerStateStore()
	if err := store.Save(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for nil state, got %v", err)
	}
}
