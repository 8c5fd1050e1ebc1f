package budget

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/errs"
	"bilancio/internal/ledger"
	"bilancio/internal/storage/memory"
)

func newAllocatorFixture(t *testing.T) (*Allocator, *memory.Store, *ledger.View, core.Category) {
	t.Helper()

	store := memory.New()
	wallet := core.Wallet{ID: uuid.New(), Name: "Main", Balance: money(2_000_000)}
	food := core.Category{ID: uuid.New(), Name: "Food", Type: core.Expense}
	store.SeedWallet(wallet)
	store.SeedCategory(food)

	view := ledger.NewView(2026, time.January)
	view.Replace([]core.Wallet{wallet}, []core.Category{food})

	return NewAllocator(store, view), store, view, food
}

func TestAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("persists and patches view", func(t *testing.T) {
		alloc, store, view, food := newAllocatorFixture(t)

		err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{food.ID: money(400_000)})
		if err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}

		got, err := store.Category(ctx, food.ID)
		if err != nil {
			t.Fatalf("Category() error = %v", err)
		}
		if got.BudgetLimit.Cents != 400_000 {
			t.Errorf("stored limit = %d, want 400000", got.BudgetLimit.Cents)
		}
		if view.Categories()[0].BudgetLimit.Cents != 400_000 {
			t.Errorf("view limit = %d, want 400000", view.Categories()[0].BudgetLimit.Cents)
		}
	})

	t.Run("rejects sum over available before writing", func(t *testing.T) {
		alloc, store, _, food := newAllocatorFixture(t)

		err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{food.ID: money(2_000_001)})
		if !errors.Is(err, errs.ErrInsufficientFunds) {
			t.Fatalf("Allocate() error = %v, want ErrInsufficientFunds", err)
		}

		got, _ := store.Category(ctx, food.ID)
		if got.BudgetLimit.Cents != 0 {
			t.Errorf("store was written on rejected allocation: limit = %d", got.BudgetLimit.Cents)
		}
	})

	t.Run("allows allocating the full pool", func(t *testing.T) {
		alloc, _, _, food := newAllocatorFixture(t)

		if err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{food.ID: money(2_000_000)}); err != nil {
			t.Fatalf("Allocate() error = %v", err)
		}
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		alloc, _, _, _ := newAllocatorFixture(t)

		err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{uuid.New(): money(100)})
		if !errors.Is(err, errs.ErrNotFound) {
			t.Fatalf("Allocate() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		alloc, _, _, food := newAllocatorFixture(t)

		err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{food.ID: money(-1)})
		if !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("Allocate() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("rejects income category", func(t *testing.T) {
		alloc, store, _, _ := newAllocatorFixture(t)
		salary := core.Category{ID: uuid.New(), Name: "Salary", Type: core.Income}
		store.SeedCategory(salary)

		err := alloc.Allocate(ctx, map[uuid.UUID]core.Money{salary.ID: money(100)})
		if !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("Allocate() error = %v, want ErrInvalid", err)
		}
	})

	t.Run("rejects empty allocation set", func(t *testing.T) {
		alloc, _, _, _ := newAllocatorFixture(t)

		err := alloc.Allocate(ctx, nil)
		if !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("Allocate() error = %v, want ErrInvalid", err)
		}
	})
}

func TestUpdateCategoryBudget(t *testing.T) {
	ctx := context.Background()
	alloc, store, view, food := newAllocatorFixture(t)

	if err := alloc.UpdateCategoryBudget(ctx, food.ID, money(55_000)); err != nil {
		t.Fatalf("UpdateCategoryBudget() error = %v", err)
	}

	got, err := store.Category(ctx, food.ID)
	if err != nil {
		t.Fatalf("Category() error = %v", err)
	}
	if got.BudgetLimit.Cents != 55_000 {
		t.Errorf("stored limit = %d, want 55000", got.BudgetLimit.Cents)
	}
	if view.Categories()[0].BudgetLimit.Cents != 55_000 {
		t.Errorf("view limit = %d, want 55000", view.Categories()[0].BudgetLimit.Cents)
	}

	if err := alloc.UpdateCategoryBudget(ctx, food.ID, money(-1)); !errors.Is(err, errs.ErrInvalid) {
		t.Errorf("negative limit error = %v, want ErrInvalid", err)
	}
	if err := alloc.UpdateCategoryBudget(ctx, uuid.New(), money(100)); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("unknown category error = %v, want ErrNotFound", err)
	}
}
