// Package ledger keeps wallet balances and category spend consistent with
// the transaction set. It is the only writer of transactions; after every
// mutation it reloads wallets and categories from the store instead of
// patching local deltas, so the session view can never drift from the
// store's own rollups.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/errs"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	Wallets(ctx context.Context) ([]core.Wallet, error)
	Wallet(ctx context.Context, id uuid.UUID) (core.Wallet, error)
	Categories(ctx context.Context, year int, month time.Month) ([]core.Category, error)
	Category(ctx context.Context, id uuid.UUID) (core.Category, error)
	Transaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
}

// EventPublisher announces transaction mutations to other sessions.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, kind string, id uuid.UUID, year int, month time.Month) error
}

// Service orchestrates transaction writes against the store and the
// session view.
type Service struct {
	store  Store
	view   *View
	events EventPublisher
}

func New(store Store, view *View, events EventPublisher) *Service {
	return &Service{
		store:  store,
		view:   view,
		events: events,
	}
}

// View exposes the session snapshot for read-side consumers.
func (s *Service) View() *View {
	return s.view
}

// RecordTransaction validates, persists and returns a new transaction,
// then reloads the wallet/category aggregates. Validation failures are
// raised before any store call.
func (s *Service) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %s", errs.ErrInvalid, err)
	}
	if err := s.resolveReferences(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		// The write landed; the view keeps its previous consistent snapshot.
		return created, fmt.Errorf("reload after create: %w", err)
	}

	s.publish(ctx, "created", created)
	return created, nil
}

// ReviseTransaction applies an edit to an existing transaction. An edit can
// move value between wallets and categories, so the same full reload runs
// afterwards; computing a delta across two entities is not worth the risk.
func (s *Service) ReviseTransaction(ctx context.Context, id uuid.UUID, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %s", errs.ErrInvalid, err)
	}
	if err := s.resolveReferences(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	tx.ID = id
	updated, err := s.store.UpdateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		return updated, fmt.Errorf("reload after update: %w", err)
	}

	s.publish(ctx, "updated", updated)
	return updated, nil
}

// RemoveTransaction deletes a transaction and reloads aggregates. Deleting
// an id that is already gone reports ErrNotFound rather than succeeding
// silently, so callers can distinguish the two.
func (s *Service) RemoveTransaction(ctx context.Context, id uuid.UUID) error {
	tx, err := s.store.Transaction(ctx, id)
	if err != nil {
		return fmt.Errorf("load transaction for delete: %w", err)
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		return fmt.Errorf("reload after delete: %w", err)
	}

	s.publish(ctx, "deleted", tx)
	return nil
}

// SelectMonth switches the session period and reloads month-scoped
// aggregates for it.
func (s *Service) SelectMonth(ctx context.Context, year int, month time.Month) error {
	s.view.SelectMonth(year, month)
	return s.Reload(ctx)
}

// Reload re-fetches wallets and categories from the store and swaps them
// into the view. On any failure the view is left untouched.
func (s *Service) Reload(ctx context.Context) error {
	wallets, err := s.store.Wallets(ctx)
	if err != nil {
		return fmt.Errorf("reload wallets: %w", err)
	}
	year, month := s.view.Month()
	categories, err := s.store.Categories(ctx, year, month)
	if err != nil {
		return fmt.Errorf("reload categories: %w", err)
	}
	s.view.Replace(wallets, categories)
	return nil
}

// resolveReferences checks that every entity the transaction points at
// exists, and that the category's type matches the transaction's.
func (s *Service) resolveReferences(ctx context.Context, tx core.Transaction) error {
	if _, err := s.store.Wallet(ctx, tx.WalletID); err != nil {
		return fmt.Errorf("resolve wallet: %w", err)
	}
	if tx.Type == core.Transfer {
		if _, err := s.store.Wallet(ctx, tx.ToWalletID); err != nil {
			return fmt.Errorf("resolve target wallet: %w", err)
		}
		return nil
	}
	cat, err := s.store.Category(ctx, tx.CategoryID)
	if err != nil {
		return fmt.Errorf("resolve category: %w", err)
	}
	if cat.Type != tx.Type {
		return fmt.Errorf("%w: category type %s does not match transaction type %s", errs.ErrInvalid, cat.Type, tx.Type)
	}
	return nil
}

// publish is best-effort: a broker outage never fails a financial write.
func (s *Service) publish(ctx context.Context, kind string, tx core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, kind, tx.ID, tx.Date.Year(), tx.Date.Month()); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind, "transaction_id", tx.ID, "error", err)
	}
}
