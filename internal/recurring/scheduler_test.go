package recurring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/errs"
	"bilancio/internal/ledger"
	"bilancio/internal/storage"
	"bilancio/internal/storage/memory"
)

type fixture struct {
	store  *memory.Store
	ledger *ledger.Service
	wallet core.Wallet
	cat    core.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	wallet := core.Wallet{ID: uuid.New(), Name: "Main"}
	cat := core.Category{ID: uuid.New(), Name: "Rent", Type: core.Expense}
	store.SeedWallet(wallet)
	store.SeedCategory(cat)

	view := ledger.NewView(2026, time.January)
	return &fixture{
		store:  store,
		ledger: ledger.New(store, view, nil),
		wallet: wallet,
		cat:    cat,
	}
}

func (f *fixture) seedRule(t *testing.T, freq core.Frequency, start time.Time) core.RecurringRule {
	t.Helper()
	rule := core.RecurringRule{
		ID:         uuid.New(),
		Type:       core.Expense,
		Amount:     core.Money{Cents: 90_000},
		CategoryID: f.cat.ID,
		WalletID:   f.wallet.ID,
		Note:       "rent",
		Frequency:  freq,
		StartDate:  start,
		NextDue:    start,
	}
	f.store.SeedRule(rule)
	return rule
}

func (f *fixture) transactions(t *testing.T) []core.Transaction {
	t.Helper()
	txs, err := f.store.Transactions(context.Background(), storage.TransactionFilter{})
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	return txs
}

func (f *fixture) nextDue(t *testing.T, id uuid.UUID) time.Time {
	t.Helper()
	rules, err := f.store.Rules(context.Background())
	if err != nil {
		t.Fatalf("Rules() error = %v", err)
	}
	for _, r := range rules {
		if r.ID == id {
			return r.NextDue
		}
	}
	t.Fatalf("rule %s not found", id)
	return time.Time{}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
}

func TestCatchUpReplaysBacklog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rule := f.seedRule(t, core.Monthly, date(2026, time.January, 1))
	sched := New(f.store, f.ledger, 1000)

	now := date(2026, time.March, 15)
	if err := sched.CatchUp(ctx, now); err != nil {
		t.Fatalf("CatchUp() error = %v", err)
	}

	txs := f.transactions(t)
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3 (Jan, Feb, Mar)", len(txs))
	}
	if next := f.nextDue(t, rule.ID); !next.Equal(date(2026, time.April, 1)) {
		t.Errorf("NextDue = %s, want 2026-04-01", next.Format(time.DateOnly))
	}

	w, err := f.store.Wallet(ctx, f.wallet.ID)
	if err != nil {
		t.Fatalf("Wallet() error = %v", err)
	}
	if w.Balance.Cents != -270_000 {
		t.Errorf("wallet balance = %d, want -270000", w.Balance.Cents)
	}
}

func TestCatchUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedRule(t, core.Weekly, date(2026, time.January, 5))
	sched := New(f.store, f.ledger, 1000)

	now := date(2026, time.January, 20)
	if err := sched.CatchUp(ctx, now); err != nil {
		t.Fatalf("first CatchUp() error = %v", err)
	}
	before := len(f.transactions(t))
	if before != 3 {
		t.Fatalf("got %d transactions, want 3", before)
	}

	if err := sched.CatchUp(ctx, now); err != nil {
		t.Fatalf("second CatchUp() error = %v", err)
	}
	if after := len(f.transactions(t)); after != before {
		t.Errorf("second run booked %d extra transactions", after-before)
	}
}

func TestCatchUpFutureRuleUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rule := f.seedRule(t, core.Monthly, date(2026, time.June, 1))
	sched := New(f.store, f.ledger, 1000)

	if err := sched.CatchUp(ctx, date(2026, time.March, 1)); err != nil {
		t.Fatalf("CatchUp() error = %v", err)
	}
	if got := len(f.transactions(t)); got != 0 {
		t.Errorf("got %d transactions, want 0", got)
	}
	if next := f.nextDue(t, rule.ID); !next.Equal(rule.NextDue) {
		t.Errorf("NextDue moved to %s for a future rule", next.Format(time.DateOnly))
	}
}

func TestAdvanceMonthlyKeepsAnchorDay(t *testing.T) {
	rule := core.RecurringRule{
		Frequency: core.Monthly,
		StartDate: date(2026, time.January, 31),
	}

	// 2026 is not a leap year.
	want := []time.Time{
		date(2026, time.February, 28),
		date(2026, time.March, 31),
		date(2026, time.April, 30),
		date(2026, time.May, 31),
	}

	from := rule.StartDate
	for i, w := range want {
		from = Advance(rule, from)
		if !from.Equal(w) {
			t.Fatalf("step %d: Advance() = %s, want %s", i, from.Format(time.DateOnly), w.Format(time.DateOnly))
		}
	}
}

func TestAdvanceYearlyLeapDay(t *testing.T) {
	rule := core.RecurringRule{
		Frequency: core.Yearly,
		StartDate: date(2024, time.February, 29),
	}

	want := []time.Time{
		date(2025, time.February, 28),
		date(2026, time.February, 28),
		date(2027, time.February, 28),
		date(2028, time.February, 29),
	}

	from := rule.StartDate
	for i, w := range want {
		from = Advance(rule, from)
		if !from.Equal(w) {
			t.Fatalf("step %d: Advance() = %s, want %s", i, from.Format(time.DateOnly), w.Format(time.DateOnly))
		}
	}
}

func TestAdvanceDailyAndWeekly(t *testing.T) {
	daily := core.RecurringRule{Frequency: core.Daily, StartDate: date(2026, time.January, 1)}
	if got := Advance(daily, date(2026, time.January, 31)); !got.Equal(date(2026, time.February, 1)) {
		t.Errorf("daily Advance() = %s, want 2026-02-01", got.Format(time.DateOnly))
	}

	weekly := core.RecurringRule{Frequency: core.Weekly, StartDate: date(2026, time.January, 1)}
	if got := Advance(weekly, date(2026, time.February, 26)); !got.Equal(date(2026, time.March, 5)) {
		t.Errorf("weekly Advance() = %s, want 2026-03-05", got.Format(time.DateOnly))
	}
}

func TestCatchUpCeilingTruncates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rule := f.seedRule(t, core.Daily, date(2026, time.January, 1))
	sched := New(f.store, f.ledger, 3)

	now := date(2026, time.January, 10)
	err := sched.CatchUp(ctx, now)
	if !errors.Is(err, errs.ErrCatchUpTruncated) {
		t.Fatalf("CatchUp() error = %v, want ErrCatchUpTruncated", err)
	}

	if got := len(f.transactions(t)); got != 3 {
		t.Fatalf("got %d transactions, want 3 (ceiling)", got)
	}
	if next := f.nextDue(t, rule.ID); !next.Equal(date(2026, time.January, 4)) {
		t.Fatalf("NextDue = %s, want 2026-01-04", next.Format(time.DateOnly))
	}

	// A follow-up run with headroom finishes the backlog without doubling.
	sched = New(f.store, f.ledger, 1000)
	if err := sched.CatchUp(ctx, now); err != nil {
		t.Fatalf("follow-up CatchUp() error = %v", err)
	}
	if got := len(f.transactions(t)); got != 10 {
		t.Errorf("got %d transactions after follow-up, want 10", got)
	}
}

// flakyLedger fails every write after the first n.
type flakyLedger struct {
	inner   Ledger
	allowed int
	booked  int
}

func (f *flakyLedger) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if f.booked >= f.allowed {
		return core.Transaction{}, fmt.Errorf("store offline")
	}
	f.booked++
	return f.inner.RecordTransaction(ctx, tx)
}

func TestCatchUpResumesAfterFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rule := f.seedRule(t, core.Daily, date(2026, time.January, 1))
	now := date(2026, time.January, 5)

	flaky := &flakyLedger{inner: f.ledger, allowed: 2}
	if err := New(f.store, flaky, 1000).CatchUp(ctx, now); err == nil {
		t.Fatal("CatchUp() succeeded, want failure from flaky ledger")
	}

	if got := len(f.transactions(t)); got != 2 {
		t.Fatalf("got %d transactions before recovery, want 2", got)
	}
	if next := f.nextDue(t, rule.ID); !next.Equal(date(2026, time.January, 3)) {
		t.Fatalf("NextDue = %s, want 2026-01-03 (first unbooked occurrence)", next.Format(time.DateOnly))
	}

	if err := New(f.store, f.ledger, 1000).CatchUp(ctx, now); err != nil {
		t.Fatalf("recovery CatchUp() error = %v", err)
	}
	txs := f.transactions(t)
	if len(txs) != 5 {
		t.Fatalf("got %d transactions after recovery, want 5", len(txs))
	}
	seen := map[string]bool{}
	for _, tx := range txs {
		day := tx.Date.Format(time.DateOnly)
		if seen[day] {
			t.Errorf("occurrence %s booked twice", day)
		}
		seen[day] = true
	}
}

// blockingLedger parks the first write until released.
type blockingLedger struct {
	started chan struct{}
	release chan struct{}
	inner   Ledger
}

func (b *blockingLedger) RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	b.started <- struct{}{}
	<-b.release
	return b.inner.RecordTransaction(ctx, tx)
}

func TestCatchUpSingleFlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedRule(t, core.Daily, date(2026, time.January, 1))

	blocking := &blockingLedger{
		started: make(chan struct{}),
		release: make(chan struct{}),
		inner:   f.ledger,
	}
	sched := New(f.store, blocking, 1000)

	done := make(chan error, 1)
	go func() {
		done <- sched.CatchUp(ctx, date(2026, time.January, 1))
	}()

	<-blocking.started
	if err := sched.CatchUp(ctx, date(2026, time.January, 1)); !errors.Is(err, errs.ErrAlreadyRunning) {
		t.Errorf("concurrent CatchUp() error = %v, want ErrAlreadyRunning", err)
	}
	close(blocking.release)

	if err := <-done; err != nil {
		t.Fatalf("first CatchUp() error = %v", err)
	}

	// The guard clears once the run finishes.
	if err := sched.CatchUp(ctx, date(2026, time.January, 1)); err != nil {
		t.Errorf("follow-up CatchUp() error = %v", err)
	}
}
