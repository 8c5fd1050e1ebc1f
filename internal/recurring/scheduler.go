// Package recurring replays recurring rules into concrete ledger
// transactions. A rule carries a NextDue cursor; catch-up materializes one
// transaction per elapsed occurrence and moves the cursor forward, so a
// client that was closed for three months books exactly three monthly
// occurrences on the next run.
package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"bilancio/internal/core"
	"bilancio/internal/errs"
)

var (
	occurrencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bilancio_recurring_occurrences_total",
		Help: "Transactions materialized from recurring rules.",
	})
	truncationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bilancio_recurring_truncations_total",
		Help: "Catch-up runs that hit the per-rule iteration ceiling.",
	})
)

// Store is the rule persistence surface the scheduler needs.
type Store interface {
	Rules(ctx context.Context) ([]core.RecurringRule, error)
	UpdateRuleNextDue(ctx context.Context, id uuid.UUID, next time.Time) error
}

// Ledger is the write path occurrences are booked through. Going through
// the ledger keeps balances and category spend consistent with every
// materialized transaction.
type Ledger interface {
	RecordTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
}

// Scheduler replays overdue rule occurrences.
type Scheduler struct {
	store   Store
	ledger  Ledger
	limit   int
	running atomic.Bool
}

// New constructs a scheduler. limit caps the occurrences materialized per
// rule per run; a rule with more backlog is truncated and finishes on the
// next run.
func New(store Store, ledger Ledger, limit int) *Scheduler {
	return &Scheduler{store: store, ledger: ledger, limit: limit}
}

// CatchUp materializes every occurrence due at or before now, across all
// rules. Only one run may be in flight; a concurrent call returns
// ErrAlreadyRunning. A failure on one rule does not stop the others; the
// per-rule errors are joined into the return value. ErrCatchUpTruncated in
// the result means some rule still has backlog left for the next run.
//
// The cursor is persisted after every rule, and advances only past
// occurrences that were actually booked. Re-running after any failure
// resumes exactly at the first unbooked occurrence; nothing is skipped or
// doubled.
func (s *Scheduler) CatchUp(ctx context.Context, now time.Time) error {
	if !s.running.CompareAndSwap(false, true) {
		return errs.ErrAlreadyRunning
	}
	defer s.running.Store(false)

	rules, err := s.store.Rules(ctx)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	var errList []error
	var booked int
	for _, rule := range rules {
		n, err := s.catchUpRule(ctx, rule, now)
		booked += n
		if err != nil {
			errList = append(errList, err)
		}
	}

	slog.InfoContext(ctx, "Recurring catch-up finished",
		"rules", len(rules), "occurrences", booked, "failures", len(errList))
	return errors.Join(errList...)
}

// catchUpRule replays a single rule up to now and persists the cursor. It
// returns the number of occurrences booked.
func (s *Scheduler) catchUpRule(ctx context.Context, rule core.RecurringRule, now time.Time) (int, error) {
	next := rule.NextDue
	count := 0
	var runErr error

	for !next.After(now) {
		if count >= s.limit {
			truncationsTotal.Inc()
			runErr = fmt.Errorf("%w: rule %s stopped after %d occurrences", errs.ErrCatchUpTruncated, rule.ID, count)
			break
		}
		if _, err := s.ledger.RecordTransaction(ctx, rule.Template(next)); err != nil {
			runErr = fmt.Errorf("materialize rule %s due %s: %w", rule.ID, next.Format(time.DateOnly), err)
			break
		}
		occurrencesTotal.Inc()
		next = Advance(rule, next)
		count++
	}

	if !next.Equal(rule.NextDue) {
		if err := s.store.UpdateRuleNextDue(ctx, rule.ID, next); err != nil {
			return count, errors.Join(runErr, fmt.Errorf("persist cursor for rule %s: %w", rule.ID, err))
		}
	}
	if count > 0 {
		slog.InfoContext(ctx, "Recurring rule caught up",
			"rule_id", rule.ID, "occurrences", count, "next_due", next.Format(time.DateOnly))
	}
	return count, runErr
}

// Advance returns the due date following from. Daily and weekly rules move
// by a fixed span. Monthly and yearly rules are calendar-aware and anchor
// on the rule's StartDate: a rule started on the 31st books on the 31st
// where the month has one, else on the month's last day. Without the
// anchor a clamped date would drift (Jan 31 -> Feb 28 -> Mar 28).
func Advance(rule core.RecurringRule, from time.Time) time.Time {
	switch rule.Frequency {
	case core.Daily:
		return from.AddDate(0, 0, 1)
	case core.Weekly:
		return from.AddDate(0, 0, 7)
	case core.Monthly:
		year, month := from.Year(), from.Month()+1
		return anchoredDate(year, month, rule.StartDate.Day(), from)
	case core.Yearly:
		return anchoredDate(from.Year()+1, rule.StartDate.Month(), rule.StartDate.Day(), from)
	default:
		// Validate() rejects unknown frequencies before a rule is stored.
		return from.AddDate(0, 1, 0)
	}
}

// anchoredDate builds a date on the anchor day clamped to the target
// month's length, keeping from's clock time and location. month may be
// time.Month+1 overflowed; time.Date normalizes it.
func anchoredDate(year int, month time.Month, day int, from time.Time) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

func daysIn(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
