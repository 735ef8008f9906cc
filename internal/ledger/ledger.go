// Package ledger applies credit, debit and reset operations to the single
// account and keeps the persisted copy in step.
//
// A Ledger owns the in-memory account. Every successful mutation is saved
// synchronously; save failures are reported as a boolean and logged, and
// the in-memory state stays authoritative for the rest of the session.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/store"
)

// Notifier receives a BalanceChange after every persisted mutation.
type Notifier interface {
	NotifyBalanceChange(ctx context.Context, change core.BalanceChange) error
}

type CreditResult struct {
	Balance core.Money
	Amount  core.Money
	Saved   bool
}

type DebitResult struct {
	Success bool
	Balance core.Money
	Amount  core.Money
	// Saved is always false for a refused debit.
	Saved bool
}

type Ledger struct {
	store    store.AccountStore
	account  core.Account
	notifier Notifier
	logger   *applog.Logger
	tracer   trace.Tracer
	metrics  *metrics
	now      func() time.Time
}

// Option configures a Ledger
type Option func(*Ledger)

// WithNotifier publishes balance changes to n
func WithNotifier(n Notifier) Option {
	return func(l *Ledger) {
		l.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *applog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger.WithComponent(applog.ComponentLedger)
	}
}

// WithTracer sets the OpenTelemetry tracer; the global one is used otherwise
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Ledger) {
		l.tracer = tracer
	}
}

// WithMeter sets the OpenTelemetry meter; the global one is used otherwise
func WithMeter(meter metric.Meter) Option {
	return func(l *Ledger) {
		l.metrics = initMetrics(meter)
	}
}

// WithClock overrides time.Now for change timestamps
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New returns a ledger over s holding the default account. Call Load to
// pick up persisted state.
func New(s store.AccountStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:   s,
		account: core.DefaultAccount(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = applog.FromSlog(slog.Default(), applog.ComponentLedger)
	}
	if l.tracer == nil {
		l.tracer = otel.Tracer(instrumentationName)
	}
	if l.metrics == nil {
		l.metrics = initMetrics(otel.Meter(instrumentationName))
	}
	return l
}

// Account returns a copy of the current account.
func (l *Ledger) Account() core.Account {
	return l.account
}

// Balance returns the current balance. It has no side effects.
func (l *Ledger) Balance() core.Money {
	return l.account.Balance
}

// Load replaces the in-memory account with the persisted one. It never
// fails: a missing record yields DefaultedMissing and an unreadable one
// DefaultedCorrupt, both with the default account.
func (l *Ledger) Load(ctx context.Context) core.LoadResult {
	ctx, span := l.startSpan(ctx, applog.OpLoad)

	acct, err := l.store.Load(ctx)
	res := core.LoadResult{Account: acct.Normalize(), Status: core.Loaded}
	switch {
	case err == nil:
	case errors.Is(err, store.ErrAccountNotFound):
		res = core.LoadResult{Account: core.DefaultAccount(), Status: core.DefaultedMissing, Err: err}
		l.logger.InfoContext(ctx, "No persisted account, starting from defaults")
	default:
		res = core.LoadResult{Account: core.DefaultAccount(), Status: core.DefaultedCorrupt, Err: err}
		l.logger.WarnContext(ctx, "Persisted account unusable, starting from defaults",
			applog.FieldError, err)
	}
	l.account = res.Account

	outcome := outcomeOK
	if res.Status.Defaulted() {
		outcome = outcomeDefaulted
	}
	l.finish(ctx, span, applog.OpLoad, outcome)
	return res
}

// Save writes the current account and reports whether it succeeded.
func (l *Ledger) Save(ctx context.Context) bool {
	if err := l.store.Save(ctx, l.account); err != nil {
		l.logger.ErrorContext(ctx, "Failed to save account",
			applog.NewFields().
				WithOperation(applog.OpSave).
				WithError(err).
				ToSlice()...)
		l.recordSaveError(ctx, err)
		return false
	}
	return true
}

// Credit adds the parsed amount to the balance and saves. It always
// succeeds; unparseable text credits 0.00.
func (l *Ledger) Credit(ctx context.Context, raw string) CreditResult {
	ctx, span := l.startSpan(ctx, applog.OpCredit)

	amount := core.ParseAmount(raw)
	next, ok := l.account.Balance.Add(amount)
	if !ok {
		l.logger.WarnContext(ctx, "Credit would overflow, treating amount as zero",
			applog.FieldAmountCents, amount.Cents)
		amount = core.Money{}
	}
	l.account.Balance = next

	saved := l.Save(ctx)
	l.notify(ctx, applog.OpCredit, amount)

	outcome := outcomeOK
	if !saved {
		outcome = outcomeSaveFailed
	}
	l.finish(ctx, span, applog.OpCredit, outcome)
	return CreditResult{Balance: l.account.Balance, Amount: amount, Saved: saved}
}

// Debit subtracts the parsed amount when the balance covers it and saves.
// Otherwise the balance is left untouched and Success is false.
func (l *Ledger) Debit(ctx context.Context, raw string) DebitResult {
	ctx, span := l.startSpan(ctx, applog.OpDebit)

	amount := core.ParseAmount(raw)
	if l.account.Balance.Cents < amount.Cents {
		l.logger.InfoContext(ctx, "Insufficient funds",
			applog.NewFields().
				WithOperation(applog.OpDebit).
				WithAmounts(amount.Cents, l.account.Balance.Cents).
				WithSuccess(false).
				ToSlice()...)
		l.finish(ctx, span, applog.OpDebit, outcomeInsufficientFunds)
		return DebitResult{Success: false, Balance: l.account.Balance, Amount: amount}
	}

	next, ok := l.account.Balance.Sub(amount)
	if !ok {
		l.logger.WarnContext(ctx, "Debit would overflow, treating amount as zero",
			applog.FieldAmountCents, amount.Cents)
		amount = core.Money{}
	}
	l.account.Balance = next

	saved := l.Save(ctx)
	l.notify(ctx, applog.OpDebit, amount)

	outcome := outcomeOK
	if !saved {
		outcome = outcomeSaveFailed
	}
	l.finish(ctx, span, applog.OpDebit, outcome)
	return DebitResult{Success: true, Balance: l.account.Balance, Amount: amount, Saved: saved}
}

// Reset restores the default account, saves it and returns its balance.
func (l *Ledger) Reset(ctx context.Context) core.Money {
	ctx, span := l.startSpan(ctx, applog.OpReset)

	l.account = core.DefaultAccount()
	saved := l.Save(ctx)
	l.notify(ctx, applog.OpReset, core.Money{})

	outcome := outcomeOK
	if !saved {
		outcome = outcomeSaveFailed
	}
	l.finish(ctx, span, applog.OpReset, outcome)
	return l.account.Balance
}

func (l *Ledger) notify(ctx context.Context, op string, amount core.Money) {
	if l.notifier == nil {
		return
	}
	change := core.BalanceChange{
		Operation:  op,
		Amount:     amount,
		Account:    l.account,
		OccurredAt: l.now(),
	}
	if err := l.notifier.NotifyBalanceChange(ctx, change); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish balance change",
			applog.FieldOperation, op,
			applog.FieldError, err)
	}
}
