package ledger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "ledger/internal/ledger"

// Outcomes recorded on the operations counter
const (
	outcomeOK                = "ok"
	outcomeInsufficientFunds = "insufficient_funds"
	outcomeSaveFailed        = "save_failed"
	outcomeDefaulted         = "defaulted"
)

type metrics struct {
	operations metric.Int64Counter
	saveErrors metric.Int64Counter
}

// initMetrics creates the ledger instruments. Creation errors go to the
// global otel error handler; a meter still returns a usable instrument
// alongside the error.
func initMetrics(meter metric.Meter) *metrics {
	operations, err := meter.Int64Counter("ledger.operations",
		metric.WithDescription("Ledger operations by name and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	saveErrors, err := meter.Int64Counter("ledger.save.errors",
		metric.WithDescription("Failed account saves"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return &metrics{operations: operations, saveErrors: saveErrors}
}

func (l *Ledger) startSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(
		attribute.String("ledger.operation", op),
	))
}

// finish records the outcome on the span and the operations counter, then ends the span.
func (l *Ledger) finish(ctx context.Context, span trace.Span, op, outcome string) {
	span.SetAttributes(
		attribute.String("ledger.outcome", outcome),
		attribute.Int64("ledger.balance_cents", l.account.Balance.Cents),
	)
	span.End()

	if l.metrics == nil || l.metrics.operations == nil {
		return
	}
	l.metrics.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))
}

func (l *Ledger) recordSaveError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if l.metrics != nil && l.metrics.saveErrors != nil {
		l.metrics.saveErrors.Add(ctx, 1)
	}
}
