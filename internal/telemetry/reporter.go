// Package telemetry wires tracing and the anomaly reporting sink. Tool-call
// identity anomalies are an observability signal: they land on the active
// span and in the structured log, and never influence request handling.
package telemetry

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/aperrin/chatwire/internal/reconcile"
)

// Reporter records reconciliation anomalies as span events and warnings.
type Reporter struct {
	logger *slog.Logger
}

var _ reconcile.Reporter = (*Reporter)(nil)

// NewReporter creates an anomaly reporter logging through logger.
func NewReporter(logger *slog.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// ToolCallAnomaly implements reconcile.Reporter.
func (r *Reporter) ToolCallAnomaly(ctx context.Context, ev reconcile.Anomaly) {
	span := trace.SpanFromContext(ctx)
	attrs := []attribute.KeyValue{
		attribute.String("anomaly.kind", ev.Kind),
		attribute.StringSlice("anomaly.invocation_ids", ev.InvocationIDs),
		attribute.StringSlice("anomaly.result_ids", ev.ResultIDs),
	}
	if len(ev.MissingIDs) > 0 {
		attrs = append(attrs, attribute.StringSlice("anomaly.missing_ids", ev.MissingIDs))
	}
	if ev.RepairedID != "" {
		attrs = append(attrs,
			attribute.String("anomaly.repaired_id", ev.RepairedID),
			attribute.String("anomaly.rebound_to", ev.ReboundTo),
		)
	}
	span.AddEvent("tool_call_anomaly", trace.WithAttributes(attrs...))

	r.logger.Warn("tool call identity anomaly",
		slog.String("kind", ev.Kind),
		slog.Any("invocation_ids", ev.InvocationIDs),
		slog.Any("result_ids", ev.ResultIDs),
		slog.Any("missing_ids", ev.MissingIDs),
		slog.String("repaired_id", ev.RepairedID),
		slog.String("rebound_to", ev.ReboundTo),
	)
}
