// Package outbox carries request scoped metadata from a transaction that
// writes an outbox message to the consumer that finally handles it.
package outbox

import (
	"context"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/tuanvumaihuynh/product-inventory/pkg/correlationid"
)

// BuildHeaders returns the trace context and correlation ID of ctx as a
// header map stored next to the outbox payload.
func BuildHeaders(ctx context.Context) map[string]string {
	headers := map[string]string{}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := correlationid.FromContext(ctx); ok {
		headers[correlationid.Header] = correlationID
	}

	return headers
}

// ExtractContextFromHeaders is the inverse of BuildHeaders.
func ExtractContextFromHeaders(ctx context.Context, headers map[string]string) context.Context {
	ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(headers))

	if correlationID, ok := headers[correlationid.Header]; ok && correlationID != "" {
		ctx = correlationid.NewContext(ctx, correlationID)
	}

	return ctx
}

// ContextFromRecord returns the context a consumed record is handled with.
// When a tracing hook already attached a span to rec.Context only the
// correlation ID is added, otherwise the full header set is extracted onto
// ctx.
func ContextFromRecord(ctx context.Context, rec *kgo.Record) context.Context {
	headers := RecordHeaders(rec)
	if rec.Context == nil {
		return ExtractContextFromHeaders(ctx, headers)
	}

	if correlationID, ok := headers[correlationid.Header]; ok && correlationID != "" {
		return correlationid.NewContext(rec.Context, correlationID)
	}
	return rec.Context
}

// RecordHeaders flattens the record headers. The last value wins for
// repeated keys.
func RecordHeaders(rec *kgo.Record) map[string]string {
	headers := make(map[string]string, len(rec.Headers))
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	return headers
}
