package log

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/product-inventory/pkg/correlationid"
)

var _ slog.Handler = (*enrichedHandler)(nil)

// contextAttrs extracts attributes carried by a request or record context.
type contextAttrs func(ctx context.Context) []slog.Attr

func correlationAttrs(ctx context.Context) []slog.Attr {
	id, ok := correlationid.FromContext(ctx)
	if !ok {
		return nil
	}
	return []slog.Attr{slog.String("correlation_id", id)}
}

func traceAttrs(ctx context.Context) []slog.Attr {
	spanCtx := trace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return nil
	}
	return []slog.Attr{
		slog.String("trace_id", spanCtx.TraceID().String()),
		slog.String("span_id", spanCtx.SpanID().String()),
	}
}

// enrichedHandler appends the attributes found in the record context before
// delegating to the wrapped handler.
type enrichedHandler struct {
	h        slog.Handler
	extracts []contextAttrs
}

func newEnrichedHandler(h slog.Handler, extracts ...contextAttrs) enrichedHandler {
	return enrichedHandler{h: h, extracts: extracts}
}

func (eh enrichedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return eh.h.Enabled(ctx, level)
}

func (eh enrichedHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, extract := range eh.extracts {
		r.AddAttrs(extract(ctx)...)
	}
	return eh.h.Handle(ctx, r)
}

func (eh enrichedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newEnrichedHandler(eh.h.WithAttrs(attrs), eh.extracts...)
}

func (eh enrichedHandler) WithGroup(name string) slog.Handler {
	return newEnrichedHandler(eh.h.WithGroup(name), eh.extracts...)
}
