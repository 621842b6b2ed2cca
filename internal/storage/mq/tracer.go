package mq

import (
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("internal/storage/mq")

// kafkaHooks traces produced and consumed records. The outbox headers carry
// the trace context, so the global propagator injects into and extracts from
// record headers.
func kafkaHooks() kgo.Opt {
	return kgo.WithHooks(kotel.NewTracer(
		kotel.TracerProvider(otel.GetTracerProvider()),
		kotel.TracerPropagator(otel.GetTextMapPropagator()),
	))
}
