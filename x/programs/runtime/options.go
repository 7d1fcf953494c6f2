package runtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*Runtime)

// WithLedger replaces the default in-memory ledger.
func WithLedger(l Ledger) Option {
	return func(r *Runtime) { r.ledger = l }
}

func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Runtime) { r.registerer = reg }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runtime) { r.tracer = tp.Tracer(tracerName) }
}
