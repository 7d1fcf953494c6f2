package trace

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ava-labs/crank/consts"
)

var ErrMissingEndpoint = errors.New("tracing enabled without an endpoint")

type Config struct {
	Enabled    bool    `yaml:"enabled"`
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sampleRate"`
}

// New returns the tracer provider described by [cfg] and a function that
// flushes and stops it. A disabled config yields a noop provider.
func New(cfg *Config) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return trace.NewNoopTracerProvider(), func(context.Context) error { return nil }, nil
	}
	if cfg.Endpoint == "" {
		return nil, nil, ErrMissingEndpoint
	}
	exporter, err := zipkin.New(cfg.Endpoint)
	if err != nil {
		return nil, nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRate)),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", consts.Name),
			attribute.String("service.version", consts.Version),
		)),
	)
	return tp, tp.Shutdown, nil
}
