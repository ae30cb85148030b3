package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// Tracing ciclo de vida del TracerProvider. Sin endpoint OTLP queda en no-op.
type Tracing struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracing configura el exportador OTLP/HTTP si cfg.OTLPEndpoint no está vacío.
func NewTracing(ctx context.Context, cfg config.TelemetryConfig, version string, log *logger.Logger) (*Tracing, error) {
	if cfg.OTLPEndpoint == "" {
		log.Info().Msg("trazas deshabilitadas: OTEL_EXPORTER_OTLP_ENDPOINT vacío")
		return &Tracing{tracer: noop.NewTracerProvider().Tracer(cfg.ServiceName)}, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return nil, fmt.Errorf("telemetry: exportador OTLP: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().Str("endpoint", cfg.OTLPEndpoint).Str("service", cfg.ServiceName).Msg("trazas OTLP habilitadas")
	return &Tracing{provider: tp, tracer: tp.Tracer(cfg.ServiceName)}, nil
}

// Tracer devuelve el tracer de la aplicación.
func (t *Tracing) Tracer() trace.Tracer { return t.tracer }

// Enabled indica si hay exportador configurado.
func (t *Tracing) Enabled() bool { return t.provider != nil }

// Shutdown vacía los spans pendientes.
func (t *Tracing) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
