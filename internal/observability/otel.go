package observability

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/pursue-app/pursue-backend/internal/pkg/logger"
)

type OtelConfig struct {
	ServiceName string
	Environment string
	Version     string
}

var (
	otelOnce     sync.Once
	otelShutdown func(context.Context) error
)

// InitOTel wires the global tracer provider when OTEL_ENABLED is set.
// Returns a shutdown hook (possibly nil) for the caller to run on exit.
func InitOTel(ctx context.Context, log *logger.Logger, cfg OtelConfig) func(context.Context) error {
	otelOnce.Do(func() {
		if !otelEnabled() {
			return
		}
		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			serviceName = "pursue-backend"
		}
		res, err := resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(serviceName),
				semconv.ServiceVersionKey.String(strings.TrimSpace(cfg.Version)),
				attribute.String("deployment.environment", strings.TrimSpace(cfg.Environment)),
			),
		)
		if err != nil && log != nil {
			log.Warn("otel resource init failed (continuing)", "error", err)
		}

		exporter, expErr := buildTraceExporter(ctx, log)
		if expErr != nil && log != nil {
			log.Warn("otel exporter init failed (continuing)", "error", expErr)
		}
		var tp *sdktrace.TracerProvider
		if exporter != nil {
			tp = sdktrace.NewTracerProvider(
				sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
				sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(otelSampleRatio()))),
				sdktrace.WithResource(res),
			)
		} else {
			tp = sdktrace.NewTracerProvider(
				sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(otelSampleRatio()))),
				sdktrace.WithResource(res),
			)
		}
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		otelShutdown = tp.Shutdown
		if log != nil {
			log.Info("otel tracing initialized", "service", serviceName, "endpoint", otelEndpoint())
		}
	})
	return otelShutdown
}

func otelEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("OTEL_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func otelSampleRatio() float64 {
	v := strings.TrimSpace(os.Getenv("OTEL_SAMPLER_RATIO"))
	if v == "" {
		return 0.1
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0.1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func otelEndpoint() string {
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func buildTraceExporter(ctx context.Context, log *logger.Logger) (sdktrace.SpanExporter, error) {
	endpoint := otelEndpoint()
	if endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if otelInsecure() {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Warn("otel using stdout exporter (no OTLP endpoint configured)")
	}
	return exp, nil
}

func otelInsecure() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("OTEL_EXPORTER_OTLP_INSECURE")))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
