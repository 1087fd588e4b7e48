package observability

import (
	"context"

	"github.com/smallbiznis/possettle/internal/observability/logger"
	"github.com/smallbiznis/possettle/internal/observability/metrics"
	"github.com/smallbiznis/possettle/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		provideTracingConfig,
		tracing.NewProvider,
		provideMetricsConfig,
		metrics.NewProvider,
		metrics.New,
		metrics.NewSettlementMetrics,
	),
	fx.Invoke(ensureTracingProvider),
	fx.Invoke(registerTextfileExport),
)

func ensureTracingProvider(_ *sdktrace.TracerProvider) {}

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.ServiceName,
		Environment:         cfg.Environment,
		Version:             cfg.Version,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		Debug:               cfg.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: cfg.Debug(),
	}
}

func provideTracingConfig(cfg Config) tracing.Config {
	return tracing.Config{
		Enabled:          cfg.OtelEnabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		SamplingRatio:    cfg.OtelSamplingRatio,
	}
}

func provideMetricsConfig(cfg Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.OtelEnabled,
		ExporterEndpoint: cfg.OtelExporterEndpoint,
		ExporterProtocol: cfg.OtelExporterProtocol,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
		Textfile:         cfg.MetricsTextfile,
	}
}

// registerTextfileExport writes the settlement collectors on shutdown so a
// node-exporter textfile collector can pick them up.
func registerTextfileExport(lc fx.Lifecycle, cfg metrics.Config, m *metrics.SettlementMetrics, log *zap.Logger) {
	if cfg.Textfile == "" {
		return
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			if err := m.WriteTextfile(cfg.Textfile); err != nil {
				log.Warn("metrics textfile export failed", zap.String("path", cfg.Textfile), zap.Error(err))
			}
			return nil
		},
	})
}
