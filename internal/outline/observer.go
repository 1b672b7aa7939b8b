package outline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ElSrJuez/notare/internal/logger"
	"github.com/ElSrJuez/notare/internal/metrics"
)

const operationGenerateOutline = "generate_outline"

// observedProvider logs and records metrics around every outline call.
type observedProvider struct {
	inner  Provider
	logger *zap.Logger
}

func observe(p Provider, l *zap.Logger) Provider {
	return &observedProvider{inner: p, logger: l}
}

func (o *observedProvider) Name() string {
	return o.inner.Name()
}

func (o *observedProvider) GenerateOutline(ctx context.Context, markedText string) (Outline, error) {
	started := time.Now()
	log := o.logger.With(
		zap.String("component", "provider"),
		zap.String("provider", o.inner.Name()),
		zap.String("operation", operationGenerateOutline),
	)
	if id := logger.RequestIDFromContext(ctx); id != "" {
		log = log.With(zap.String("request_id", id))
	}
	log.Info("provider call", zap.String("event", "start"), zap.Int("input_chars", len(markedText)))

	result, err := o.inner.GenerateOutline(ctx, markedText)

	status := "success"
	errorCategory := ErrorCategory(err)
	if err != nil {
		status = "error"
	}
	duration := time.Since(started)
	metrics.RecordProviderCall(o.inner.Name(), operationGenerateOutline, status, errorCategory, duration)

	fields := []zap.Field{
		zap.String("status", status),
		zap.String("error_category", errorCategory),
		zap.Int64("duration_ms", duration.Milliseconds()),
		zap.Int("slides", len(result.Slides)),
	}
	if err != nil {
		log.Warn("provider call", append(fields, zap.Error(err))...)
	} else {
		log.Info("provider call", fields...)
	}
	return result, err
}
