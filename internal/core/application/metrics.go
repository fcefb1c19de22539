package application

import (
	"context"
	"errors"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ArkLabsHQ/escrowd/internal/core/application"

type metrics struct {
	operations metric.Int64Counter
	credited   metric.Float64Counter
	withdrawn  metric.Float64Counter
}

// newMetrics registers the ledger instruments on the global meter provider,
// which is a no-op until the telemetry SDK is installed.
func newMetrics() *metrics {
	meter := otel.Meter(instrumentationName)

	operations, err := meter.Int64Counter(
		"escrow.operations",
		metric.WithDescription("Number of ledger operations by name and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		log.WithError(err).Warn("failed to create operations counter")
	}
	credited, err := meter.Float64Counter(
		"escrow.credited",
		metric.WithDescription("Amount credited to withdrawable balances by reason and asset"),
	)
	if err != nil {
		log.WithError(err).Warn("failed to create credited counter")
	}
	withdrawn, err := meter.Float64Counter(
		"escrow.withdrawn",
		metric.WithDescription("Amount pulled out of custody by asset"),
	)
	if err != nil {
		log.WithError(err).Warn("failed to create withdrawn counter")
	}

	return &metrics{operations, credited, withdrawn}
}

func (m *metrics) recordOperation(ctx context.Context, operation string, err error) {
	if m.operations == nil {
		return
	}
	m.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome(err)),
	))
}

func (m *metrics) recordCredit(ctx context.Context, reason string, asset domain.Asset, amount uint64) {
	if m.credited == nil || amount == 0 {
		return
	}
	m.credited.Add(ctx, float64(amount), metric.WithAttributes(
		attribute.String("reason", reason),
		attribute.String("asset", asset.String()),
	))
}

func (m *metrics) recordWithdrawal(ctx context.Context, asset domain.Asset, amount uint64) {
	if m.withdrawn == nil {
		return
	}
	m.withdrawn.Add(ctx, float64(amount), metric.WithAttributes(
		attribute.String("asset", asset.String()),
	))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "internal"
	}
}
