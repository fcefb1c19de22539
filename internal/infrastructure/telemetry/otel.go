package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const escrowd = "escrowd"

// InitOtelSDK installs the global meter and logger providers. Both export to
// w, or to stdout if w is nil. The returned function flushes and shuts down
// the providers.
func InitOtelSDK(
	ctx context.Context, w io.Writer, pushInterval time.Duration,
) (func(), error) {
	if pushInterval <= 0 {
		return nil, fmt.Errorf("invalid push interval %s", pushInterval)
	}
	if w == nil {
		w = os.Stdout
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", escrowd)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %s", err)
	}

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %s", err)
	}
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(pushInterval)),
		),
	)

	logExporter, err := stdoutlog.New(stdoutlog.WithWriter(w))
	if err != nil {
		// nolint:all
		meterProvider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create log exporter: %s", err)
	}
	loggerProvider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)

	otel.SetMeterProvider(meterProvider)
	global.SetLoggerProvider(loggerProvider)

	log.WithField("push_interval", pushInterval).Debug("otel sdk initialized")

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := errors.Join(
			meterProvider.Shutdown(ctx),
			loggerProvider.Shutdown(ctx),
		)
		if err != nil {
			log.WithError(err).Warn("failed to shutdown otel sdk")
			return
		}
		log.Debug("otel sdk shutdown")
	}

	return shutdown, nil
}
