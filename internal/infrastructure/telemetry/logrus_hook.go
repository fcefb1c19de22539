package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
)

// OTelHook forwards logrus entries at or above minLevel to the global OTel
// logger provider.
type OTelHook struct {
	minLevel logrus.Level
}

func NewOTelHook(minLevel logrus.Level) *OTelHook {
	return &OTelHook{minLevel}
}

func (h *OTelHook) Levels() []logrus.Level {
	levels := make([]logrus.Level, 0, len(logrus.AllLevels))
	for _, l := range logrus.AllLevels {
		// lower value means more severe
		if l <= h.minLevel {
			levels = append(levels, l)
		}
	}
	return levels
}

func mapLevel(l logrus.Level) log.Severity {
	switch l {
	case logrus.PanicLevel, logrus.FatalLevel:
		return log.SeverityFatal
	case logrus.ErrorLevel:
		return log.SeverityError
	case logrus.WarnLevel:
		return log.SeverityWarn
	case logrus.InfoLevel:
		return log.SeverityInfo
	case logrus.DebugLevel:
		return log.SeverityDebug
	case logrus.TraceLevel:
		return log.SeverityTrace
	default:
		return log.SeverityInfo
	}
}

func (h *OTelHook) Fire(e *logrus.Entry) error {
	ctx := e.Context
	if ctx == nil {
		ctx = context.Background()
	}

	rec := log.Record{}
	rec.SetTimestamp(e.Time)
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(mapLevel(e.Level))
	rec.SetSeverityText(e.Level.String())
	rec.SetBody(log.StringValue(e.Message))
	rec.AddAttributes(log.String("logger", escrowd))

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		rec.AddAttributes(
			log.String("trace_id", spanCtx.TraceID().String()),
			log.String("span_id", spanCtx.SpanID().String()),
		)
	}

	for k, v := range e.Data {
		rec.AddAttributes(toKeyValue(k, v))
	}

	global.GetLoggerProvider().Logger(escrowd).Emit(ctx, rec)
	return nil
}

func toKeyValue(key string, v any) log.KeyValue {
	switch t := v.(type) {
	case string:
		return log.String(key, t)
	case bool:
		return log.Bool(key, t)
	case int:
		return log.Int(key, t)
	case int64:
		return log.Int64(key, t)
	case float64:
		return log.Float64(key, t)
	case error:
		return log.String(key, t.Error())
	case fmt.Stringer:
		return log.String(key, t.String())
	default:
		return log.String(key, fmt.Sprintf("%v", v))
	}
}
