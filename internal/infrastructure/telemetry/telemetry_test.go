package telemetry_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/telemetry"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestInitOtelSDK(t *testing.T) {
	t.Run("invalid push interval", func(t *testing.T) {
		shutdown, err := telemetry.InitOtelSDK(context.Background(), nil, 0)
		require.Error(t, err)
		require.Nil(t, shutdown)
	})

	t.Run("exports metrics and logs on shutdown", func(t *testing.T) {
		out := &syncBuffer{}
		shutdown, err := telemetry.InitOtelSDK(context.Background(), out, time.Hour)
		require.NoError(t, err)

		counter, err := otel.Meter("telemetry_test").Int64Counter("escrow.test.counter")
		require.NoError(t, err)
		counter.Add(context.Background(), 3)

		logger := logrus.New()
		logger.SetOutput(&bytes.Buffer{})
		logger.AddHook(telemetry.NewOTelHook(logrus.InfoLevel))
		logger.WithField("task", 7).Info("task funded")
		logger.Debug("below threshold")

		shutdown()

		exported := out.String()
		require.Contains(t, exported, "escrow.test.counter")
		require.Contains(t, exported, "task funded")
		require.NotContains(t, exported, "below threshold")
	})
}

func TestOTelHookLevels(t *testing.T) {
	fixtures := []struct {
		minLevel logrus.Level
		expected []logrus.Level
	}{
		{logrus.ErrorLevel, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}},
		{logrus.PanicLevel, []logrus.Level{logrus.PanicLevel}},
		{logrus.TraceLevel, logrus.AllLevels},
	}
	for _, f := range fixtures {
		t.Run(f.minLevel.String(), func(t *testing.T) {
			require.Equal(t, f.expected, telemetry.NewOTelHook(f.minLevel).Levels())
		})
	}
}

func TestInitPyroscopeDisabled(t *testing.T) {
	shutdown, err := telemetry.InitPyroscope("", "dev")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()
}
