package telemetry

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"
	log "github.com/sirupsen/logrus"
)

// mutexProfileFraction samples 1 in 5 mutex contention events.
const mutexProfileFraction = 5

// InitPyroscope pushes cpu, heap, goroutine and mutex profiles to serverURL,
// tagged with the running version. An empty url is a no-op.
func InitPyroscope(serverURL, version string) (func(), error) {
	if serverURL == "" {
		return func() {}, nil
	}

	prevFraction := runtime.SetMutexProfileFraction(mutexProfileFraction)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: escrowd,
		ServerAddress:   serverURL,
		Tags:            map[string]string{"version": version},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexDuration,
		},
	})
	if err != nil {
		runtime.SetMutexProfileFraction(prevFraction)
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}
	log.WithField("server", serverURL).Info("continuous profiling enabled")

	return func() {
		if err := profiler.Stop(); err != nil {
			log.WithError(err).Warn("failed to stop profiler")
		}
		runtime.SetMutexProfileFraction(prevFraction)
	}, nil
}
