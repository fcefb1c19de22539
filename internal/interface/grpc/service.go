package grpc_interface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/telemetry"
	"github.com/ArkLabsHQ/escrowd/internal/interface/grpc/handlers"
	"github.com/ArkLabsHQ/escrowd/internal/interface/grpc/interceptors"
	"github.com/ArkLabsHQ/escrowd/internal/interface/web"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

const healthServiceName = "escrowd"

// TelemetryConfig enables the optional exporters. OtelPushInterval is in
// seconds.
type TelemetryConfig struct {
	OtelEnabled        bool
	OtelPushInterval   int64
	PyroscopeServerURL string
}

type service struct {
	cfg               Config
	appSvc            *application.Service
	httpServer        *http.Server
	grpcServer        *grpc.Server
	healthConn        *grpc.ClientConn
	feStopCh          chan struct{}
	otelShutdown      func()
	pyroscopeShutdown func()
}

func NewService(
	cfg Config,
	appSvc *application.Service,
	sentryEnabled bool,
	telemetryCfg TelemetryConfig,
) (*service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %s", err)
	}

	grpcConfig := []grpc.ServerOption{
		interceptors.UnaryInterceptor(sentryEnabled),
		interceptors.StreamInterceptor(sentryEnabled),
		grpc.Creds(insecure.NewCredentials()),
	}

	var otelShutdown, pyroscopeShutdown func()
	if telemetryCfg.OtelEnabled {
		log.AddHook(telemetry.NewOTelHook(log.InfoLevel))

		pushInterval := time.Duration(telemetryCfg.OtelPushInterval) * time.Second
		shutdown, err := telemetry.InitOtelSDK(context.Background(), nil, pushInterval)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize otel sdk: %s", err)
		}
		otelShutdown = shutdown
	}
	if telemetryCfg.PyroscopeServerURL != "" {
		shutdown, err := telemetry.InitPyroscope(
			telemetryCfg.PyroscopeServerURL, appSvc.BuildInfo.Version,
		)
		if err != nil {
			if otelShutdown != nil {
				otelShutdown()
			}
			return nil, fmt.Errorf("failed to initialize pyroscope: %s", err)
		}
		pyroscopeShutdown = shutdown
	}

	grpcServer := grpc.NewServer(grpcConfig...)
	grpchealth.RegisterHealthServer(grpcServer, handlers.NewHealthHandler(appSvc))

	conn, err := grpc.NewClient(
		cfg.healthAddress(), grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	healthClient := grpchealth.NewHealthClient(conn)

	feStopCh := make(chan struct{})
	mux := http.NewServeMux()
	mux.Handle("/v1/", web.NewService(appSvc, feStopCh, sentryEnabled))
	mux.HandleFunc("GET /healthz", healthzHandler(healthClient))

	httpServer := &http.Server{
		Addr:              cfg.httpAddress(),
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &service{
		cfg:               cfg,
		appSvc:            appSvc,
		httpServer:        httpServer,
		grpcServer:        grpcServer,
		healthConn:        conn,
		feStopCh:          feStopCh,
		otelShutdown:      otelShutdown,
		pyroscopeShutdown: pyroscopeShutdown,
	}, nil
}

func (s *service) Start() error {
	if err := s.appSvc.Start(); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", s.cfg.grpcAddress())
	if err != nil {
		return err
	}
	// nolint:all
	go s.grpcServer.Serve(listener)
	log.Infof("started GRPC server at %s", s.cfg.grpcAddress())

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()
	log.Infof("started HTTP server at %s", s.cfg.httpAddress())

	return nil
}

func (s *service) Stop() {
	// event streams never go idle, they must be closed for the http server
	// to drain
	close(s.feStopCh)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// nolint:all
	s.httpServer.Shutdown(ctx)
	log.Info("stopped HTTP server")

	s.grpcServer.GracefulStop()
	// nolint:all
	s.healthConn.Close()
	log.Info("stopped GRPC server")

	s.appSvc.Stop()

	if s.pyroscopeShutdown != nil {
		s.pyroscopeShutdown()
	}
	if s.otelShutdown != nil {
		s.otelShutdown()
	}
}

func healthzHandler(client grpchealth.HealthClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := client.Check(r.Context(), &grpchealth.HealthCheckRequest{Service: healthServiceName})
		if err != nil {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		switch resp.Status {
		case grpchealth.HealthCheckResponse_SERVING:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		case grpchealth.HealthCheckResponse_NOT_SERVING:
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		case grpchealth.HealthCheckResponse_SERVICE_UNKNOWN:
			http.Error(w, "unknown service", http.StatusNotFound)
		default:
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
		}
	}
}
