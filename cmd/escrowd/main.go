package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/config"
	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	badgercustody "github.com/ArkLabsHQ/escrowd/internal/infrastructure/custody/badger"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db"
	scheduler "github.com/ArkLabsHQ/escrowd/internal/infrastructure/scheduler/gocron"
	grpcservice "github.com/ArkLabsHQ/escrowd/internal/interface/grpc"
	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	sentryDsn = ""
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	sentryEnabled := !cfg.DisableTelemetry && sentryDsn != ""

	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDsn,
			Environment:      "prod",
			AttachStacktrace: true,
			Release:          version,
		}); err != nil {
			log.Fatal(err)
		}

		sentryLevels := []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
		sentryHook, err := sentrylogrus.New(sentryLevels, sentry.ClientOptions{
			Dsn:              sentryDsn,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Fatal(err)
		}

		log.AddHook(sentryHook)

		defer func() {
			sentry.Flush(5 * time.Second)
			sentryHook.Flush(5 * time.Second)
		}()
	}

	log.Info("starting escrowd...")

	svcConfig := grpcservice.Config{
		GRPCPort: cfg.GRPCPort,
		HTTPPort: cfg.HTTPPort,
	}

	dbSvc, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: cfg.DbConfig(),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}

	buildInfo := application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
	genesis := application.Genesis{
		Owner:           cfg.Owner(),
		Vault:           cfg.Vault(),
		InitialTakeRate: cfg.GenesisTakeRate(),
		UnlockPeriod:    cfg.GenesisUnlockPeriod(),
	}

	custodySvc, err := badgercustody.NewCustody(cfg.CustodyDir(), cfg.CustodyFaucet)
	if err != nil {
		log.WithError(err).Fatal("failed to open custody")
	}

	appSvc, err := application.NewService(
		buildInfo, genesis, dbSvc, custodySvc, scheduler.NewScheduler(),
		clockwork.NewRealClock(), cfg.StaleTaskSweepInterval(),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init application service")
	}

	svc, err := grpcservice.NewService(
		svcConfig, appSvc, sentryEnabled, grpcservice.TelemetryConfig{
			OtelEnabled:        cfg.OtelEnabled,
			OtelPushInterval:   cfg.OtelPushInterval,
			PyroscopeServerURL: cfg.PyroscopeServerURL,
		},
	)
	if err != nil {
		log.WithError(err).Fatal("failed to init interface service")
	}

	log.RegisterExitHandler(svc.Stop)
	log.RegisterExitHandler(custodySvc.Close)

	log.Info("starting service...")
	if err := svc.Start(); err != nil {
		log.Fatal(err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down service...")
	log.Exit(0)
}
