package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	badgerdb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/badger"
	pgdb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/postgres"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	sqlitedb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	sqliteDbFile = "escrowd.db"
)

var (
	//go:embed sqlite/migration/*
	sqliteMigrations embed.FS
	//go:embed postgres/migration/*
	postgresMigrations embed.FS

	allowedTypes = strings.Join([]string{"badger", "sqlite", "postgres"}, ",")
)

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	taskRepo       domain.TaskRepository
	balanceRepo    domain.BalanceRepository
	governanceRepo domain.GovernanceRepository
	runTx          func(ctx context.Context, fn func(ctx context.Context) error) error
	close          func() error
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		store, err := badgerdb.NewStore(baseDir, logger)
		if err != nil {
			return nil, err
		}
		return newBadgerService(store)

	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("sqlite db config must have 1 element, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		db, err := sqldb.OpenSqlite(filepath.Join(baseDir, sqliteDbFile))
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %s", err)
		}
		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}
		return newSqlService(db, sqldb.DialectSqlite, driver, sqliteMigrations, "sqlite/migration")

	case "postgres":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("postgres db config must have 1 element, got %d", len(config.DbConfig))
		}
		dsn, ok := config.DbConfig[0].(string)
		if !ok || dsn == "" {
			return nil, fmt.Errorf("invalid postgres dsn")
		}
		db, err := sqldb.OpenPostgres(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres db: %s", err)
		}
		driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}
		return newSqlService(db, sqldb.DialectPostgres, driver, postgresMigrations, "postgres/migration")

	default:
		return nil, fmt.Errorf("unsupported db type %s, please select one of %s", config.DbType, allowedTypes)
	}
}

func newBadgerService(store *badgerhold.Store) (ports.RepoManager, error) {
	taskRepo, err := badgerdb.NewTaskRepository(store)
	if err != nil {
		return nil, err
	}
	balanceRepo, err := badgerdb.NewBalanceRepository(store)
	if err != nil {
		return nil, err
	}
	governanceRepo, err := badgerdb.NewGovernanceRepository(store)
	if err != nil {
		return nil, err
	}

	return &service{
		taskRepo:       taskRepo,
		balanceRepo:    balanceRepo,
		governanceRepo: governanceRepo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return badgerdb.RunTx(ctx, store, fn)
		},
		close: store.Close,
	}, nil
}

func newSqlService(
	db *sql.DB, dialect sqldb.Dialect, driver database.Driver, migrations embed.FS, dir string,
) (ports.RepoManager, error) {
	source, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to embed migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "escrowdb", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %s", err)
	}

	_, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to read migration version: %w", verr)
	}
	if dirty {
		return nil, fmt.Errorf("database is in a dirty migration state; manual intervention required")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to run migrations: %s", err)
	}

	if err := ApplyGoMigrations(
		context.Background(), db, dialect, goMigrations(dialect),
	); err != nil {
		return nil, err
	}

	newTaskRepository := sqlitedb.NewTaskRepository
	newBalanceRepository := sqlitedb.NewBalanceRepository
	newGovernanceRepository := sqlitedb.NewGovernanceRepository
	if dialect == sqldb.DialectPostgres {
		newTaskRepository = pgdb.NewTaskRepository
		newBalanceRepository = pgdb.NewBalanceRepository
		newGovernanceRepository = pgdb.NewGovernanceRepository
	}

	taskRepo, err := newTaskRepository(db)
	if err != nil {
		return nil, err
	}
	balanceRepo, err := newBalanceRepository(db)
	if err != nil {
		return nil, err
	}
	governanceRepo, err := newGovernanceRepository(db)
	if err != nil {
		return nil, err
	}

	log.Debugf("%s db ready", dialect)
	return &service{
		taskRepo:       taskRepo,
		balanceRepo:    balanceRepo,
		governanceRepo: governanceRepo,
		runTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return sqldb.RunTx(ctx, db, fn)
		},
		close: db.Close,
	}, nil
}

func (s *service) Tasks() domain.TaskRepository {
	return s.taskRepo
}

func (s *service) Balances() domain.BalanceRepository {
	return s.balanceRepo
}

func (s *service) Governance() domain.GovernanceRepository {
	return s.governanceRepo
}

func (s *service) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.runTx(ctx, fn)
}

func (s *service) Close() {
	if err := s.close(); err != nil {
		log.WithError(err).Warn("failed to close db")
	}
}
