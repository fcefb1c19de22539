package db_test

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	reviewer = domain.NewAddress("0x00000000000000000000000000000000000000aa")
	worker   = domain.NewAddress("0x00000000000000000000000000000000000000bb")
	funderX  = domain.NewAddress("0x00000000000000000000000000000000000000c1")
	funderY  = domain.NewAddress("0x00000000000000000000000000000000000000c2")
	owner    = domain.NewAddress("0x00000000000000000000000000000000000000ee")
	vault    = domain.NewAddress("0x00000000000000000000000000000000000000ff")

	assetA = domain.NewAsset("0x000000000000000000000000000000000000000a")

	createdAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func TestRepoManager(t *testing.T) {
	tests := []struct {
		name   string
		config func(t *testing.T) db.ServiceConfig
	}{
		{
			name: "badger",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					DbType:   "badger",
					DbConfig: []any{"", nil},
				}
			},
		},
		{
			name: "badger on disk",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					DbType:   "badger",
					DbConfig: []any{t.TempDir(), nil},
				}
			},
		},
		{
			name: "sqlite",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					DbType:   "sqlite",
					DbConfig: []any{t.TempDir()},
				}
			},
		},
	}
	// The postgres database must be empty, as the suite expects a fresh ledger.
	if dsn := os.Getenv("ESCROWD_TEST_POSTGRES_DSN"); dsn != "" {
		tests = append(tests, struct {
			name   string
			config func(t *testing.T) db.ServiceConfig
		}{
			name: "postgres",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{DbType: "postgres", DbConfig: []any{dsn}}
			},
		})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := db.NewService(tt.config(t))
			require.NoError(t, err)
			defer svc.Close()

			testGovernanceRepository(t, svc)
			testTaskRepository(t, svc)
			testBalanceRepository(t, svc)
			testRunTx(t, svc)
		})
	}
}

func TestNewServiceInvalidConfig(t *testing.T) {
	fixtures := []struct {
		name   string
		config db.ServiceConfig
	}{
		{"unknown type", db.ServiceConfig{DbType: "mysql"}},
		{"badger missing logger", db.ServiceConfig{DbType: "badger", DbConfig: []any{""}}},
		{"badger invalid dir", db.ServiceConfig{DbType: "badger", DbConfig: []any{1, nil}}},
		{"sqlite missing dir", db.ServiceConfig{DbType: "sqlite"}},
		{"postgres empty dsn", db.ServiceConfig{DbType: "postgres", DbConfig: []any{""}}},
	}
	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			svc, err := db.NewService(f.config)
			require.Error(t, err)
			require.Nil(t, svc)
		})
	}
}

func testGovernanceRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("governance repository", func(t *testing.T) {
		repo := svc.Governance()

		gov, err := repo.Get(ctx)
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.Nil(t, gov)

		genesis, err := domain.NewGovernance(owner, vault, 25, 48*time.Hour)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, *genesis))

		gov, err = repo.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, *genesis, *gov)

		clamped, err := gov.LowerMaxTakeRate(owner, 10)
		require.NoError(t, err)
		require.True(t, clamped)
		require.NoError(t, repo.Save(ctx, *gov))

		updated, err := repo.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(10), updated.MaxTakeRate)
		require.Equal(t, uint32(10), updated.TakeRate)
	})
}

func testTaskRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("task repository", func(t *testing.T) {
		repo := svc.Tasks()

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Zero(t, count)

		_, err = repo.Get(ctx, 0)
		require.ErrorIs(t, err, domain.ErrNotFound)

		first, err := domain.NewTask(0, "https://tasks.example/0", reviewer, 20, createdAt)
		require.NoError(t, err)
		require.NoError(t, repo.Add(ctx, *first))
		require.Error(t, repo.Add(ctx, *first))

		got, err := repo.Get(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, *first, *got)

		second, err := domain.NewTask(1, "https://tasks.example/1", reviewer, 0, createdAt.Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, second.Fund(funderY, assetA, 7))
		require.NoError(t, second.Fund(funderX, domain.NativeAsset, math.MaxUint64-3))
		require.NoError(t, second.Fund(funderY, domain.NativeAsset, 3))
		require.NoError(t, repo.Add(ctx, *second))

		got, err = repo.Get(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, *second, *got)
		require.Equal(t, []domain.Asset{assetA, domain.NativeAsset}, got.FundingTypes.Items())
		require.Equal(t, []domain.Address{funderY, funderX}, got.Funders.Items())
		require.Equal(t, uint64(math.MaxUint64-3), got.FundingOf(funderX, domain.NativeAsset))
		require.Equal(t, uint64(math.MaxUint64), got.FundingTotal(domain.NativeAsset))

		require.NoError(t, first.Fund(funderX, assetA, 500))
		require.NoError(t, first.Approve(reviewer, worker))
		require.NoError(t, repo.Update(ctx, *first))

		got, err = repo.Get(ctx, 0)
		require.NoError(t, err)
		require.Equal(t, *first, *got)
		require.Equal(t, domain.TaskStatusApproved, got.Status())

		third, err := domain.NewTask(2, "https://tasks.example/2", reviewer, 50, createdAt)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Update(ctx, *third), domain.ErrNotFound)
		require.NoError(t, repo.Add(ctx, *third))

		count, err = repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(3), count)

		all, err := repo.GetAll(ctx, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, task := range all {
			require.Equal(t, uint64(i), task.Index)
		}

		page, err := repo.GetAll(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.Equal(t, *second, page[0])

		tail, err := repo.GetAll(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, tail, 1)
		require.Equal(t, uint64(2), tail[0].Index)

		_, err = second.Cancel(reviewer, createdAt, time.Hour)
		require.NoError(t, err)
		require.NoError(t, repo.Update(ctx, *second))

		open, err := repo.GetOpen(ctx)
		require.NoError(t, err)
		require.Len(t, open, 2)
		require.Equal(t, uint64(0), open[0].Index)
		require.Equal(t, uint64(2), open[1].Index)
	})
}

func testBalanceRepository(t *testing.T, svc ports.RepoManager) {
	t.Run("balance repository", func(t *testing.T) {
		repo := svc.Balances()

		balance, err := repo.GetWithdrawable(ctx, worker, assetA)
		require.NoError(t, err)
		require.Zero(t, balance)

		require.NoError(t, repo.Credit(ctx, worker, assetA, 100))
		require.NoError(t, repo.Credit(ctx, worker, assetA, 50))
		require.NoError(t, repo.Credit(ctx, worker, domain.NativeAsset, 1))

		balance, err = repo.GetWithdrawable(ctx, worker, assetA)
		require.NoError(t, err)
		require.Equal(t, uint64(150), balance)

		require.ErrorIs(t, repo.Debit(ctx, worker, assetA, 151), domain.ErrInsufficientBalance)
		require.NoError(t, repo.Debit(ctx, worker, assetA, 150))
		balance, err = repo.GetWithdrawable(ctx, worker, assetA)
		require.NoError(t, err)
		require.Zero(t, balance)

		require.ErrorIs(t, repo.Debit(ctx, reviewer, assetA, 1), domain.ErrInsufficientBalance)

		require.NoError(t, repo.Credit(ctx, reviewer, assetA, math.MaxUint64))
		require.ErrorIs(t, repo.Credit(ctx, reviewer, assetA, 1), domain.ErrInvalidArgument)

		tracked, err := repo.GetTracked(ctx, assetA)
		require.NoError(t, err)
		require.Zero(t, tracked)

		require.NoError(t, repo.Track(ctx, assetA, 40))
		require.NoError(t, repo.Track(ctx, assetA, 2))
		require.NoError(t, repo.Untrack(ctx, assetA, 12))
		tracked, err = repo.GetTracked(ctx, assetA)
		require.NoError(t, err)
		require.Equal(t, uint64(30), tracked)
		require.ErrorIs(t, repo.Untrack(ctx, assetA, 31), domain.ErrInsufficientBalance)
	})
}

func testRunTx(t *testing.T, svc ports.RepoManager) {
	t.Run("run tx", func(t *testing.T) {
		errAbort := errors.New("abort")

		err := svc.RunTx(ctx, func(ctx context.Context) error {
			if err := svc.Balances().Credit(ctx, funderY, assetA, 10); err != nil {
				return err
			}
			if err := svc.Balances().Track(ctx, assetA, 10); err != nil {
				return err
			}
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		balance, err := svc.Balances().GetWithdrawable(ctx, funderY, assetA)
		require.NoError(t, err)
		require.Zero(t, balance)

		err = svc.RunTx(ctx, func(ctx context.Context) error {
			if err := svc.Balances().Credit(ctx, funderY, assetA, 10); err != nil {
				return err
			}
			balance, err := svc.Balances().GetWithdrawable(ctx, funderY, assetA)
			if err != nil {
				return err
			}
			require.Equal(t, uint64(10), balance)
			return svc.Balances().Credit(ctx, funderY, assetA, 5)
		})
		require.NoError(t, err)

		balance, err = svc.Balances().GetWithdrawable(ctx, funderY, assetA)
		require.NoError(t, err)
		require.Equal(t, uint64(15), balance)
	})

	t.Run("run tx with tasks", func(t *testing.T) {
		errAbort := errors.New("abort")
		createdAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

		err := svc.RunTx(ctx, func(ctx context.Context) error {
			task, err := domain.NewTask(42, "https://tasks.example/tx", reviewer, 10, createdAt)
			if err != nil {
				return err
			}
			if err := svc.Tasks().Add(ctx, *task); err != nil {
				return err
			}

			stored, err := svc.Tasks().Get(ctx, 42)
			if err != nil {
				return err
			}
			if err := stored.Fund(funderX, assetA, 7); err != nil {
				return err
			}
			if err := svc.Tasks().Update(ctx, *stored); err != nil {
				return err
			}

			open, err := svc.Tasks().GetOpen(ctx)
			if err != nil {
				return err
			}
			found := false
			for _, task := range open {
				if task.Index == 42 {
					found = true
					require.Equal(t, uint64(7), task.Funding[domain.FundingKey{Funder: funderX, Asset: assetA}])
				}
			}
			require.True(t, found)
			return errAbort
		})
		require.ErrorIs(t, err, errAbort)

		_, err = svc.Tasks().Get(ctx, 42)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
