package application_test

import (
	"path/filepath"
	"testing"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	badgercustody "github.com/ArkLabsHQ/escrowd/internal/infrastructure/custody/badger"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db"
	scheduler "github.com/ArkLabsHQ/escrowd/internal/infrastructure/scheduler/gocron"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// newDurableService wires the daemon's persistent backends: a sqlite ledger
// and a badger custody store, both under datadir.
func newDurableService(
	t *testing.T, datadir string,
) (*application.Service, *badgercustody.Custody) {
	t.Helper()

	repoManager, err := db.NewService(db.ServiceConfig{
		DbType:   "sqlite",
		DbConfig: []any{datadir},
	})
	require.NoError(t, err)

	custody, err := badgercustody.NewCustody(filepath.Join(datadir, "custody"), false)
	require.NoError(t, err)

	svc, err := application.NewService(
		application.BuildInfo{Version: "test"},
		application.Genesis{
			Owner:           owner,
			Vault:           vault,
			InitialTakeRate: 25,
			UnlockPeriod:    unlockPeriod,
		},
		repoManager, custody, scheduler.NewScheduler(),
		clockwork.NewFakeClockAt(genesisTime), 0,
	)
	require.NoError(t, err)
	return svc, custody
}

func TestLedgerAndCustodySurviveRestart(t *testing.T) {
	datadir := t.TempDir()

	svc, custody := newDurableService(t, datadir)
	require.NoError(t, custody.Mint(funderX, assetA, 1000))

	index, err := svc.CreateAndFundTask(
		ctx, funderX, "https://tasks.example/restart", reviewer, 20, 1000, assetA, 0,
	)
	require.NoError(t, err)
	require.NoError(t, svc.ApproveTask(ctx, reviewer, index, worker))
	require.NoError(t, svc.FinalizeTask(ctx, reviewer, index))

	earned, err := svc.GetWithdrawableBalance(ctx, worker, assetA)
	require.NoError(t, err)
	require.NotZero(t, earned)

	svc.Stop()
	custody.Close()

	svc, custody = newDurableService(t, datadir)
	t.Cleanup(func() {
		svc.Stop()
		custody.Close()
	})

	tracked, err := svc.GetTrackedBalance(ctx, assetA)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), tracked)
	held, err := custody.Custodied(ctx, assetA)
	require.NoError(t, err)
	require.Equal(t, tracked, held)

	balance, err := svc.GetWithdrawableBalance(ctx, worker, assetA)
	require.NoError(t, err)
	require.Equal(t, earned, balance)

	require.NoError(t, svc.Withdraw(ctx, worker, earned, assetA))

	received, err := custody.BalanceOf(worker, assetA)
	require.NoError(t, err)
	require.Equal(t, earned, received)
	held, err = custody.Custodied(ctx, assetA)
	require.NoError(t, err)
	require.Equal(t, 1000-earned, held)

	// the vault's take is still backed by custody after the restart
	take, err := svc.GetWithdrawableBalance(ctx, vault, assetA)
	require.NoError(t, err)
	require.Equal(t, uint64(25), take)
	require.NoError(t, svc.Withdraw(ctx, vault, take, assetA))

	// the stuck token sweep finds nothing to reclaim
	swept, err := svc.WithdrawStuckTokens(ctx, owner, assetA)
	require.NoError(t, err)
	require.Zero(t, swept)
}
