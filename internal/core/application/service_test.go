package application_test

import (
	"context"
	"testing"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/custody/inmemory"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db"
	scheduler "github.com/ArkLabsHQ/escrowd/internal/infrastructure/scheduler/gocron"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var (
	ctx = context.Background()

	owner    = domain.NewAddress("0x00000000000000000000000000000000000000ee")
	vault    = domain.NewAddress("0x00000000000000000000000000000000000000ff")
	reviewer = domain.NewAddress("0x00000000000000000000000000000000000000aa")
	worker   = domain.NewAddress("0x00000000000000000000000000000000000000bb")
	funderX  = domain.NewAddress("0x00000000000000000000000000000000000000c1")
	funderY  = domain.NewAddress("0x00000000000000000000000000000000000000c2")
	stranger = domain.NewAddress("0x00000000000000000000000000000000000000dd")

	assetA = domain.NewAsset("0x000000000000000000000000000000000000000a")
	assetB = domain.NewAsset("0x000000000000000000000000000000000000000b")

	unlockPeriod = 72 * time.Hour
	genesisTime  = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

type testEnv struct {
	svc     *application.Service
	custody *inmemory.Custody
	clock   clockwork.FakeClock
}

func newTestEnv(t *testing.T, takeRate uint32, sweepInterval time.Duration) testEnv {
	t.Helper()

	repoManager, err := db.NewService(db.ServiceConfig{
		DbType:   "badger",
		DbConfig: []any{"", nil},
	})
	require.NoError(t, err)

	custody := inmemory.NewCustody(false)
	clock := clockwork.NewFakeClockAt(genesisTime)

	svc, err := application.NewService(
		application.BuildInfo{Version: "test"},
		application.Genesis{
			Owner:           owner,
			Vault:           vault,
			InitialTakeRate: takeRate,
			UnlockPeriod:    unlockPeriod,
		},
		repoManager, custody, scheduler.NewScheduler(), clock, sweepInterval,
	)
	require.NoError(t, err)
	t.Cleanup(svc.Stop)

	return testEnv{svc, custody, clock}
}

func (e testEnv) mint(t *testing.T, to domain.Address, asset domain.Asset, amount uint64) {
	t.Helper()
	require.NoError(t, e.custody.Mint(to, asset, amount))
}

func (e testEnv) requireWithdrawable(
	t *testing.T, beneficiary domain.Address, asset domain.Asset, expected uint64,
) {
	t.Helper()
	balance, err := e.svc.GetWithdrawableBalance(ctx, beneficiary, asset)
	require.NoError(t, err)
	require.Equal(t, expected, balance, "withdrawable %s of %s", asset, beneficiary)
}

func (e testEnv) requireTracked(t *testing.T, asset domain.Asset, expected uint64) {
	t.Helper()
	tracked, err := e.svc.GetTrackedBalance(ctx, asset)
	require.NoError(t, err)
	require.Equal(t, expected, tracked, "tracked %s", asset)
}

func drain(ch <-chan application.Event) []application.EventType {
	types := make([]application.EventType, 0)
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return types
			}
			types = append(types, event.Type)
		default:
			return types
		}
	}
}

func TestNewService(t *testing.T) {
	t.Run("genesis is stored once", func(t *testing.T) {
		env := newTestEnv(t, 25, 0)

		gov, err := env.svc.GetGovernance(ctx)
		require.NoError(t, err)
		require.Equal(t, owner, gov.Owner)
		require.Equal(t, vault, gov.Vault)
		require.Equal(t, uint32(25), gov.TakeRate)
		require.Equal(t, domain.GenesisMaxTakeRate, gov.MaxTakeRate)
		require.Equal(t, unlockPeriod, gov.UnlockPeriod)
		require.True(t, env.svc.IsReady(ctx))
	})

	t.Run("stored governance wins over genesis", func(t *testing.T) {
		repoManager, err := db.NewService(db.ServiceConfig{
			DbType:   "sqlite",
			DbConfig: []any{t.TempDir()},
		})
		require.NoError(t, err)

		stored, err := domain.NewGovernance(owner, vault, 10, time.Hour)
		require.NoError(t, err)
		require.NoError(t, repoManager.Governance().Save(ctx, *stored))

		svc, err := application.NewService(
			application.BuildInfo{},
			application.Genesis{Owner: stranger, Vault: stranger, InitialTakeRate: 40},
			repoManager, inmemory.NewCustody(true), scheduler.NewScheduler(), nil, 0,
		)
		require.NoError(t, err)
		defer svc.Stop()

		gov, err := svc.GetGovernance(ctx)
		require.NoError(t, err)
		require.Equal(t, *stored, *gov)
	})

	t.Run("invalid genesis", func(t *testing.T) {
		fixtures := []struct {
			name    string
			genesis application.Genesis
		}{
			{"null owner", application.Genesis{Owner: domain.NullAddress, Vault: vault}},
			{"null vault", application.Genesis{Owner: owner, Vault: ""}},
			{"take rate above ceiling", application.Genesis{Owner: owner, Vault: vault, InitialTakeRate: 51}},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				repoManager, err := db.NewService(db.ServiceConfig{
					DbType:   "badger",
					DbConfig: []any{"", nil},
				})
				require.NoError(t, err)
				defer repoManager.Close()

				svc, err := application.NewService(
					application.BuildInfo{}, f.genesis, repoManager,
					inmemory.NewCustody(true), scheduler.NewScheduler(), nil, 0,
				)
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
				require.Nil(t, svc)
			})
		}
	})
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	events, unsubscribe := env.svc.SubscribeEvents()
	defer unsubscribe()

	t.Run("valid", func(t *testing.T) {
		for i := uint64(0); i < 3; i++ {
			index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/job", reviewer, 20)
			require.NoError(t, err)
			require.Equal(t, i, index)
		}

		count, err := env.svc.TaskCount(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(3), count)

		task, err := env.svc.GetTask(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, reviewer, task.Reviewer)
		require.Equal(t, uint8(20), task.ReviewerPercentage)
		require.Equal(t, genesisTime, task.CreatedAt)
		require.Equal(t, domain.TaskStatusOpen, task.Status())
		require.True(t, task.ApprovedWorker.IsNull())

		page, err := env.svc.ListTasks(ctx, 1, 5)
		require.NoError(t, err)
		require.Len(t, page, 2)

		require.Equal(t, []application.EventType{
			application.EventTypeTaskCreated,
			application.EventTypeTaskCreated,
			application.EventTypeTaskCreated,
		}, drain(events))
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name     string
			reviewer domain.Address
			pct      uint8
		}{
			{"null reviewer", domain.NullAddress, 10},
			{"empty reviewer", "", 10},
			{"percentage above 100", reviewer, 101},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				_, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/bad", f.reviewer, f.pct)
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
			})
		}

		_, err := env.svc.ListTasks(ctx, -1, 0)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		count, err := env.svc.TaskCount(ctx)
		require.NoError(t, err)
		require.Equal(t, uint64(3), count)
		require.Empty(t, drain(events))
	})
}

func TestFundTask(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)
		env.mint(t, funderX, assetA, 1000)
		env.mint(t, funderY, assetA, 1000)
		env.mint(t, funderY, domain.NativeAsset, 50)

		index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/fund", reviewer, 10)
		require.NoError(t, err)

		require.NoError(t, env.svc.FundTask(ctx, funderX, index, 600, assetA, 0))
		require.NoError(t, env.svc.FundTask(ctx, funderY, index, 400, assetA, 0))
		require.NoError(t, env.svc.FundTask(ctx, funderY, index, 50, domain.NativeAsset, 50))
		require.NoError(t, env.svc.FundTask(ctx, funderX, index, 1, assetA, 0))

		assets, totals, err := env.svc.GetTaskFunding(ctx, index)
		require.NoError(t, err)
		require.Equal(t, []domain.Asset{assetA, domain.NativeAsset}, assets)
		require.Equal(t, []uint64{1001, 50}, totals)

		task, err := env.svc.GetTask(ctx, index)
		require.NoError(t, err)
		require.Equal(t, []domain.Address{funderX, funderY}, task.Funders.Items())
		require.Equal(t, uint64(601), task.FundingOf(funderX, assetA))

		env.requireTracked(t, assetA, 1001)
		env.requireTracked(t, domain.NativeAsset, 50)

		held, err := env.custody.Custodied(ctx, assetA)
		require.NoError(t, err)
		require.Equal(t, uint64(1001), held)
		require.Equal(t, uint64(399), env.custody.BalanceOf(funderX, assetA))
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)
		env.mint(t, funderX, assetA, 100)
		env.mint(t, funderX, domain.NativeAsset, 100)

		index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/fund", reviewer, 10)
		require.NoError(t, err)
		canceled, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/gone", reviewer, 10)
		require.NoError(t, err)
		require.NoError(t, env.svc.CancelTask(ctx, reviewer, canceled))

		fixtures := []struct {
			name          string
			index         uint64
			amount        uint64
			asset         domain.Asset
			attachedValue uint64
			expectedErr   error
		}{
			{"unknown task", 42, 10, assetA, 0, domain.ErrNotFound},
			{"zero amount", index, 0, assetA, 0, domain.ErrInvalidArgument},
			{"native value mismatch", index, 10, domain.NativeAsset, 9, domain.ErrInvalidArgument},
			{"native value missing", index, 10, domain.NativeAsset, 0, domain.ErrInvalidArgument},
			{"value attached to token funding", index, 10, assetA, 10, domain.ErrInvalidArgument},
			{"terminal task", canceled, 10, assetA, 0, domain.ErrInvalidState},
			{"pull fails", index, 101, assetA, 0, domain.ErrTransferFailed},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				err := env.svc.FundTask(ctx, funderX, f.index, f.amount, f.asset, f.attachedValue)
				require.ErrorIs(t, err, f.expectedErr)

				task, err := env.svc.GetTask(ctx, index)
				require.NoError(t, err)
				require.Zero(t, task.FundingTotal(f.asset))
				require.Zero(t, task.FundingTypes.Len())
				env.requireTracked(t, assetA, 0)
				env.requireTracked(t, domain.NativeAsset, 0)
				require.Equal(t, uint64(100), env.custody.BalanceOf(funderX, assetA))
			})
		}
	})
}

func TestCreateAndFundTask(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	env.mint(t, funderX, assetA, 100)
	events, unsubscribe := env.svc.SubscribeEvents()
	defer unsubscribe()

	t.Run("valid", func(t *testing.T) {
		index, err := env.svc.CreateAndFundTask(
			ctx, funderX, "https://tasks.example/both", reviewer, 30, 70, assetA, 0,
		)
		require.NoError(t, err)
		require.Zero(t, index)

		task, err := env.svc.GetTask(ctx, index)
		require.NoError(t, err)
		require.Equal(t, uint64(70), task.FundingOf(funderX, assetA))
		env.requireTracked(t, assetA, 70)

		require.Equal(t, []application.EventType{
			application.EventTypeTaskCreated,
			application.EventTypeTaskFunded,
		}, drain(events))
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name        string
			reviewer    domain.Address
			amount      uint64
			expectedErr error
		}{
			{"null reviewer", domain.NullAddress, 10, domain.ErrInvalidArgument},
			{"zero amount", reviewer, 0, domain.ErrInvalidArgument},
			{"pull fails", reviewer, 31, domain.ErrTransferFailed},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				_, err := env.svc.CreateAndFundTask(
					ctx, funderX, "https://tasks.example/both", f.reviewer, 30, f.amount, assetA, 0,
				)
				require.ErrorIs(t, err, f.expectedErr)

				count, err := env.svc.TaskCount(ctx)
				require.NoError(t, err)
				require.Equal(t, uint64(1), count)
				env.requireTracked(t, assetA, 70)
				require.Equal(t, uint64(30), env.custody.BalanceOf(funderX, assetA))
				require.Empty(t, drain(events))
			})
		}
	})
}

func TestSubmitWork(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	events, unsubscribe := env.svc.SubscribeEvents()
	defer unsubscribe()

	index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/work", reviewer, 10)
	require.NoError(t, err)
	<-events

	require.NoError(t, env.svc.SubmitWork(ctx, worker, index, "https://results.example/1"))
	event := <-events
	require.Equal(t, application.EventTypeWorkSubmitted, event.Type)
	require.Equal(t, worker, event.Caller)
	require.Equal(t, "https://results.example/1", event.Task.Url)
	require.NotEmpty(t, event.ID)

	task, err := env.svc.GetTask(ctx, index)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusOpen, task.Status())

	err = env.svc.SubmitWork(ctx, worker, index+1, "https://results.example/2")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, drain(events))
}

func TestApproveTask(t *testing.T) {
	env := newTestEnv(t, 0, 0)

	index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/approve", reviewer, 10)
	require.NoError(t, err)

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			name        string
			caller      domain.Address
			index       uint64
			worker      domain.Address
			expectedErr error
		}{
			{"not the reviewer", stranger, index, worker, domain.ErrUnauthorized},
			{"null worker", reviewer, index, domain.NullAddress, domain.ErrInvalidArgument},
			{"unknown task", reviewer, 9, worker, domain.ErrNotFound},
		}
		for _, f := range fixtures {
			t.Run(f.name, func(t *testing.T) {
				require.ErrorIs(t, env.svc.ApproveTask(ctx, f.caller, f.index, f.worker), f.expectedErr)
				require.ErrorIs(t, env.svc.SetApprovedWorker(ctx, f.caller, f.index, f.worker), f.expectedErr)
			})
		}
	})

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, env.svc.SetApprovedWorker(ctx, reviewer, index, stranger))
		task, err := env.svc.GetTask(ctx, index)
		require.NoError(t, err)
		require.Equal(t, stranger, task.ApprovedWorker)
		require.False(t, task.Approved)

		require.NoError(t, env.svc.ApproveTask(ctx, reviewer, index, worker))
		task, err = env.svc.GetTask(ctx, index)
		require.NoError(t, err)
		require.Equal(t, worker, task.ApprovedWorker)
		require.Equal(t, domain.TaskStatusApproved, task.Status())

		// changing the worker keeps the task approved
		require.NoError(t, env.svc.SetApprovedWorker(ctx, reviewer, index, stranger))
		task, err = env.svc.GetTask(ctx, index)
		require.NoError(t, err)
		require.Equal(t, stranger, task.ApprovedWorker)
		require.True(t, task.Approved)
	})
}

func TestFinalizeTask(t *testing.T) {
	env := newTestEnv(t, 50, 0)
	env.mint(t, funderX, assetA, 600)
	env.mint(t, funderY, assetA, 400)
	env.mint(t, funderY, assetB, 7)
	events, unsubscribe := env.svc.SubscribeEvents()
	defer unsubscribe()

	index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/pay", reviewer, 20)
	require.NoError(t, err)
	require.NoError(t, env.svc.FundTask(ctx, funderX, index, 600, assetA, 0))
	require.NoError(t, env.svc.FundTask(ctx, funderY, index, 400, assetA, 0))
	require.NoError(t, env.svc.FundTask(ctx, funderY, index, 7, assetB, 0))

	require.ErrorIs(t, env.svc.FinalizeTask(ctx, stranger, index), domain.ErrInvalidState)

	require.NoError(t, env.svc.ApproveTask(ctx, reviewer, index, worker))
	require.NoError(t, env.svc.FinalizeTask(ctx, stranger, index))

	// 1000 at 5%: protocol 50, reviewer 20% of 950, worker the rest
	env.requireWithdrawable(t, vault, assetA, 50)
	env.requireWithdrawable(t, reviewer, assetA, 190)
	env.requireWithdrawable(t, worker, assetA, 760)
	// 7 at 5%: protocol 0, reviewer 20% of 7 = 1, worker 6
	env.requireWithdrawable(t, vault, assetB, 0)
	env.requireWithdrawable(t, reviewer, assetB, 1)
	env.requireWithdrawable(t, worker, assetB, 6)
	env.requireTracked(t, assetA, 1000)
	env.requireTracked(t, assetB, 7)

	task, err := env.svc.GetTask(ctx, index)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusComplete, task.Status())

	t.Run("no second payout pass", func(t *testing.T) {
		require.ErrorIs(t, env.svc.FinalizeTask(ctx, stranger, index), domain.ErrInvalidState)
		require.ErrorIs(t, env.svc.CancelTask(ctx, reviewer, index), domain.ErrInvalidState)
		require.ErrorIs(t, env.svc.FundTask(ctx, funderX, index, 1, assetA, 0), domain.ErrInvalidState)
		require.ErrorIs(t, env.svc.ApproveTask(ctx, reviewer, index, worker), domain.ErrInvalidState)

		env.requireWithdrawable(t, worker, assetA, 760)
		env.requireWithdrawable(t, funderX, assetA, 0)
	})

	t.Run("withdraw", func(t *testing.T) {
		require.ErrorIs(t, env.svc.Withdraw(ctx, worker, 0, assetA), domain.ErrInvalidArgument)
		require.ErrorIs(t, env.svc.Withdraw(ctx, worker, 761, assetA), domain.ErrInsufficientBalance)

		require.NoError(t, env.svc.Withdraw(ctx, worker, 700, assetA))
		require.NoError(t, env.svc.Withdraw(ctx, worker, 60, assetA))
		require.ErrorIs(t, env.svc.Withdraw(ctx, worker, 1, assetA), domain.ErrInsufficientBalance)

		env.requireWithdrawable(t, worker, assetA, 0)
		env.requireTracked(t, assetA, 240)
		require.Equal(t, uint64(760), env.custody.BalanceOf(worker, assetA))

		held, err := env.custody.Custodied(ctx, assetA)
		require.NoError(t, err)
		require.Equal(t, uint64(240), held)
	})

	types := drain(events)
	require.Contains(t, types, application.EventTypeTaskApproved)
	require.Contains(t, types, application.EventTypeTaskFinalized)
	require.Contains(t, types, application.EventTypeWithdrawal)
}

func TestCancelTask(t *testing.T) {
	t.Run("refunds every funder", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)
		env.mint(t, funderX, assetA, 500)
		env.mint(t, funderY, assetB, 300)

		index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/cancel", reviewer, 10)
		require.NoError(t, err)
		require.NoError(t, env.svc.FundTask(ctx, funderX, index, 500, assetA, 0))
		require.NoError(t, env.svc.FundTask(ctx, funderY, index, 300, assetB, 0))

		require.ErrorIs(t, env.svc.CancelTask(ctx, stranger, index), domain.ErrUnauthorized)
		require.NoError(t, env.svc.CancelTask(ctx, reviewer, index))

		env.requireWithdrawable(t, funderX, assetA, 500)
		env.requireWithdrawable(t, funderY, assetB, 300)
		env.requireWithdrawable(t, funderX, assetB, 0)
		env.requireWithdrawable(t, funderY, assetA, 0)
		env.requireTracked(t, assetA, 500)
		env.requireTracked(t, assetB, 300)

		assets, totals, err := env.svc.GetTaskFunding(ctx, index)
		require.NoError(t, err)
		require.Equal(t, []domain.Asset{assetA, assetB}, assets)
		require.Equal(t, []uint64{500, 300}, totals)

		require.ErrorIs(t, env.svc.CancelTask(ctx, reviewer, index), domain.ErrInvalidState)
		require.ErrorIs(t, env.svc.ApproveTask(ctx, reviewer, index, worker), domain.ErrInvalidState)
		require.ErrorIs(t, env.svc.FinalizeTask(ctx, reviewer, index), domain.ErrInvalidState)
		env.requireWithdrawable(t, funderX, assetA, 500)

		require.NoError(t, env.svc.Withdraw(ctx, funderX, 500, assetA))
		require.Equal(t, uint64(500), env.custody.BalanceOf(funderX, assetA))
		env.requireTracked(t, assetA, 0)
	})

	t.Run("anyone after the unlock period", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)
		env.mint(t, funderX, domain.NativeAsset, 10)

		index, err := env.svc.CreateAndFundTask(
			ctx, funderX, "https://tasks.example/stale", reviewer, 10, 10, domain.NativeAsset, 10,
		)
		require.NoError(t, err)

		env.clock.Advance(unlockPeriod)
		require.ErrorIs(t, env.svc.CancelTask(ctx, stranger, index), domain.ErrUnauthorized)

		env.clock.Advance(time.Second)
		require.NoError(t, env.svc.CancelTask(ctx, stranger, index))
		env.requireWithdrawable(t, funderX, domain.NativeAsset, 10)
		env.requireWithdrawable(t, stranger, domain.NativeAsset, 0)
	})

	t.Run("unknown task", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)
		require.ErrorIs(t, env.svc.CancelTask(ctx, reviewer, 0), domain.ErrNotFound)
	})
}

func TestWithdrawTransferFailure(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	env.mint(t, funderX, assetA, 80)

	index, err := env.svc.CreateAndFundTask(
		ctx, funderX, "https://tasks.example/frozen", reviewer, 0, 80, assetA, 0,
	)
	require.NoError(t, err)
	require.NoError(t, env.svc.ApproveTask(ctx, reviewer, index, worker))
	require.NoError(t, env.svc.FinalizeTask(ctx, worker, index))
	env.requireWithdrawable(t, worker, assetA, 80)

	events, unsubscribe := env.svc.SubscribeEvents()
	defer unsubscribe()

	env.custody.Freeze(worker)
	require.ErrorIs(t, env.svc.Withdraw(ctx, worker, 30, assetA), domain.ErrTransferFailed)

	env.requireWithdrawable(t, worker, assetA, 80)
	env.requireTracked(t, assetA, 80)
	require.Zero(t, env.custody.BalanceOf(worker, assetA))
	require.Empty(t, drain(events))

	env.custody.Unfreeze(worker)
	require.NoError(t, env.svc.Withdraw(ctx, worker, 30, assetA))
	env.requireWithdrawable(t, worker, assetA, 50)
	env.requireTracked(t, assetA, 50)
	require.Equal(t, uint64(30), env.custody.BalanceOf(worker, assetA))
	require.Equal(t, []application.EventType{application.EventTypeWithdrawal}, drain(events))
}

func TestGovernance(t *testing.T) {
	t.Run("take rate", func(t *testing.T) {
		env := newTestEnv(t, 40, 0)
		events, unsubscribe := env.svc.SubscribeEvents()
		defer unsubscribe()

		require.ErrorIs(t, env.svc.AdjustTakeRate(ctx, stranger, 10), domain.ErrUnauthorized)
		require.ErrorIs(t, env.svc.AdjustTakeRate(ctx, owner, 51), domain.ErrInvalidArgument)
		require.NoError(t, env.svc.AdjustTakeRate(ctx, owner, 50))
		require.NoError(t, env.svc.AdjustTakeRate(ctx, owner, 30))

		require.ErrorIs(t, env.svc.PermanentlyLowerMaxTakeRate(ctx, stranger, 20), domain.ErrUnauthorized)
		require.ErrorIs(t, env.svc.PermanentlyLowerMaxTakeRate(ctx, owner, 50), domain.ErrInvalidArgument)
		require.Equal(t, []application.EventType{
			application.EventTypeTakeRateAdjusted,
			application.EventTypeTakeRateAdjusted,
		}, drain(events))

		// below the live rate: the rate is clamped
		require.NoError(t, env.svc.PermanentlyLowerMaxTakeRate(ctx, owner, 20))
		lowered := <-events
		require.Equal(t, application.EventTypeMaxTakeRateLowered, lowered.Type)
		require.Equal(t, uint32(20), lowered.Governance.MaxTakeRate)
		clamped := <-events
		require.Equal(t, application.EventTypeTakeRateAdjusted, clamped.Type)
		require.Equal(t, uint32(20), clamped.Governance.TakeRate)

		// above the live rate: no clamp
		require.NoError(t, env.svc.AdjustTakeRate(ctx, owner, 5))
		require.NoError(t, env.svc.PermanentlyLowerMaxTakeRate(ctx, owner, 10))
		require.Equal(t, []application.EventType{
			application.EventTypeTakeRateAdjusted,
			application.EventTypeMaxTakeRateLowered,
		}, drain(events))

		require.ErrorIs(t, env.svc.AdjustTakeRate(ctx, owner, 11), domain.ErrInvalidArgument)
		require.ErrorIs(t, env.svc.PermanentlyLowerMaxTakeRate(ctx, owner, 10), domain.ErrInvalidArgument)

		gov, err := env.svc.GetGovernance(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(5), gov.TakeRate)
		require.Equal(t, uint32(10), gov.MaxTakeRate)
	})

	t.Run("unlock period", func(t *testing.T) {
		env := newTestEnv(t, 0, 0)

		require.ErrorIs(t, env.svc.AdjustUnlockPeriod(ctx, stranger, time.Hour), domain.ErrUnauthorized)
		require.ErrorIs(t, env.svc.AdjustUnlockPeriod(ctx, owner, -time.Hour), domain.ErrInvalidArgument)
		require.NoError(t, env.svc.AdjustUnlockPeriod(ctx, owner, 0))

		gov, err := env.svc.GetGovernance(ctx)
		require.NoError(t, err)
		require.Zero(t, gov.UnlockPeriod)

		index, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/now", reviewer, 0)
		require.NoError(t, err)
		env.clock.Advance(time.Nanosecond)
		require.NoError(t, env.svc.CancelTask(ctx, stranger, index))
	})
}

func TestWithdrawStuckTokens(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	env.mint(t, funderX, assetA, 100)

	_, err := env.svc.CreateAndFundTask(
		ctx, funderX, "https://tasks.example/stuck", reviewer, 0, 100, assetA, 0,
	)
	require.NoError(t, err)

	swept, err := env.svc.WithdrawStuckTokens(ctx, owner, assetA)
	require.NoError(t, err)
	require.Zero(t, swept)

	require.NoError(t, env.custody.Inject(assetA, 50))

	_, err = env.svc.WithdrawStuckTokens(ctx, stranger, assetA)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	swept, err = env.svc.WithdrawStuckTokens(ctx, owner, assetA)
	require.NoError(t, err)
	require.Equal(t, uint64(50), swept)
	require.Equal(t, uint64(50), env.custody.BalanceOf(owner, assetA))
	env.requireTracked(t, assetA, 100)

	held, err := env.custody.Custodied(ctx, assetA)
	require.NoError(t, err)
	require.Equal(t, uint64(100), held)

	swept, err = env.svc.WithdrawStuckTokens(ctx, owner, assetB)
	require.NoError(t, err)
	require.Zero(t, swept)

	env.custody.Freeze(owner)
	require.NoError(t, env.custody.Inject(assetA, 1))
	_, err = env.svc.WithdrawStuckTokens(ctx, owner, assetA)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
}

func TestCancelStaleTasks(t *testing.T) {
	env := newTestEnv(t, 0, 0)
	env.mint(t, funderX, assetA, 30)

	for i := 0; i < 2; i++ {
		_, err := env.svc.CreateAndFundTask(
			ctx, funderX, "https://tasks.example/old", reviewer, 0, 10, assetA, 0,
		)
		require.NoError(t, err)
	}
	approved, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/approved", reviewer, 0)
	require.NoError(t, err)
	require.NoError(t, env.svc.ApproveTask(ctx, reviewer, approved, worker))

	env.clock.Advance(unlockPeriod + time.Minute)

	fresh, err := env.svc.CreateAndFundTask(
		ctx, funderX, "https://tasks.example/new", reviewer, 0, 10, assetA, 0,
	)
	require.NoError(t, err)

	canceled, err := env.svc.CancelStaleTasks(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, canceled)

	env.requireWithdrawable(t, funderX, assetA, 20)
	task, err := env.svc.GetTask(ctx, fresh)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusOpen, task.Status())

	// approved tasks wait for the reviewer to finalize them
	task, err = env.svc.GetTask(ctx, approved)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStatusApproved, task.Status())
	require.NoError(t, env.svc.FinalizeTask(ctx, reviewer, approved))

	canceled, err = env.svc.CancelStaleTasks(ctx)
	require.NoError(t, err)
	require.Zero(t, canceled)
}

func TestStaleTaskSweeper(t *testing.T) {
	env := newTestEnv(t, 0, 50*time.Millisecond)
	env.mint(t, funderX, assetA, 10)

	index, err := env.svc.CreateAndFundTask(
		ctx, funderX, "https://tasks.example/sweep", reviewer, 0, 10, assetA, 0,
	)
	require.NoError(t, err)

	require.NoError(t, env.svc.Start())
	env.clock.Advance(unlockPeriod + time.Second)

	require.Eventually(t, func() bool {
		task, err := env.svc.GetTask(ctx, index)
		return err == nil && task.Status() == domain.TaskStatusCanceled
	}, 5*time.Second, 20*time.Millisecond)
	env.requireWithdrawable(t, funderX, assetA, 10)
}

func TestSubscribeEvents(t *testing.T) {
	env := newTestEnv(t, 0, 0)

	first, unsubscribeFirst := env.svc.SubscribeEvents()
	second, unsubscribeSecond := env.svc.SubscribeEvents()
	defer unsubscribeSecond()

	_, err := env.svc.CreateTask(ctx, funderX, "https://tasks.example/events", reviewer, 0)
	require.NoError(t, err)

	event := <-first
	require.Equal(t, application.EventTypeTaskCreated, event.Type)
	require.Equal(t, funderX, event.Caller)
	require.Equal(t, reviewer, event.Task.Reviewer)
	require.Equal(t, genesisTime, event.Timestamp)
	require.Equal(t, event.ID, (<-second).ID)

	unsubscribeFirst()
	unsubscribeFirst()
	_, ok := <-first
	require.False(t, ok)

	_, err = env.svc.CreateTask(ctx, funderX, "https://tasks.example/events", reviewer, 0)
	require.NoError(t, err)
	require.Equal(t, []application.EventType{application.EventTypeTaskCreated}, drain(second))
}
