package domain_test

import (
	"math"
	"testing"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

var (
	reviewer = domain.NewAddress("0x00000000000000000000000000000000000000aa")
	worker   = domain.NewAddress("0x00000000000000000000000000000000000000bb")
	funderX  = domain.NewAddress("0x00000000000000000000000000000000000000c1")
	funderY  = domain.NewAddress("0x00000000000000000000000000000000000000c2")
	stranger = domain.NewAddress("0x00000000000000000000000000000000000000dd")

	assetA = domain.NewAsset("0x000000000000000000000000000000000000000a")
	assetB = domain.NewAsset("0x000000000000000000000000000000000000000b")

	createdAt    = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	unlockPeriod = 24 * time.Hour
)

func newTestTask(t *testing.T) *domain.Task {
	task, err := domain.NewTask(0, "https://tasks.example/0", reviewer, 20, createdAt)
	require.NoError(t, err)
	return task
}

func TestNewTask(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		task := newTestTask(t)
		require.Equal(t, domain.TaskStatusOpen, task.Status())
		require.False(t, task.Approved)
		require.False(t, task.Canceled)
		require.False(t, task.Complete)
		require.True(t, task.ApprovedWorker.IsNull())
		require.Equal(t, createdAt, task.CreatedAt)
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
				task, err := domain.NewTask(0, "url", f.reviewer, f.pct, createdAt)
				require.ErrorIs(t, err, domain.ErrInvalidArgument)
				require.Nil(t, task)
			})
		}
	})
}

func TestTaskFunding(t *testing.T) {
	t.Run("ledger accumulates per funder and asset", func(t *testing.T) {
		task := newTestTask(t)

		require.NoError(t, task.Fund(funderX, assetA, 600))
		require.NoError(t, task.Fund(funderY, assetA, 400))
		require.NoError(t, task.Fund(funderX, assetB, 5))
		require.NoError(t, task.Fund(funderX, assetA, 1))

		require.Equal(t, []domain.Asset{assetA, assetB}, task.FundingTypes.Items())
		require.Equal(t, []domain.Address{funderX, funderY}, task.Funders.Items())
		require.Equal(t, uint64(601), task.FundingOf(funderX, assetA))
		require.Equal(t, uint64(400), task.FundingOf(funderY, assetA))
		require.Zero(t, task.FundingOf(funderY, assetB))
		require.Equal(t, []domain.AssetAmount{
			{Asset: assetA, Amount: 1001},
			{Asset: assetB, Amount: 5},
		}, task.FundingTotals())
		require.Equal(t, []domain.FundingEntry{
			{Funder: funderX, Asset: assetA, Amount: 601},
			{Funder: funderX, Asset: assetB, Amount: 5},
			{Funder: funderY, Asset: assetA, Amount: 400},
		}, task.FundingEntries())
	})

	t.Run("zero amount", func(t *testing.T) {
		task := newTestTask(t)
		err := task.Fund(funderX, assetA, 0)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		require.Zero(t, task.FundingTypes.Len())
		require.Zero(t, task.Funders.Len())
	})

	t.Run("overflow", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Fund(funderX, assetA, math.MaxUint64))
		err := task.Fund(funderY, assetA, 1)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
		require.False(t, task.Funders.Contains(funderY))
	})

	t.Run("terminal task", func(t *testing.T) {
		canceled := newTestTask(t)
		_, err := canceled.Cancel(reviewer, createdAt, unlockPeriod)
		require.NoError(t, err)
		require.ErrorIs(t, canceled.Fund(funderX, assetA, 1), domain.ErrInvalidState)

		complete := newTestTask(t)
		require.NoError(t, complete.Approve(reviewer, worker))
		_, err = complete.Finalize()
		require.NoError(t, err)
		require.ErrorIs(t, complete.Fund(funderX, assetA, 1), domain.ErrInvalidState)
	})
}

func TestTaskApproval(t *testing.T) {
	t.Run("approve", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Approve(reviewer, worker))
		require.True(t, task.Approved)
		require.Equal(t, worker, task.ApprovedWorker)
		require.Equal(t, domain.TaskStatusApproved, task.Status())

		// approving again only changes the worker
		require.NoError(t, task.Approve(reviewer, stranger))
		require.Equal(t, stranger, task.ApprovedWorker)
	})

	t.Run("set worker keeps approval flag", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.SetApprovedWorker(reviewer, worker))
		require.False(t, task.Approved)
		require.Equal(t, worker, task.ApprovedWorker)
	})

	t.Run("invalid", func(t *testing.T) {
		task := newTestTask(t)
		require.ErrorIs(t, task.Approve(stranger, worker), domain.ErrUnauthorized)
		require.ErrorIs(t, task.SetApprovedWorker(stranger, worker), domain.ErrUnauthorized)
		require.ErrorIs(t, task.Approve(reviewer, domain.NullAddress), domain.ErrInvalidArgument)
		require.ErrorIs(t, task.SetApprovedWorker(reviewer, ""), domain.ErrInvalidArgument)
		require.False(t, task.Approved)

		_, err := task.Cancel(reviewer, createdAt, unlockPeriod)
		require.NoError(t, err)
		require.ErrorIs(t, task.Approve(reviewer, worker), domain.ErrInvalidState)
		require.ErrorIs(t, task.SetApprovedWorker(reviewer, worker), domain.ErrInvalidState)
	})
}

func TestTaskCancel(t *testing.T) {
	t.Run("reviewer refunds every funder", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Fund(funderX, assetA, 500))
		require.NoError(t, task.Fund(funderY, assetB, 300))

		refunds, err := task.Cancel(reviewer, createdAt, unlockPeriod)
		require.NoError(t, err)
		require.Equal(t, []domain.FundingEntry{
			{Funder: funderX, Asset: assetA, Amount: 500},
			{Funder: funderY, Asset: assetB, Amount: 300},
		}, refunds)
		require.True(t, task.Canceled)
		require.Equal(t, domain.TaskStatusCanceled, task.Status())
		// the funding ledger is left as is
		require.Equal(t, uint64(500), task.FundingOf(funderX, assetA))
	})

	t.Run("anyone after unlock period", func(t *testing.T) {
		task := newTestTask(t)

		_, err := task.Cancel(stranger, createdAt.Add(unlockPeriod), unlockPeriod)
		require.ErrorIs(t, err, domain.ErrUnauthorized)
		require.False(t, task.Canceled)

		_, err = task.Cancel(stranger, createdAt.Add(unlockPeriod+time.Second), unlockPeriod)
		require.NoError(t, err)
		require.True(t, task.Canceled)
	})

	t.Run("at most one terminal pass", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.Cancel(reviewer, createdAt, unlockPeriod)
		require.NoError(t, err)
		_, err = task.Cancel(reviewer, createdAt, unlockPeriod)
		require.ErrorIs(t, err, domain.ErrInvalidState)
		_, err = task.Finalize()
		require.ErrorIs(t, err, domain.ErrInvalidState)

		finalized := newTestTask(t)
		require.NoError(t, finalized.Approve(reviewer, worker))
		_, err = finalized.Finalize()
		require.NoError(t, err)
		_, err = finalized.Cancel(reviewer, createdAt, unlockPeriod)
		require.ErrorIs(t, err, domain.ErrInvalidState)
		require.False(t, finalized.Canceled)
	})
}

func TestTaskFinalize(t *testing.T) {
	t.Run("requires approval", func(t *testing.T) {
		task := newTestTask(t)
		_, err := task.Finalize()
		require.ErrorIs(t, err, domain.ErrInvalidState)
		require.False(t, task.Complete)
	})

	t.Run("returns totals once", func(t *testing.T) {
		task := newTestTask(t)
		require.NoError(t, task.Fund(funderX, assetA, 600))
		require.NoError(t, task.Fund(funderY, assetA, 400))
		require.NoError(t, task.Fund(funderY, assetB, 9))
		require.NoError(t, task.Approve(reviewer, worker))

		totals, err := task.Finalize()
		require.NoError(t, err)
		require.Equal(t, []domain.AssetAmount{
			{Asset: assetA, Amount: 1000},
			{Asset: assetB, Amount: 9},
		}, totals)
		require.Equal(t, domain.TaskStatusComplete, task.Status())

		_, err = task.Finalize()
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})
}

func TestTaskStatusFromString(t *testing.T) {
	for _, status := range []domain.TaskStatus{
		domain.TaskStatusOpen, domain.TaskStatusApproved,
		domain.TaskStatusCanceled, domain.TaskStatusComplete,
	} {
		parsed, err := domain.TaskStatusFromString(status.String())
		require.NoError(t, err)
		require.Equal(t, status, parsed)
	}

	_, err := domain.TaskStatusFromString("pending")
	require.Error(t, err)
}
