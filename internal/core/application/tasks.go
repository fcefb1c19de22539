package application

import (
	"context"
	"fmt"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

func (s *Service) CreateTask(
	ctx context.Context, caller domain.Address, url string,
	reviewer domain.Address, reviewerPercentage uint8,
) (index uint64, err error) {
	defer func() { s.metrics.recordOperation(ctx, "create_task", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var task *domain.Task
	if err := s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.newTask(ctx, url, reviewer, reviewerPercentage)
		if err != nil {
			return err
		}
		return s.repoManager.Tasks().Add(ctx, *task)
	}); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"task":     task.Index,
		"reviewer": task.Reviewer,
	}).Info("task created")
	s.publishTaskCreated(caller, task)
	return task.Index, nil
}

// CreateAndFundTask creates a task and funds it with a single asset in one
// atomic step.
func (s *Service) CreateAndFundTask(
	ctx context.Context, caller domain.Address, url string,
	reviewer domain.Address, reviewerPercentage uint8,
	amount uint64, asset domain.Asset, attachedValue uint64,
) (index uint64, err error) {
	defer func() { s.metrics.recordOperation(ctx, "create_and_fund_task", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		task   *domain.Task
		pulled bool
	)
	err = s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = s.newTask(ctx, url, reviewer, reviewerPercentage)
		if err != nil {
			return err
		}
		pulled, err = s.fundInTx(
			ctx, task, caller, amount, asset, attachedValue, s.repoManager.Tasks().Add,
		)
		return err
	})
	if err != nil {
		if pulled {
			s.returnPulledFunds(ctx, caller, asset, amount, err)
		}
		return 0, err
	}

	log.WithFields(log.Fields{
		"task":   task.Index,
		"funder": caller,
		"asset":  asset,
		"amount": amount,
	}).Info("task created and funded")
	s.publishTaskCreated(caller, task)
	s.publishTaskFunded(caller, task.Index, asset, amount)
	return task.Index, nil
}

func (s *Service) FundTask(
	ctx context.Context, caller domain.Address, index uint64,
	amount uint64, asset domain.Asset, attachedValue uint64,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "fund_task", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var pulled bool
	err = s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		task, err := s.repoManager.Tasks().Get(ctx, index)
		if err != nil {
			return err
		}
		pulled, err = s.fundInTx(
			ctx, task, caller, amount, asset, attachedValue, s.repoManager.Tasks().Update,
		)
		return err
	})
	if err != nil {
		if pulled {
			s.returnPulledFunds(ctx, caller, asset, amount, err)
		}
		return err
	}

	log.WithFields(log.Fields{
		"task":   index,
		"funder": caller,
		"asset":  asset,
		"amount": amount,
	}).Info("task funded")
	s.publishTaskFunded(caller, index, asset, amount)
	return nil
}

// SubmitWork records nothing, it only notifies observers that a worker
// submitted a result for the task.
func (s *Service) SubmitWork(
	ctx context.Context, caller domain.Address, index uint64, workUrl string,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "submit_work", err) }()

	if _, err := s.repoManager.Tasks().Get(ctx, index); err != nil {
		return err
	}

	event := newEvent(EventTypeWorkSubmitted, caller, s.clock.Now())
	event.Task = &TaskEventData{Index: index, Url: workUrl, Worker: caller}
	s.publish(event)
	return nil
}

func (s *Service) ApproveTask(
	ctx context.Context, caller domain.Address, index uint64, worker domain.Address,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "approve_task", err) }()

	if err := s.updateTask(ctx, index, func(task *domain.Task) error {
		return task.Approve(caller, worker)
	}); err != nil {
		return err
	}

	log.WithFields(log.Fields{"task": index, "worker": worker}).Info("task approved")
	event := newEvent(EventTypeTaskApproved, caller, s.clock.Now())
	event.Task = &TaskEventData{Index: index, Reviewer: caller, Worker: worker}
	s.publish(event)
	return nil
}

func (s *Service) SetApprovedWorker(
	ctx context.Context, caller domain.Address, index uint64, worker domain.Address,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "set_approved_worker", err) }()

	if err := s.updateTask(ctx, index, func(task *domain.Task) error {
		return task.SetApprovedWorker(caller, worker)
	}); err != nil {
		return err
	}

	log.WithFields(log.Fields{"task": index, "worker": worker}).Info("approved worker set")
	event := newEvent(EventTypeApprovedWorkerSet, caller, s.clock.Now())
	event.Task = &TaskEventData{Index: index, Reviewer: caller, Worker: worker}
	s.publish(event)
	return nil
}

// CancelTask moves every funder's contribution to their withdrawable balance.
// The reviewer may cancel at any time, anyone else only once the task is
// older than the unlock period.
func (s *Service) CancelTask(
	ctx context.Context, caller domain.Address, index uint64,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "cancel_task", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	var refunds []domain.FundingEntry
	if err := s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		gov, err := s.repoManager.Governance().Get(ctx)
		if err != nil {
			return err
		}
		task, err := s.repoManager.Tasks().Get(ctx, index)
		if err != nil {
			return err
		}
		refunds, err = task.Cancel(caller, s.clock.Now(), gov.UnlockPeriod)
		if err != nil {
			return err
		}
		if err := s.repoManager.Tasks().Update(ctx, *task); err != nil {
			return err
		}
		for _, refund := range refunds {
			if err := s.repoManager.Balances().Credit(
				ctx, refund.Funder, refund.Asset, refund.Amount,
			); err != nil {
				return fmt.Errorf("failed to refund %s: %w", refund.Funder, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, refund := range refunds {
		s.metrics.recordCredit(ctx, "refund", refund.Asset, refund.Amount)
	}
	log.WithFields(log.Fields{
		"task":    index,
		"caller":  caller,
		"refunds": len(refunds),
	}).Info("task canceled")

	event := newEvent(EventTypeTaskCanceled, caller, s.clock.Now())
	event.Task = &TaskEventData{Index: index}
	s.publish(event)
	return nil
}

// FinalizeTask splits every funded asset between vault, reviewer and the
// approved worker. Anyone may finalize an approved task.
func (s *Service) FinalizeTask(
	ctx context.Context, caller domain.Address, index uint64,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "finalize_task", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	type credit struct {
		reason      string
		beneficiary domain.Address
		asset       domain.Asset
		amount      uint64
	}
	var (
		task    *domain.Task
		credits []credit
	)
	if err := s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		gov, err := s.repoManager.Governance().Get(ctx)
		if err != nil {
			return err
		}
		task, err = s.repoManager.Tasks().Get(ctx, index)
		if err != nil {
			return err
		}
		totals, err := task.Finalize()
		if err != nil {
			return err
		}

		credits = make([]credit, 0, len(totals)*3)
		for _, total := range totals {
			payout, err := domain.SplitPayout(total.Amount, gov.TakeRate, task.ReviewerPercentage)
			if err != nil {
				return err
			}
			credits = append(credits,
				credit{"protocol", gov.Vault, total.Asset, payout.Protocol},
				credit{"reviewer", task.Reviewer, total.Asset, payout.Reviewer},
				credit{"worker", task.ApprovedWorker, total.Asset, payout.Worker},
			)
		}

		if err := s.repoManager.Tasks().Update(ctx, *task); err != nil {
			return err
		}
		for _, c := range credits {
			if c.amount == 0 {
				continue
			}
			if err := s.repoManager.Balances().Credit(ctx, c.beneficiary, c.asset, c.amount); err != nil {
				return fmt.Errorf("failed to credit %s payout: %w", c.reason, err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	for _, c := range credits {
		s.metrics.recordCredit(ctx, c.reason, c.asset, c.amount)
	}
	log.WithFields(log.Fields{
		"task":   index,
		"worker": task.ApprovedWorker,
	}).Info("task finalized")

	event := newEvent(EventTypeTaskFinalized, caller, s.clock.Now())
	event.Task = &TaskEventData{
		Index: index, Reviewer: task.Reviewer, Worker: task.ApprovedWorker,
	}
	s.publish(event)
	return nil
}

// Withdraw pays out part of the caller's withdrawable balance. The ledger is
// left untouched if the transfer out fails.
func (s *Service) Withdraw(
	ctx context.Context, caller domain.Address, amount uint64, asset domain.Asset,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "withdraw", err) }()

	if amount == 0 {
		return fmt.Errorf("%w: withdrawal amount must be positive", domain.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var pushed bool
	err = s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		if err := s.repoManager.Balances().Debit(ctx, caller, asset, amount); err != nil {
			return err
		}
		if err := s.repoManager.Balances().Untrack(ctx, asset, amount); err != nil {
			return fmt.Errorf("failed to untrack withdrawn amount: %w", err)
		}
		if err := s.custody.PushOut(ctx, caller, asset, amount); err != nil {
			return transferFailed(err)
		}
		pushed = true
		return nil
	})
	if err != nil {
		if pushed {
			log.WithError(err).WithFields(log.Fields{
				"beneficiary": caller,
				"asset":       asset,
				"amount":      amount,
			}).Error("failed to commit ledger after paying out withdrawal")
		}
		return err
	}

	s.metrics.recordWithdrawal(ctx, asset, amount)
	log.WithFields(log.Fields{
		"beneficiary": caller,
		"asset":       asset,
		"amount":      amount,
	}).Info("withdrawal paid out")

	event := newEvent(EventTypeWithdrawal, caller, s.clock.Now())
	event.Transfer = &TransferEventData{Beneficiary: caller, Asset: asset, Amount: amount}
	s.publish(event)
	return nil
}

func (s *Service) newTask(
	ctx context.Context, url string, reviewer domain.Address, reviewerPercentage uint8,
) (*domain.Task, error) {
	count, err := s.repoManager.Tasks().Count(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewTask(count, url, reviewer, reviewerPercentage, s.clock.Now())
}

// fundInTx pulls amount of asset from the funder and records it in the task
// funding ledger. It must run inside a transaction; the returned flag reports
// whether the assets reached custody, so that the caller can return them if
// the transaction does not commit.
func (s *Service) fundInTx(
	ctx context.Context, task *domain.Task, funder domain.Address,
	amount uint64, asset domain.Asset, attachedValue uint64,
	save func(context.Context, domain.Task) error,
) (bool, error) {
	if asset.IsNative() {
		if attachedValue != amount {
			return false, fmt.Errorf(
				"%w: attached value %d does not match amount %d",
				domain.ErrInvalidArgument, attachedValue, amount,
			)
		}
	} else if attachedValue != 0 {
		return false, fmt.Errorf(
			"%w: native value attached to %s funding", domain.ErrInvalidArgument, asset,
		)
	}

	if err := task.Fund(funder, asset, amount); err != nil {
		return false, err
	}

	tracked, err := s.repoManager.Balances().GetTracked(ctx, asset)
	if err != nil {
		return false, err
	}
	if _, err := domain.AddAmount(tracked, amount); err != nil {
		return false, err
	}

	if err := s.custody.PullIn(ctx, funder, asset, amount); err != nil {
		return false, transferFailed(err)
	}

	if err := save(ctx, *task); err != nil {
		return true, err
	}
	if err := s.repoManager.Balances().Track(ctx, asset, amount); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Service) returnPulledFunds(
	ctx context.Context, funder domain.Address, asset domain.Asset, amount uint64, cause error,
) {
	entry := log.WithError(cause).WithFields(log.Fields{
		"funder": funder,
		"asset":  asset,
		"amount": amount,
	})
	if err := s.custody.PushOut(ctx, funder, asset, amount); err != nil {
		entry.WithField("refund_error", err).Error("failed to return pulled funds after rollback")
		return
	}
	entry.Warn("funding rolled back, pulled funds returned")
}

func (s *Service) updateTask(
	ctx context.Context, index uint64, fn func(task *domain.Task) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		task, err := s.repoManager.Tasks().Get(ctx, index)
		if err != nil {
			return err
		}
		if err := fn(task); err != nil {
			return err
		}
		return s.repoManager.Tasks().Update(ctx, *task)
	})
}

func (s *Service) publishTaskCreated(caller domain.Address, task *domain.Task) {
	event := newEvent(EventTypeTaskCreated, caller, s.clock.Now())
	event.Task = &TaskEventData{
		Index:    task.Index,
		Url:      task.Url,
		Reviewer: task.Reviewer,
	}
	s.publish(event)
}

func (s *Service) publishTaskFunded(
	caller domain.Address, index uint64, asset domain.Asset, amount uint64,
) {
	event := newEvent(EventTypeTaskFunded, caller, s.clock.Now())
	event.Task = &TaskEventData{Index: index, Asset: asset, Amount: amount}
	s.publish(event)
}
