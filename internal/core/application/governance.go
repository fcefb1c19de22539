package application

import (
	"context"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

func (s *Service) AdjustTakeRate(
	ctx context.Context, caller domain.Address, takeRate uint32,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "adjust_take_rate", err) }()

	gov, err := s.updateGovernance(ctx, func(gov *domain.Governance) error {
		return gov.AdjustTakeRate(caller, takeRate)
	})
	if err != nil {
		return err
	}

	log.Infof("take rate adjusted to %d", gov.TakeRate)
	s.publishGovernance(EventTypeTakeRateAdjusted, caller, gov)
	return nil
}

// PermanentlyLowerMaxTakeRate lowers the take rate ceiling. The current take
// rate is clamped down to the new ceiling if it exceeds it.
func (s *Service) PermanentlyLowerMaxTakeRate(
	ctx context.Context, caller domain.Address, maxTakeRate uint32,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "lower_max_take_rate", err) }()

	var clamped bool
	gov, err := s.updateGovernance(ctx, func(gov *domain.Governance) error {
		var err error
		clamped, err = gov.LowerMaxTakeRate(caller, maxTakeRate)
		return err
	})
	if err != nil {
		return err
	}

	log.Infof("max take rate permanently lowered to %d", gov.MaxTakeRate)
	s.publishGovernance(EventTypeMaxTakeRateLowered, caller, gov)
	if clamped {
		log.Infof("take rate clamped to %d", gov.TakeRate)
		s.publishGovernance(EventTypeTakeRateAdjusted, caller, gov)
	}
	return nil
}

func (s *Service) AdjustUnlockPeriod(
	ctx context.Context, caller domain.Address, unlockPeriod time.Duration,
) (err error) {
	defer func() { s.metrics.recordOperation(ctx, "adjust_unlock_period", err) }()

	gov, err := s.updateGovernance(ctx, func(gov *domain.Governance) error {
		return gov.AdjustUnlockPeriod(caller, unlockPeriod)
	})
	if err != nil {
		return err
	}

	log.Infof("unlock period adjusted to %s", gov.UnlockPeriod)
	s.publishGovernance(EventTypeUnlockPeriodAdjusted, caller, gov)
	return nil
}

// WithdrawStuckTokens sends to the owner whatever is held in custody for asset
// beyond the tracked balance, and returns the amount sent. Funds owed to
// beneficiaries are never touched.
func (s *Service) WithdrawStuckTokens(
	ctx context.Context, caller domain.Address, asset domain.Asset,
) (swept uint64, err error) {
	defer func() { s.metrics.recordOperation(ctx, "withdraw_stuck_tokens", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	gov, err := s.repoManager.Governance().Get(ctx)
	if err != nil {
		return 0, err
	}
	if err := gov.Authorize(caller); err != nil {
		return 0, err
	}

	tracked, err := s.repoManager.Balances().GetTracked(ctx, asset)
	if err != nil {
		return 0, err
	}
	held, err := s.custody.Custodied(ctx, asset)
	if err != nil {
		return 0, transferFailed(err)
	}

	if held < tracked {
		log.WithFields(log.Fields{
			"asset":   asset,
			"tracked": tracked,
			"held":    held,
		}).Error("custody holds less than the tracked balance")
		return 0, nil
	}
	surplus := held - tracked
	if surplus == 0 {
		return 0, nil
	}

	if err := s.custody.PushOut(ctx, gov.Owner, asset, surplus); err != nil {
		return 0, transferFailed(err)
	}

	log.WithFields(log.Fields{"asset": asset, "amount": surplus}).Info("stuck tokens withdrawn")
	event := newEvent(EventTypeStuckTokensWithdrawn, caller, s.clock.Now())
	event.Transfer = &TransferEventData{Beneficiary: gov.Owner, Asset: asset, Amount: surplus}
	s.publish(event)
	return surplus, nil
}

func (s *Service) updateGovernance(
	ctx context.Context, fn func(gov *domain.Governance) error,
) (*domain.Governance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var gov *domain.Governance
	if err := s.repoManager.RunTx(ctx, func(ctx context.Context) error {
		var err error
		gov, err = s.repoManager.Governance().Get(ctx)
		if err != nil {
			return err
		}
		if err := fn(gov); err != nil {
			return err
		}
		return s.repoManager.Governance().Save(ctx, *gov)
	}); err != nil {
		return nil, err
	}
	return gov, nil
}

func (s *Service) publishGovernance(
	eventType EventType, caller domain.Address, gov *domain.Governance,
) {
	event := newEvent(eventType, caller, s.clock.Now())
	event.Governance = &GovernanceEventData{
		TakeRate:     gov.TakeRate,
		MaxTakeRate:  gov.MaxTakeRate,
		UnlockPeriod: gov.UnlockPeriod,
	}
	s.publish(event)
}
