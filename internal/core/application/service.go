package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Genesis holds the governance parameters applied the first time the ledger
// starts on an empty store.
type Genesis struct {
	Owner           domain.Address
	Vault           domain.Address
	InitialTakeRate uint32
	UnlockPeriod    time.Duration
}

type Service struct {
	BuildInfo BuildInfo

	repoManager  ports.RepoManager
	custody      ports.AssetTransfer
	schedulerSvc ports.SchedulerService
	clock        clockwork.Clock

	sweepInterval time.Duration

	events  *eventBroadcaster
	metrics *metrics

	// mu serializes every state-changing operation so that no operation
	// observes the ledger in the middle of another one.
	mu sync.Mutex
}

func NewService(
	buildInfo BuildInfo,
	genesis Genesis,
	repoManager ports.RepoManager,
	custody ports.AssetTransfer,
	schedulerSvc ports.SchedulerService,
	clock clockwork.Clock,
	sweepInterval time.Duration,
) (*Service, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	svc := &Service{
		BuildInfo:     buildInfo,
		repoManager:   repoManager,
		custody:       custody,
		schedulerSvc:  schedulerSvc,
		clock:         clock,
		sweepInterval: sweepInterval,
		events:        newEventBroadcaster(defaultSubscriberCapacity),
		metrics:       newMetrics(),
	}

	if err := svc.initGovernance(context.Background(), genesis); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *Service) initGovernance(ctx context.Context, genesis Genesis) error {
	gov, err := s.repoManager.Governance().Get(ctx)
	if err == nil {
		log.WithFields(log.Fields{
			"owner":         gov.Owner,
			"vault":         gov.Vault,
			"take_rate":     gov.TakeRate,
			"max_take_rate": gov.MaxTakeRate,
			"unlock_period": gov.UnlockPeriod,
		}).Debug("loaded governance from store")
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("failed to get governance: %w", err)
	}

	gov, err = domain.NewGovernance(
		genesis.Owner, genesis.Vault, genesis.InitialTakeRate, genesis.UnlockPeriod,
	)
	if err != nil {
		return fmt.Errorf("invalid genesis: %w", err)
	}
	if err := s.repoManager.Governance().Save(ctx, *gov); err != nil {
		return fmt.Errorf("failed to save genesis governance: %w", err)
	}

	log.WithFields(log.Fields{
		"owner":     gov.Owner,
		"vault":     gov.Vault,
		"take_rate": gov.TakeRate,
	}).Info("ledger initialized")
	return nil
}

// Start schedules the stale task sweeper if a sweep interval is configured.
func (s *Service) Start() error {
	if s.sweepInterval <= 0 {
		return nil
	}

	s.schedulerSvc.Start()
	if err := s.schedulerSvc.ScheduleEvery(s.sweepInterval, func() {
		if _, err := s.CancelStaleTasks(context.Background()); err != nil {
			log.WithError(err).Warn("failed to sweep stale tasks")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule stale task sweeper: %w", err)
	}

	log.Infof("stale task sweeper scheduled every %s", s.sweepInterval)
	return nil
}

func (s *Service) Stop() {
	if s.sweepInterval > 0 {
		s.schedulerSvc.Stop()
	}
	s.events.close()
	s.repoManager.Close()
}

func (s *Service) IsReady(ctx context.Context) bool {
	_, err := s.repoManager.Governance().Get(ctx)
	return err == nil
}

// SubscribeEvents returns a channel of ledger events and a function to
// release it. Events are only published for committed operations.
func (s *Service) SubscribeEvents() (<-chan Event, func()) {
	return s.events.subscribe()
}

func (s *Service) GetGovernance(ctx context.Context) (*domain.Governance, error) {
	return s.repoManager.Governance().Get(ctx)
}

func (s *Service) GetTask(ctx context.Context, index uint64) (*domain.Task, error) {
	return s.repoManager.Tasks().Get(ctx, index)
}

func (s *Service) ListTasks(ctx context.Context, offset, limit int) ([]domain.Task, error) {
	if offset < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: offset and limit must not be negative", domain.ErrInvalidArgument)
	}
	return s.repoManager.Tasks().GetAll(ctx, offset, limit)
}

func (s *Service) TaskCount(ctx context.Context) (uint64, error) {
	return s.repoManager.Tasks().Count(ctx)
}

// GetTaskFunding returns, for every asset the task was ever funded with, the
// total amount recorded in its funding ledger.
func (s *Service) GetTaskFunding(
	ctx context.Context, index uint64,
) ([]domain.Asset, []uint64, error) {
	task, err := s.repoManager.Tasks().Get(ctx, index)
	if err != nil {
		return nil, nil, err
	}

	totals := task.FundingTotals()
	assets := make([]domain.Asset, 0, len(totals))
	amounts := make([]uint64, 0, len(totals))
	for _, total := range totals {
		assets = append(assets, total.Asset)
		amounts = append(amounts, total.Amount)
	}
	return assets, amounts, nil
}

func (s *Service) GetWithdrawableBalance(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset,
) (uint64, error) {
	return s.repoManager.Balances().GetWithdrawable(ctx, beneficiary, asset)
}

func (s *Service) GetTrackedBalance(ctx context.Context, asset domain.Asset) (uint64, error) {
	return s.repoManager.Balances().GetTracked(ctx, asset)
}

func (s *Service) publish(event Event) {
	s.events.publish(event)
}

func transferFailed(err error) error {
	return fmt.Errorf("%w: %s", domain.ErrTransferFailed, err)
}
