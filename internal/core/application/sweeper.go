package application

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// CancelStaleTasks force-cancels every open task older than the unlock period
// on behalf of the owner, refunding its funders. Approved tasks are left to
// their reviewer's finalize call. It returns the number of canceled tasks.
func (s *Service) CancelStaleTasks(ctx context.Context) (int, error) {
	gov, err := s.repoManager.Governance().Get(ctx)
	if err != nil {
		return 0, err
	}
	tasks, err := s.repoManager.Tasks().GetOpen(ctx)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	canceled := 0
	for _, task := range tasks {
		if task.Approved {
			log.Debugf("skipping approved stale task %d", task.Index)
			continue
		}
		if !task.CanBeForceCanceled(now, gov.UnlockPeriod) {
			continue
		}
		if err := s.CancelTask(ctx, gov.Owner, task.Index); err != nil {
			log.WithError(err).Warnf("failed to cancel stale task %d", task.Index)
			continue
		}
		canceled++
	}

	if canceled > 0 {
		log.Infof("canceled %d stale tasks", canceled)
	}
	return canceled, nil
}
