package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	"github.com/go-co-op/gocron"
)

type service struct {
	scheduler *gocron.Scheduler
	job       *gocron.Job
	mu        *sync.Mutex
}

func NewScheduler() ports.SchedulerService {
	svc := gocron.NewScheduler(time.UTC)
	return &service{svc, nil, &sync.Mutex{}}
}

func (s *service) Start() {
	s.scheduler.StartAsync()
}

func (s *service) Stop() {
	s.scheduler.Stop()
}

// ScheduleEvery runs fn every interval, starting one interval from now.
// Scheduling again replaces the previous job. Runs never overlap.
func (s *service) ScheduleEvery(interval time.Duration, fn func()) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job != nil {
		s.scheduler.RemoveByReference(s.job)
		s.job = nil
	}

	job, err := s.scheduler.Every(interval).SingletonMode().WaitForSchedule().Do(fn)
	if err != nil {
		return err
	}
	s.job = job
	return nil
}

func (s *service) WhenNextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.job == nil {
		return time.Time{}
	}
	return s.job.NextRun()
}
