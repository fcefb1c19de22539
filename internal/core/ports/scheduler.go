package ports

import "time"

type SchedulerService interface {
	Start()
	Stop()
	ScheduleEvery(interval time.Duration, fn func()) error
	WhenNextRun() time.Time
}
