package application

import (
	"sync"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const defaultSubscriberCapacity = 100

type EventType int

const (
	EventTypeTaskCreated EventType = iota
	EventTypeTaskFunded
	EventTypeTaskCanceled
	EventTypeTaskApproved
	EventTypeTaskFinalized
	EventTypeWithdrawal
	EventTypeWorkSubmitted
	EventTypeApprovedWorkerSet
	EventTypeTakeRateAdjusted
	EventTypeMaxTakeRateLowered
	EventTypeUnlockPeriodAdjusted
	EventTypeStuckTokensWithdrawn
)

func (t EventType) String() string {
	switch t {
	case EventTypeTaskCreated:
		return "task_created"
	case EventTypeTaskFunded:
		return "task_funded"
	case EventTypeTaskCanceled:
		return "task_canceled"
	case EventTypeTaskApproved:
		return "task_approved"
	case EventTypeTaskFinalized:
		return "task_finalized"
	case EventTypeWithdrawal:
		return "withdrawal"
	case EventTypeWorkSubmitted:
		return "work_submitted"
	case EventTypeApprovedWorkerSet:
		return "approved_worker_set"
	case EventTypeTakeRateAdjusted:
		return "take_rate_adjusted"
	case EventTypeMaxTakeRateLowered:
		return "max_take_rate_lowered"
	case EventTypeUnlockPeriodAdjusted:
		return "unlock_period_adjusted"
	case EventTypeStuckTokensWithdrawn:
		return "stuck_tokens_withdrawn"
	default:
		return "unknown"
	}
}

type Event struct {
	ID         string
	Type       EventType
	Timestamp  time.Time
	Caller     domain.Address
	Task       *TaskEventData
	Transfer   *TransferEventData
	Governance *GovernanceEventData
}

type TaskEventData struct {
	Index    uint64
	Url      string
	Reviewer domain.Address
	Worker   domain.Address
	Asset    domain.Asset
	Amount   uint64
}

type TransferEventData struct {
	Beneficiary domain.Address
	Asset       domain.Asset
	Amount      uint64
}

type GovernanceEventData struct {
	TakeRate     uint32
	MaxTakeRate  uint32
	UnlockPeriod time.Duration
}

type subscriber struct {
	ch chan Event
}

// eventBroadcaster fans events out to every subscriber without blocking the
// publisher. A subscriber whose buffer is full misses the event.
type eventBroadcaster struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	capacity    int
	closed      bool
}

func newEventBroadcaster(capacity int) *eventBroadcaster {
	if capacity <= 0 {
		capacity = defaultSubscriberCapacity
	}
	return &eventBroadcaster{
		subscribers: make(map[*subscriber]struct{}),
		capacity:    capacity,
	}
}

func (b *eventBroadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, b.capacity)}
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	b.subscribers[sub] = struct{}{}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[sub]; ok {
				delete(b.subscribers, sub)
				close(sub.ch)
			}
		})
	}
	return sub.ch, unsubscribe
}

func (b *eventBroadcaster) publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub.ch <- event:
		default:
			log.WithFields(log.Fields{
				"event": event.Type.String(),
				"id":    event.ID,
			}).Warn("subscriber too slow, dropping event")
		}
	}
}

func (b *eventBroadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, sub)
	}
}

func newEvent(eventType EventType, caller domain.Address, timestamp time.Time) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: timestamp,
		Caller:    caller,
	}
}
