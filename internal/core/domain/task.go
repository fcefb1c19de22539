package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type TaskStatus int

const (
	TaskStatusOpen TaskStatus = iota
	TaskStatusApproved
	TaskStatusCanceled
	TaskStatusComplete
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusOpen:
		return "open"
	case TaskStatusApproved:
		return "approved"
	case TaskStatusCanceled:
		return "canceled"
	case TaskStatusComplete:
		return "complete"
	default:
		return "unknown"
	}
}

func TaskStatusFromString(s string) (TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "open":
		return TaskStatusOpen, nil
	case "approved":
		return TaskStatusApproved, nil
	case "canceled", "cancelled":
		return TaskStatusCanceled, nil
	case "complete", "completed":
		return TaskStatusComplete, nil
	default:
		return TaskStatusOpen, fmt.Errorf(
			"invalid status: %s. Must be one of: open, approved, canceled, complete", s,
		)
	}
}

type FundingKey struct {
	Funder Address
	Asset  Asset
}

type FundingEntry struct {
	Funder Address
	Asset  Asset
	Amount uint64
}

type Task struct {
	Index              uint64
	Url                string
	Reviewer           Address
	ReviewerPercentage uint8
	ApprovedWorker     Address
	FundingTypes       OrderedSet[Asset]
	Funders            OrderedSet[Address]
	Funding            map[FundingKey]uint64
	CreatedAt          time.Time

	Approved bool
	Canceled bool
	Complete bool
}

func NewTask(
	index uint64, url string, reviewer Address, reviewerPercentage uint8, createdAt time.Time,
) (*Task, error) {
	if reviewer.IsNull() {
		return nil, fmt.Errorf("%w: reviewer must not be the null address", ErrInvalidArgument)
	}
	if reviewerPercentage > PercentageScale {
		return nil, fmt.Errorf(
			"%w: reviewer percentage %d exceeds %d",
			ErrInvalidArgument, reviewerPercentage, PercentageScale,
		)
	}
	return &Task{
		Index:              index,
		Url:                url,
		Reviewer:           reviewer,
		ReviewerPercentage: reviewerPercentage,
		ApprovedWorker:     NullAddress,
		Funding:            make(map[FundingKey]uint64),
		CreatedAt:          createdAt,
	}, nil
}

func (t *Task) Status() TaskStatus {
	switch {
	case t.Complete:
		return TaskStatusComplete
	case t.Canceled:
		return TaskStatusCanceled
	case t.Approved:
		return TaskStatusApproved
	default:
		return TaskStatusOpen
	}
}

func (t *Task) IsTerminal() bool {
	return t.Canceled || t.Complete
}

func (t *Task) FundingOf(funder Address, asset Asset) uint64 {
	return t.Funding[FundingKey{funder, asset}]
}

func (t *Task) FundingTotal(asset Asset) uint64 {
	var total uint64
	for _, funder := range t.Funders.items {
		total += t.Funding[FundingKey{funder, asset}]
	}
	return total
}

// FundingTotals returns the total deposited per asset, in the order assets
// were first used.
func (t *Task) FundingTotals() []AssetAmount {
	totals := make([]AssetAmount, 0, t.FundingTypes.Len())
	for _, asset := range t.FundingTypes.items {
		totals = append(totals, AssetAmount{asset, t.FundingTotal(asset)})
	}
	return totals
}

// FundingEntries returns every non-zero (funder, asset) deposit ordered by
// funder then asset registration order.
func (t *Task) FundingEntries() []FundingEntry {
	entries := make([]FundingEntry, 0, len(t.Funding))
	for _, funder := range t.Funders.items {
		for _, asset := range t.FundingTypes.items {
			amount := t.Funding[FundingKey{funder, asset}]
			if amount == 0 {
				continue
			}
			entries = append(entries, FundingEntry{funder, asset, amount})
		}
	}
	return entries
}

func (t *Task) Fund(funder Address, asset Asset, amount uint64) error {
	if t.IsTerminal() {
		return fmt.Errorf("%w: task %d is %s", ErrInvalidState, t.Index, t.Status())
	}
	if amount == 0 {
		return fmt.Errorf("%w: funding amount must be greater than zero", ErrInvalidArgument)
	}
	if _, err := AddAmount(t.FundingTotal(asset), amount); err != nil {
		return err
	}

	if t.Funding == nil {
		t.Funding = make(map[FundingKey]uint64)
	}
	t.FundingTypes.Add(asset)
	t.Funders.Add(funder)
	t.Funding[FundingKey{funder, asset}] += amount
	return nil
}

func (t *Task) Approve(caller, worker Address) error {
	if err := t.checkWorkerChange(caller, worker); err != nil {
		return err
	}
	t.ApprovedWorker = worker
	t.Approved = true
	return nil
}

func (t *Task) SetApprovedWorker(caller, worker Address) error {
	if err := t.checkWorkerChange(caller, worker); err != nil {
		return err
	}
	t.ApprovedWorker = worker
	return nil
}

func (t *Task) checkWorkerChange(caller, worker Address) error {
	if caller != t.Reviewer {
		return fmt.Errorf("%w: only the reviewer of task %d can select the worker", ErrUnauthorized, t.Index)
	}
	if t.IsTerminal() {
		return fmt.Errorf("%w: task %d is %s", ErrInvalidState, t.Index, t.Status())
	}
	if worker.IsNull() {
		return fmt.Errorf("%w: worker must not be the null address", ErrInvalidArgument)
	}
	return nil
}

// CanBeForceCanceled reports whether the unlock period elapsed, allowing
// anyone to cancel the task.
func (t *Task) CanBeForceCanceled(now time.Time, unlockPeriod time.Duration) bool {
	return now.After(t.CreatedAt.Add(unlockPeriod))
}

// Cancel marks the task as canceled and returns the refunds owed to each
// funder. Funding records are left untouched.
func (t *Task) Cancel(caller Address, now time.Time, unlockPeriod time.Duration) ([]FundingEntry, error) {
	if caller != t.Reviewer && !t.CanBeForceCanceled(now, unlockPeriod) {
		return nil, fmt.Errorf(
			"%w: only the reviewer can cancel task %d before %s",
			ErrUnauthorized, t.Index, t.CreatedAt.Add(unlockPeriod).UTC().Format(time.RFC3339),
		)
	}
	if t.IsTerminal() {
		return nil, fmt.Errorf("%w: task %d is already %s", ErrInvalidState, t.Index, t.Status())
	}

	t.Canceled = true
	return t.FundingEntries(), nil
}

// Finalize marks the task as complete and returns the funded total of every
// asset, ready to be split.
func (t *Task) Finalize() ([]AssetAmount, error) {
	if t.Canceled {
		return nil, fmt.Errorf("%w: task %d is canceled", ErrInvalidState, t.Index)
	}
	if t.Complete {
		return nil, fmt.Errorf("%w: task %d is already complete", ErrInvalidState, t.Index)
	}
	if !t.Approved {
		return nil, fmt.Errorf("%w: task %d is not approved", ErrInvalidState, t.Index)
	}

	t.Complete = true
	return t.FundingTotals(), nil
}

type TaskRepository interface {
	Add(ctx context.Context, task Task) error
	Update(ctx context.Context, task Task) error
	// Get returns ErrNotFound if no task with the given index exists.
	Get(ctx context.Context, index uint64) (*Task, error)
	GetAll(ctx context.Context, offset, limit int) ([]Task, error)
	// GetOpen returns tasks that are neither canceled nor complete.
	GetOpen(ctx context.Context) ([]Task, error)
	Count(ctx context.Context) (uint64, error)
}
