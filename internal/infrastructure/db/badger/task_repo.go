package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type taskRepository struct {
	store *badgerhold.Store
}

func NewTaskRepository(store *badgerhold.Store) (domain.TaskRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open task repository: store is nil")
	}
	return &taskRepository{store}, nil
}

func (r *taskRepository) Add(ctx context.Context, task domain.Task) error {
	data := toTaskData(task)
	if err := insert(ctx, r.store, data.Index, data); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return fmt.Errorf("task %d already exists", task.Index)
		}
		return err
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task domain.Task) error {
	data := toTaskData(task)
	if err := update(ctx, r.store, data.Index, data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return fmt.Errorf("%w: task %d", domain.ErrNotFound, task.Index)
		}
		return err
	}
	return nil
}

func (r *taskRepository) Get(ctx context.Context, index uint64) (*domain.Task, error) {
	var data taskData
	if err := get(ctx, r.store, index, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, index)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return data.toTask(), nil
}

func (r *taskRepository) GetAll(ctx context.Context, offset, limit int) ([]domain.Task, error) {
	query := (&badgerhold.Query{}).SortBy("Index").Skip(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var dataList []taskData
	if err := find(ctx, r.store, &dataList, query); err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return toTasks(dataList), nil
}

func (r *taskRepository) GetOpen(ctx context.Context) ([]domain.Task, error) {
	query := badgerhold.Where("Canceled").Eq(false).And("Complete").Eq(false).SortBy("Index")

	var dataList []taskData
	if err := find(ctx, r.store, &dataList, query); err != nil {
		return nil, fmt.Errorf("failed to get open tasks: %w", err)
	}
	return toTasks(dataList), nil
}

func (r *taskRepository) Count(ctx context.Context) (uint64, error) {
	return count(ctx, r.store, &taskData{}, nil)
}

type fundingData struct {
	Funder string
	Asset  string
	Amount uint64
}

type taskData struct {
	Index              uint64
	Url                string
	Reviewer           string
	ReviewerPercentage uint8
	ApprovedWorker     string
	FundingTypes       []string
	Funders            []string
	Funding            []fundingData
	CreatedAt          int64
	Approved           bool
	Canceled           bool
	Complete           bool
}

func toTaskData(task domain.Task) taskData {
	fundingTypes := make([]string, 0, task.FundingTypes.Len())
	for _, asset := range task.FundingTypes.Items() {
		fundingTypes = append(fundingTypes, asset.String())
	}
	funders := make([]string, 0, task.Funders.Len())
	for _, funder := range task.Funders.Items() {
		funders = append(funders, funder.String())
	}
	entries := task.FundingEntries()
	funding := make([]fundingData, 0, len(entries))
	for _, entry := range entries {
		funding = append(funding, fundingData{
			Funder: entry.Funder.String(),
			Asset:  entry.Asset.String(),
			Amount: entry.Amount,
		})
	}

	return taskData{
		Index:              task.Index,
		Url:                task.Url,
		Reviewer:           task.Reviewer.String(),
		ReviewerPercentage: task.ReviewerPercentage,
		ApprovedWorker:     task.ApprovedWorker.String(),
		FundingTypes:       fundingTypes,
		Funders:            funders,
		Funding:            funding,
		CreatedAt:          task.CreatedAt.UnixNano(),
		Approved:           task.Approved,
		Canceled:           task.Canceled,
		Complete:           task.Complete,
	}
}

func (d taskData) toTask() *domain.Task {
	fundingTypes := make([]domain.Asset, 0, len(d.FundingTypes))
	for _, asset := range d.FundingTypes {
		fundingTypes = append(fundingTypes, domain.Asset(asset))
	}
	funders := make([]domain.Address, 0, len(d.Funders))
	for _, funder := range d.Funders {
		funders = append(funders, domain.Address(funder))
	}
	funding := make(map[domain.FundingKey]uint64, len(d.Funding))
	for _, f := range d.Funding {
		key := domain.FundingKey{Funder: domain.Address(f.Funder), Asset: domain.Asset(f.Asset)}
		funding[key] = f.Amount
	}

	return &domain.Task{
		Index:              d.Index,
		Url:                d.Url,
		Reviewer:           domain.Address(d.Reviewer),
		ReviewerPercentage: d.ReviewerPercentage,
		ApprovedWorker:     domain.Address(d.ApprovedWorker),
		FundingTypes:       domain.NewOrderedSet(fundingTypes...),
		Funders:            domain.NewOrderedSet(funders...),
		Funding:            funding,
		CreatedAt:          time.Unix(0, d.CreatedAt).UTC(),
		Approved:           d.Approved,
		Canceled:           d.Canceled,
		Complete:           d.Complete,
	}
}

func toTasks(dataList []taskData) []domain.Task {
	tasks := make([]domain.Task, 0, len(dataList))
	for _, data := range dataList {
		tasks = append(tasks, *data.toTask())
	}
	return tasks
}
