package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/ccoveille/go-safecast"
)

type taskRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewTaskRepository(db *sql.DB) (domain.TaskRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open task repository: db is nil")
	}
	return &taskRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *taskRepository) Add(ctx context.Context, task domain.Task) error {
	row, err := sqldb.NewTaskRow(task)
	if err != nil {
		return err
	}

	txBody := func(querierWithTx *queries.Queries) error {
		if err := querierWithTx.InsertTask(ctx, queries.InsertTaskParams{
			Idx:                row.Idx,
			Url:                row.Url,
			Reviewer:           row.Reviewer,
			ReviewerPercentage: row.ReviewerPercentage,
			ApprovedWorker:     row.ApprovedWorker,
			CreatedAt:          row.CreatedAt,
			Approved:           row.Approved,
			Canceled:           row.Canceled,
			Complete:           row.Complete,
		}); err != nil {
			return fmt.Errorf("failed to insert task %d: %w", task.Index, err)
		}
		return insertFunding(ctx, querierWithTx, row.Idx, task)
	}

	return execTx(ctx, r.db, txBody)
}

func (r *taskRepository) Update(ctx context.Context, task domain.Task) error {
	row, err := sqldb.NewTaskRow(task)
	if err != nil {
		return err
	}

	txBody := func(querierWithTx *queries.Queries) error {
		updated, err := querierWithTx.UpdateTask(ctx, queries.UpdateTaskParams{
			Url:                row.Url,
			Reviewer:           row.Reviewer,
			ReviewerPercentage: row.ReviewerPercentage,
			ApprovedWorker:     row.ApprovedWorker,
			Approved:           row.Approved,
			Canceled:           row.Canceled,
			Complete:           row.Complete,
			Idx:                row.Idx,
		})
		if err != nil {
			return fmt.Errorf("failed to update task %d: %w", task.Index, err)
		}
		if updated == 0 {
			return fmt.Errorf("%w: task %d", domain.ErrNotFound, task.Index)
		}

		if err := querierWithTx.DeleteTaskFundingTypes(ctx, row.Idx); err != nil {
			return fmt.Errorf("failed to clear funding types of task %d: %w", task.Index, err)
		}
		if err := querierWithTx.DeleteTaskFunders(ctx, row.Idx); err != nil {
			return fmt.Errorf("failed to clear funders of task %d: %w", task.Index, err)
		}
		if err := querierWithTx.DeleteTaskFunding(ctx, row.Idx); err != nil {
			return fmt.Errorf("failed to clear funding of task %d: %w", task.Index, err)
		}
		return insertFunding(ctx, querierWithTx, row.Idx, task)
	}

	return execTx(ctx, r.db, txBody)
}

func (r *taskRepository) Get(ctx context.Context, index uint64) (*domain.Task, error) {
	idx, err := sqldb.TaskIndex(index)
	if err != nil {
		return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, index)
	}

	querier := querierFor(ctx, r.querier)
	row, err := querier.GetTask(ctx, idx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %d", domain.ErrNotFound, index)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return loadTask(ctx, querier, row)
}

func (r *taskRepository) GetAll(ctx context.Context, offset, limit int) ([]domain.Task, error) {
	params := queries.ListTasksParams{Limit: -1}
	if limit > 0 {
		params.Limit = int64(limit)
	}
	if offset > 0 {
		params.Offset = int64(offset)
	}

	querier := querierFor(ctx, r.querier)
	rows, err := querier.ListTasks(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return loadTasks(ctx, querier, rows)
}

func (r *taskRepository) GetOpen(ctx context.Context) ([]domain.Task, error) {
	querier := querierFor(ctx, r.querier)
	rows, err := querier.ListOpenTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open tasks: %w", err)
	}
	return loadTasks(ctx, querier, rows)
}

func (r *taskRepository) Count(ctx context.Context) (uint64, error) {
	count, err := querierFor(ctx, r.querier).CountTasks(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return safecast.ToUint64(count)
}

func insertFunding(
	ctx context.Context, querierWithTx *queries.Queries, idx int64, task domain.Task,
) error {
	for position, asset := range task.FundingTypes.Items() {
		if err := querierWithTx.InsertTaskFundingType(ctx, queries.InsertTaskFundingTypeParams{
			TaskIdx:  idx,
			Position: int64(position),
			Asset:    asset.String(),
		}); err != nil {
			return fmt.Errorf("failed to insert funding type: %w", err)
		}
	}
	for position, funder := range task.Funders.Items() {
		if err := querierWithTx.InsertTaskFunder(ctx, queries.InsertTaskFunderParams{
			TaskIdx:  idx,
			Position: int64(position),
			Funder:   funder.String(),
		}); err != nil {
			return fmt.Errorf("failed to insert funder: %w", err)
		}
	}
	for _, funding := range sqldb.FundingRows(task) {
		if err := querierWithTx.InsertTaskFunding(ctx, queries.InsertTaskFundingParams{
			TaskIdx: idx,
			Funder:  funding.Funder,
			Asset:   funding.Asset,
			Amount:  funding.Amount,
		}); err != nil {
			return fmt.Errorf("failed to insert funding entry: %w", err)
		}
	}
	return nil
}

func loadTasks(
	ctx context.Context, querier *queries.Queries, rows []queries.Task,
) ([]domain.Task, error) {
	tasks := make([]domain.Task, 0, len(rows))
	for _, row := range rows {
		task, err := loadTask(ctx, querier, row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func loadTask(
	ctx context.Context, querier *queries.Queries, row queries.Task,
) (*domain.Task, error) {
	task, err := sqldb.TaskRow{
		Idx:                row.Idx,
		Url:                row.Url,
		Reviewer:           row.Reviewer,
		ReviewerPercentage: row.ReviewerPercentage,
		ApprovedWorker:     row.ApprovedWorker,
		CreatedAt:          row.CreatedAt,
		Approved:           row.Approved,
		Canceled:           row.Canceled,
		Complete:           row.Complete,
	}.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("invalid stored task %d: %w", row.Idx, err)
	}

	fundingTypes, err := querier.ListTaskFundingTypes(ctx, row.Idx)
	if err != nil {
		return nil, fmt.Errorf("failed to load funding types: %w", err)
	}
	funders, err := querier.ListTaskFunders(ctx, row.Idx)
	if err != nil {
		return nil, fmt.Errorf("failed to load funders: %w", err)
	}
	fundingRows, err := querier.ListTaskFunding(ctx, row.Idx)
	if err != nil {
		return nil, fmt.Errorf("failed to load funding: %w", err)
	}

	funding := make([]sqldb.FundingRow, 0, len(fundingRows))
	for _, f := range fundingRows {
		funding = append(funding, sqldb.FundingRow{Funder: f.Funder, Asset: f.Asset, Amount: f.Amount})
	}
	if err := sqldb.RestoreFunding(task, fundingTypes, funders, funding); err != nil {
		return nil, err
	}
	return task, nil
}
