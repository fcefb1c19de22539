package sqldb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ccoveille/go-safecast"
)

// Amounts are unsigned 64-bit values, which neither backend stores natively,
// so they are kept as decimal text.
func FormatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func ParseAmount(s string) (uint64, error) {
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return amount, nil
}

// TaskRow is a task row as both engines store it, before the engine specific
// integer widths are applied.
type TaskRow struct {
	Idx                int64
	Url                string
	Reviewer           string
	ReviewerPercentage int64
	ApprovedWorker     string
	CreatedAt          int64
	Approved           bool
	Canceled           bool
	Complete           bool
}

type FundingRow struct {
	Funder string
	Asset  string
	Amount string
}

func TaskIndex(index uint64) (int64, error) {
	idx, err := safecast.ToInt64(index)
	if err != nil {
		return 0, fmt.Errorf("task index %d out of range: %w", index, err)
	}
	return idx, nil
}

func NewTaskRow(task domain.Task) (TaskRow, error) {
	idx, err := TaskIndex(task.Index)
	if err != nil {
		return TaskRow{}, err
	}
	return TaskRow{
		Idx:                idx,
		Url:                task.Url,
		Reviewer:           task.Reviewer.String(),
		ReviewerPercentage: int64(task.ReviewerPercentage),
		ApprovedWorker:     task.ApprovedWorker.String(),
		CreatedAt:          task.CreatedAt.UnixNano(),
		Approved:           task.Approved,
		Canceled:           task.Canceled,
		Complete:           task.Complete,
	}, nil
}

func (r TaskRow) ToDomain() (*domain.Task, error) {
	index, err := safecast.ToUint64(r.Idx)
	if err != nil {
		return nil, err
	}
	reviewerPercentage, err := safecast.ToUint8(r.ReviewerPercentage)
	if err != nil {
		return nil, err
	}

	return &domain.Task{
		Index:              index,
		Url:                r.Url,
		Reviewer:           domain.Address(r.Reviewer),
		ReviewerPercentage: reviewerPercentage,
		ApprovedWorker:     domain.Address(r.ApprovedWorker),
		Funding:            make(map[domain.FundingKey]uint64),
		CreatedAt:          time.Unix(0, r.CreatedAt).UTC(),
		Approved:           r.Approved,
		Canceled:           r.Canceled,
		Complete:           r.Complete,
	}, nil
}

// FundingRows flattens the funding map of task into one row per non-zero
// deposit.
func FundingRows(task domain.Task) []FundingRow {
	entries := task.FundingEntries()
	rows := make([]FundingRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, FundingRow{
			Funder: entry.Funder.String(),
			Asset:  entry.Asset.String(),
			Amount: FormatAmount(entry.Amount),
		})
	}
	return rows
}

// RestoreFunding fills the ordered sets and the funding map of task from
// their stored rows. Funding types and funders must be given in position
// order.
func RestoreFunding(
	task *domain.Task, fundingTypes, funders []string, funding []FundingRow,
) error {
	for _, asset := range fundingTypes {
		task.FundingTypes.Add(domain.Asset(asset))
	}
	for _, funder := range funders {
		task.Funders.Add(domain.Address(funder))
	}
	for _, row := range funding {
		amount, err := ParseAmount(row.Amount)
		if err != nil {
			return err
		}
		key := domain.FundingKey{Funder: domain.Address(row.Funder), Asset: domain.Asset(row.Asset)}
		task.Funding[key] = amount
	}
	return nil
}

// AddToTotal adds a stored amount to the running total of asset.
func AddToTotal(totals map[string]uint64, asset, amount string) error {
	value, err := ParseAmount(amount)
	if err != nil {
		return err
	}
	total, err := domain.AddAmount(totals[asset], value)
	if err != nil {
		return fmt.Errorf("tracked balance of %s overflows: %w", asset, err)
	}
	totals[asset] = total
	return nil
}
