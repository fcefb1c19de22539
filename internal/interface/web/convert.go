package web

import (
	"fmt"
	"strconv"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/interface/web/types"
)

func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", domain.ErrInvalidArgument, s)
	}
	return amount, nil
}

func parseIndex(s string) (uint64, error) {
	index, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid task index %q", domain.ErrInvalidArgument, s)
	}
	return index, nil
}

func formatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}

func toTask(task domain.Task) types.Task {
	entries := task.FundingEntries()
	funding := make([]types.Funding, 0, len(entries))
	for _, entry := range entries {
		funding = append(funding, types.Funding{
			Funder: entry.Funder.String(),
			Asset:  entry.Asset.String(),
			Amount: formatAmount(entry.Amount),
		})
	}

	totals := make([]types.AssetAmount, 0, task.FundingTypes.Len())
	for _, total := range task.FundingTotals() {
		totals = append(totals, types.AssetAmount{
			Asset:  total.Asset.String(),
			Amount: formatAmount(total.Amount),
		})
	}

	return types.Task{
		Index:              task.Index,
		Url:                task.Url,
		Reviewer:           task.Reviewer.String(),
		ReviewerPercentage: task.ReviewerPercentage,
		ApprovedWorker:     task.ApprovedWorker.String(),
		Status:             task.Status().String(),
		Approved:           task.Approved,
		Canceled:           task.Canceled,
		Complete:           task.Complete,
		CreatedAt:          task.CreatedAt.Unix(),
		Funding:            funding,
		Totals:             totals,
	}
}

func toGovernance(gov domain.Governance) types.Governance {
	return types.Governance{
		Owner:        gov.Owner.String(),
		Vault:        gov.Vault.String(),
		TakeRate:     gov.TakeRate,
		MaxTakeRate:  gov.MaxTakeRate,
		UnlockPeriod: gov.UnlockPeriod.String(),
	}
}

func toEvent(event application.Event) types.Event {
	out := types.Event{
		Id:        event.ID,
		Type:      event.Type.String(),
		Timestamp: event.Timestamp.Unix(),
		Caller:    event.Caller.String(),
	}
	if t := event.Task; t != nil {
		out.Task = &types.TaskEvent{
			Index:    t.Index,
			Url:      t.Url,
			Reviewer: t.Reviewer.String(),
			Worker:   t.Worker.String(),
			Asset:    t.Asset.String(),
		}
		if t.Amount > 0 {
			out.Task.Amount = formatAmount(t.Amount)
		}
	}
	if t := event.Transfer; t != nil {
		out.Transfer = &types.Balance{
			Beneficiary: t.Beneficiary.String(),
			Asset:       t.Asset.String(),
			Amount:      formatAmount(t.Amount),
		}
	}
	if g := event.Governance; g != nil {
		out.Governance = &types.GovernanceEvent{
			TakeRate:     g.TakeRate,
			MaxTakeRate:  g.MaxTakeRate,
			UnlockPeriod: g.UnlockPeriod.String(),
		}
	}
	return out
}
