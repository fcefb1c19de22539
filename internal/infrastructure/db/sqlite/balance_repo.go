package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite/sqlc/queries"
)

type balanceRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewBalanceRepository(db *sql.DB) (domain.BalanceRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open balance repository: db is nil")
	}
	return &balanceRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *balanceRepository) GetWithdrawable(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset,
) (uint64, error) {
	return getWithdrawable(ctx, querierFor(ctx, r.querier), beneficiary, asset)
}

func (r *balanceRepository) Credit(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset, amount uint64,
) error {
	return r.applyBalance(ctx, beneficiary, asset, func(balance uint64) (uint64, error) {
		return domain.AddAmount(balance, amount)
	})
}

func (r *balanceRepository) Debit(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset, amount uint64,
) error {
	return r.applyBalance(ctx, beneficiary, asset, func(balance uint64) (uint64, error) {
		return domain.SubAmount(balance, amount)
	})
}

func (r *balanceRepository) GetTracked(ctx context.Context, asset domain.Asset) (uint64, error) {
	return getTracked(ctx, querierFor(ctx, r.querier), asset)
}

func (r *balanceRepository) Track(ctx context.Context, asset domain.Asset, amount uint64) error {
	return r.applyTracked(ctx, asset, func(tracked uint64) (uint64, error) {
		return domain.AddAmount(tracked, amount)
	})
}

func (r *balanceRepository) Untrack(ctx context.Context, asset domain.Asset, amount uint64) error {
	return r.applyTracked(ctx, asset, func(tracked uint64) (uint64, error) {
		return domain.SubAmount(tracked, amount)
	})
}

func (r *balanceRepository) applyBalance(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset,
	fn func(balance uint64) (uint64, error),
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		balance, err := getWithdrawable(ctx, querierWithTx, beneficiary, asset)
		if err != nil {
			return err
		}
		if balance, err = fn(balance); err != nil {
			return err
		}
		return querierWithTx.UpsertBalance(ctx, queries.UpsertBalanceParams{
			Beneficiary: beneficiary.String(),
			Asset:       asset.String(),
			Amount:      sqldb.FormatAmount(balance),
		})
	}

	return execTx(ctx, r.db, txBody)
}

func (r *balanceRepository) applyTracked(
	ctx context.Context, asset domain.Asset, fn func(tracked uint64) (uint64, error),
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		tracked, err := getTracked(ctx, querierWithTx, asset)
		if err != nil {
			return err
		}
		if tracked, err = fn(tracked); err != nil {
			return err
		}
		return querierWithTx.UpsertTrackedBalance(ctx, queries.UpsertTrackedBalanceParams{
			Asset:  asset.String(),
			Amount: sqldb.FormatAmount(tracked),
		})
	}

	return execTx(ctx, r.db, txBody)
}

func getWithdrawable(
	ctx context.Context, querier *queries.Queries, beneficiary domain.Address, asset domain.Asset,
) (uint64, error) {
	amount, err := querier.GetBalance(ctx, queries.GetBalanceParams{
		Beneficiary: beneficiary.String(),
		Asset:       asset.String(),
	})
	return parseBalance(amount, err)
}

func getTracked(ctx context.Context, querier *queries.Queries, asset domain.Asset) (uint64, error) {
	amount, err := querier.GetTrackedBalance(ctx, asset.String())
	return parseBalance(amount, err)
}

// A missing row is a zero balance.
func parseBalance(amount string, err error) (uint64, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return sqldb.ParseAmount(amount)
}
