package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite/sqlc/queries"
	log "github.com/sirupsen/logrus"
)

// BackfillTrackedBalances rebuilds the tracked balance of every asset from
// the withdrawable balances and the funding of open tasks, which together are
// everything the ledger owes. Summing happens here because amounts are stored
// as text.
func BackfillTrackedBalances(ctx context.Context, db *sql.DB) error {
	txBody := func(querierWithTx *queries.Queries) error {
		totals := make(map[string]uint64)

		owed, err := querierWithTx.ListBalanceAmounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list withdrawable balances: %w", err)
		}
		for _, row := range owed {
			if err := sqldb.AddToTotal(totals, row.Asset, row.Amount); err != nil {
				return err
			}
		}

		funded, err := querierWithTx.ListOpenTaskFundingAmounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to list open task funding: %w", err)
		}
		for _, row := range funded {
			if err := sqldb.AddToTotal(totals, row.Asset, row.Amount); err != nil {
				return err
			}
		}

		for asset, amount := range totals {
			if err := querierWithTx.UpsertTrackedBalance(ctx, queries.UpsertTrackedBalanceParams{
				Asset:  asset,
				Amount: sqldb.FormatAmount(amount),
			}); err != nil {
				return err
			}
		}

		if len(totals) > 0 {
			log.Infof("backfilled tracked balance of %d assets", len(totals))
		}
		return nil
	}

	return execTx(ctx, db, txBody)
}
