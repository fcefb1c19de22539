package pgdb

import (
	"context"
	"database/sql"

	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqldb"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/postgres/sqlc/queries"
)

// execTx runs txBody against the transaction carried by ctx, opening one if
// ctx has none.
func execTx(ctx context.Context, db *sql.DB, txBody func(*queries.Queries) error) error {
	return sqldb.RunTx(ctx, db, func(ctx context.Context) error {
		tx, _ := sqldb.TxFromContext(ctx)
		return txBody(queries.New(tx))
	})
}

// querierFor binds querier to the transaction carried by ctx, if any, so
// reads inside a transaction see its uncommitted writes.
func querierFor(ctx context.Context, querier *queries.Queries) *queries.Queries {
	if tx, ok := sqldb.TxFromContext(ctx); ok {
		return querier.WithTx(tx)
	}
	return querier
}
