package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/ccoveille/go-safecast"
)

type governanceRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewGovernanceRepository(db *sql.DB) (domain.GovernanceRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open governance repository: db is nil")
	}
	return &governanceRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *governanceRepository) Get(ctx context.Context) (*domain.Governance, error) {
	row, err := querierFor(ctx, r.querier).GetGovernance(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: governance not initialized", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get governance: %w", err)
	}

	takeRate, err := safecast.ToUint32(row.TakeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid stored take rate: %w", err)
	}
	maxTakeRate, err := safecast.ToUint32(row.MaxTakeRate)
	if err != nil {
		return nil, fmt.Errorf("invalid stored max take rate: %w", err)
	}

	return &domain.Governance{
		Owner:        domain.Address(row.Owner),
		Vault:        domain.Address(row.Vault),
		TakeRate:     takeRate,
		MaxTakeRate:  maxTakeRate,
		UnlockPeriod: time.Duration(row.UnlockPeriod),
	}, nil
}

func (r *governanceRepository) Save(ctx context.Context, governance domain.Governance) error {
	return querierFor(ctx, r.querier).UpsertGovernance(ctx, queries.UpsertGovernanceParams{
		Owner:        governance.Owner.String(),
		Vault:        governance.Vault.String(),
		TakeRate:     int64(governance.TakeRate),
		MaxTakeRate:  int64(governance.MaxTakeRate),
		UnlockPeriod: int64(governance.UnlockPeriod),
	})
}
