package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const governanceKey = "governance"

type governanceRepository struct {
	store *badgerhold.Store
}

func NewGovernanceRepository(store *badgerhold.Store) (domain.GovernanceRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open governance repository: store is nil")
	}
	return &governanceRepository{store}, nil
}

func (r *governanceRepository) Get(ctx context.Context) (*domain.Governance, error) {
	var data governanceData
	if err := get(ctx, r.store, governanceKey, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, fmt.Errorf("%w: governance not initialized", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get governance: %w", err)
	}

	return &domain.Governance{
		Owner:        domain.Address(data.Owner),
		Vault:        domain.Address(data.Vault),
		TakeRate:     data.TakeRate,
		MaxTakeRate:  data.MaxTakeRate,
		UnlockPeriod: time.Duration(data.UnlockPeriod),
	}, nil
}

func (r *governanceRepository) Save(ctx context.Context, governance domain.Governance) error {
	data := governanceData{
		Owner:        governance.Owner.String(),
		Vault:        governance.Vault.String(),
		TakeRate:     governance.TakeRate,
		MaxTakeRate:  governance.MaxTakeRate,
		UnlockPeriod: int64(governance.UnlockPeriod),
	}
	return upsert(ctx, r.store, governanceKey, data)
}

type governanceData struct {
	Owner        string
	Vault        string
	TakeRate     uint32
	MaxTakeRate  uint32
	UnlockPeriod int64
}
