package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type balanceRepository struct {
	store *badgerhold.Store
}

func NewBalanceRepository(store *badgerhold.Store) (domain.BalanceRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("cannot open balance repository: store is nil")
	}
	return &balanceRepository{store}, nil
}

func (r *balanceRepository) GetWithdrawable(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset,
) (uint64, error) {
	data, err := r.getBalance(ctx, beneficiary, asset)
	if err != nil {
		return 0, err
	}
	return data.Amount, nil
}

func (r *balanceRepository) Credit(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset, amount uint64,
) error {
	data, err := r.getBalance(ctx, beneficiary, asset)
	if err != nil {
		return err
	}
	if data.Amount, err = domain.AddAmount(data.Amount, amount); err != nil {
		return err
	}
	return upsert(ctx, r.store, data.key(), data)
}

func (r *balanceRepository) Debit(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset, amount uint64,
) error {
	data, err := r.getBalance(ctx, beneficiary, asset)
	if err != nil {
		return err
	}
	if data.Amount, err = domain.SubAmount(data.Amount, amount); err != nil {
		return err
	}
	return upsert(ctx, r.store, data.key(), data)
}

func (r *balanceRepository) GetTracked(ctx context.Context, asset domain.Asset) (uint64, error) {
	data, err := r.getTracked(ctx, asset)
	if err != nil {
		return 0, err
	}
	return data.Amount, nil
}

func (r *balanceRepository) Track(ctx context.Context, asset domain.Asset, amount uint64) error {
	data, err := r.getTracked(ctx, asset)
	if err != nil {
		return err
	}
	if data.Amount, err = domain.AddAmount(data.Amount, amount); err != nil {
		return err
	}
	return upsert(ctx, r.store, data.Asset, data)
}

func (r *balanceRepository) Untrack(ctx context.Context, asset domain.Asset, amount uint64) error {
	data, err := r.getTracked(ctx, asset)
	if err != nil {
		return err
	}
	if data.Amount, err = domain.SubAmount(data.Amount, amount); err != nil {
		return err
	}
	return upsert(ctx, r.store, data.Asset, data)
}

func (r *balanceRepository) getBalance(
	ctx context.Context, beneficiary domain.Address, asset domain.Asset,
) (balanceData, error) {
	data := balanceData{Beneficiary: beneficiary.String(), Asset: asset.String()}
	if err := get(ctx, r.store, data.key(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return data, nil
		}
		return data, fmt.Errorf("failed to get balance: %w", err)
	}
	return data, nil
}

func (r *balanceRepository) getTracked(ctx context.Context, asset domain.Asset) (trackedData, error) {
	data := trackedData{Asset: asset.String()}
	if err := get(ctx, r.store, data.Asset, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return data, nil
		}
		return data, fmt.Errorf("failed to get tracked balance: %w", err)
	}
	return data, nil
}

type balanceData struct {
	Beneficiary string
	Asset       string
	Amount      uint64
}

func (d balanceData) key() string {
	return d.Beneficiary + "/" + d.Asset
}

type trackedData struct {
	Asset  string
	Amount uint64
}
