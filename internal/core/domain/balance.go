package domain

import "context"

type BalanceKey struct {
	Beneficiary Address
	Asset       Asset
}

// BalanceRepository stores the withdrawable balance of every beneficiary and
// the total amount tracked in custody for every asset. Every method applies a
// single increment or decrement.
type BalanceRepository interface {
	GetWithdrawable(ctx context.Context, beneficiary Address, asset Asset) (uint64, error)
	Credit(ctx context.Context, beneficiary Address, asset Asset, amount uint64) error
	// Debit returns ErrInsufficientBalance if amount exceeds the balance.
	Debit(ctx context.Context, beneficiary Address, asset Asset, amount uint64) error

	GetTracked(ctx context.Context, asset Asset) (uint64, error)
	Track(ctx context.Context, asset Asset, amount uint64) error
	Untrack(ctx context.Context, asset Asset, amount uint64) error
}
