package ports

import (
	"context"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
)

type RepoManager interface {
	Tasks() domain.TaskRepository
	Balances() domain.BalanceRepository
	Governance() domain.GovernanceRepository
	// RunTx runs fn in a single transaction. Repository calls made with the
	// context passed to fn join the transaction, which is rolled back if fn
	// returns an error.
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
	Close()
}
