package domain

import (
	"context"
	"fmt"
	"time"
)

// GenesisMaxTakeRate is the take rate ceiling at genesis, in thousandths.
const GenesisMaxTakeRate uint32 = 50

type Governance struct {
	Owner        Address
	Vault        Address
	TakeRate     uint32
	MaxTakeRate  uint32
	UnlockPeriod time.Duration
}

func NewGovernance(
	owner, vault Address, takeRate uint32, unlockPeriod time.Duration,
) (*Governance, error) {
	if owner.IsNull() {
		return nil, fmt.Errorf("%w: owner must not be the null address", ErrInvalidArgument)
	}
	if vault.IsNull() {
		return nil, fmt.Errorf("%w: protocol vault must not be the null address", ErrInvalidArgument)
	}
	if takeRate > GenesisMaxTakeRate {
		return nil, fmt.Errorf(
			"%w: initial take rate %d exceeds %d", ErrInvalidArgument, takeRate, GenesisMaxTakeRate,
		)
	}
	if unlockPeriod < 0 {
		return nil, fmt.Errorf("%w: unlock period must not be negative", ErrInvalidArgument)
	}
	return &Governance{
		Owner:        owner,
		Vault:        vault,
		TakeRate:     takeRate,
		MaxTakeRate:  GenesisMaxTakeRate,
		UnlockPeriod: unlockPeriod,
	}, nil
}

func (g *Governance) Authorize(caller Address) error {
	if caller != g.Owner {
		return fmt.Errorf("%w: caller %s is not the owner", ErrUnauthorized, caller)
	}
	return nil
}

func (g *Governance) AdjustTakeRate(caller Address, rate uint32) error {
	if err := g.Authorize(caller); err != nil {
		return err
	}
	if rate > g.MaxTakeRate {
		return fmt.Errorf(
			"%w: take rate %d exceeds ceiling %d", ErrInvalidArgument, rate, g.MaxTakeRate,
		)
	}
	g.TakeRate = rate
	return nil
}

// LowerMaxTakeRate permanently lowers the ceiling. The live take rate is
// clamped down to the new ceiling if it exceeds it, in which case clamped is
// true.
func (g *Governance) LowerMaxTakeRate(caller Address, rate uint32) (clamped bool, err error) {
	if err := g.Authorize(caller); err != nil {
		return false, err
	}
	if rate >= g.MaxTakeRate {
		return false, fmt.Errorf(
			"%w: new ceiling %d must be below current ceiling %d",
			ErrInvalidArgument, rate, g.MaxTakeRate,
		)
	}
	g.MaxTakeRate = rate
	if g.TakeRate > rate {
		g.TakeRate = rate
		clamped = true
	}
	return clamped, nil
}

func (g *Governance) AdjustUnlockPeriod(caller Address, period time.Duration) error {
	if err := g.Authorize(caller); err != nil {
		return err
	}
	if period < 0 {
		return fmt.Errorf("%w: unlock period must not be negative", ErrInvalidArgument)
	}
	g.UnlockPeriod = period
	return nil
}

type GovernanceRepository interface {
	// Get returns ErrNotFound before genesis.
	Get(ctx context.Context) (*Governance, error)
	Save(ctx context.Context, governance Governance) error
}
