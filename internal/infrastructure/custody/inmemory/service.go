package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountFrozen     = errors.New("account frozen")
)

type accountKey struct {
	owner domain.Address
	asset domain.Asset
}

// Custody is an in-process asset ledger standing in for an external token
// system. It keeps the balances of external accounts and of the escrow
// custody, and moves amounts between them atomically.
type Custody struct {
	mu        sync.Mutex
	unlimited bool
	accounts  map[accountKey]uint64
	held      map[domain.Asset]uint64
	frozen    map[domain.Address]struct{}
}

// NewCustody returns an empty custody. With unlimited set, pulls from external
// accounts always succeed and their balances are not tracked.
func NewCustody(unlimited bool) *Custody {
	return &Custody{
		unlimited: unlimited,
		accounts:  make(map[accountKey]uint64),
		held:      make(map[domain.Asset]uint64),
		frozen:    make(map[domain.Address]struct{}),
	}
}

var _ ports.AssetTransfer = (*Custody)(nil)

func (c *Custody) PullIn(
	_ context.Context, from domain.Address, asset domain.Asset, amount uint64,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.frozen[from]; ok {
		return fmt.Errorf("pull from %s: %w", from, ErrAccountFrozen)
	}

	held, err := domain.AddAmount(c.held[asset], amount)
	if err != nil {
		return fmt.Errorf("custody of %s would overflow", asset)
	}

	key := accountKey{from, asset}
	if !c.unlimited {
		if c.accounts[key] < amount {
			return fmt.Errorf(
				"pull %d %s from %s: %w", amount, asset, from, ErrInsufficientFunds,
			)
		}
		c.accounts[key] -= amount
	}
	c.held[asset] = held

	log.WithFields(log.Fields{
		"from":   from,
		"asset":  asset,
		"amount": amount,
	}).Debug("pulled into custody")
	return nil
}

func (c *Custody) PushOut(
	_ context.Context, to domain.Address, asset domain.Asset, amount uint64,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.frozen[to]; ok {
		return fmt.Errorf("push to %s: %w", to, ErrAccountFrozen)
	}
	if c.held[asset] < amount {
		return fmt.Errorf("push %d %s: %w", amount, asset, ErrInsufficientFunds)
	}

	key := accountKey{to, asset}
	if !c.unlimited {
		balance, err := domain.AddAmount(c.accounts[key], amount)
		if err != nil {
			return fmt.Errorf("balance of %s in %s would overflow", to, asset)
		}
		c.accounts[key] = balance
	}
	c.held[asset] -= amount

	log.WithFields(log.Fields{
		"to":     to,
		"asset":  asset,
		"amount": amount,
	}).Debug("pushed out of custody")
	return nil
}

func (c *Custody) Custodied(_ context.Context, asset domain.Asset) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.held[asset], nil
}

// Mint credits an external account out of thin air.
func (c *Custody) Mint(owner domain.Address, asset domain.Asset, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := accountKey{owner, asset}
	balance, err := domain.AddAmount(c.accounts[key], amount)
	if err != nil {
		return err
	}
	c.accounts[key] = balance
	return nil
}

// Inject adds assets straight into custody, bypassing the escrow ledger, as a
// direct transfer to the custody address would.
func (c *Custody) Inject(asset domain.Asset, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	held, err := domain.AddAmount(c.held[asset], amount)
	if err != nil {
		return err
	}
	c.held[asset] = held
	return nil
}

func (c *Custody) BalanceOf(owner domain.Address, asset domain.Asset) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.accounts[accountKey{owner, asset}]
}

// Freeze makes every transfer from or to owner fail until Unfreeze is called.
func (c *Custody) Freeze(owner domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frozen[owner] = struct{}{}
}

func (c *Custody) Unfreeze(owner domain.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.frozen, owner)
}
