package badgercustody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ArkLabsHQ/escrowd/internal/core/domain"
	"github.com/ArkLabsHQ/escrowd/internal/core/ports"
	badgerdb "github.com/ArkLabsHQ/escrowd/internal/infrastructure/db/badger"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type accountData struct {
	Owner  string
	Asset  string
	Amount uint64
}

type holdingData struct {
	Asset  string
	Amount uint64
}

func accountKey(owner domain.Address, asset domain.Asset) string {
	return fmt.Sprintf("%s/%s", owner, asset)
}

// Custody is a persistent asset ledger standing in for an external token
// system. External account balances and the assets held in custody live in
// the same badger store, so every transfer updates both in one transaction.
type Custody struct {
	mu     sync.Mutex
	store  *badgerhold.Store
	faucet bool
}

// NewCustody opens the custody store under dir, or an in-memory one if dir
// is empty. With faucet set, a pull larger than the payer's balance first
// mints the shortfall into the payer's account.
func NewCustody(dir string, faucet bool) (*Custody, error) {
	store, err := badgerdb.OpenStore(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open custody store: %w", err)
	}
	if faucet {
		log.Warn("custody faucet enabled, pulls never fail for lack of funds")
	}
	return &Custody{store: store, faucet: faucet}, nil
}

var _ ports.AssetTransfer = (*Custody)(nil)

func (c *Custody) PullIn(
	_ context.Context, from domain.Address, asset domain.Asset, amount uint64,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := c.getAccount(tx, from, asset)
		if err != nil {
			return err
		}
		holding, err := c.getHolding(tx, asset)
		if err != nil {
			return err
		}

		held, err := domain.AddAmount(holding.Amount, amount)
		if err != nil {
			return fmt.Errorf("custody of %s would overflow", asset)
		}

		if account.Amount < amount {
			if !c.faucet {
				return fmt.Errorf(
					"pull %d %s from %s: %w", amount, asset, from, ErrInsufficientFunds,
				)
			}
			log.WithFields(log.Fields{
				"owner":  from,
				"asset":  asset,
				"minted": amount - account.Amount,
			}).Debug("faucet minted shortfall")
			account.Amount = amount
		}
		account.Amount -= amount
		holding.Amount = held

		if err := c.store.TxUpsert(tx, accountKey(from, asset), *account); err != nil {
			return err
		}
		if err := c.store.TxUpsert(tx, string(asset), *holding); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"from":   from,
			"asset":  asset,
			"amount": amount,
		}).Debug("pulled into custody")
		return nil
	})
}

func (c *Custody) PushOut(
	_ context.Context, to domain.Address, asset domain.Asset, amount uint64,
) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Badger().Update(func(tx *badger.Txn) error {
		holding, err := c.getHolding(tx, asset)
		if err != nil {
			return err
		}
		if holding.Amount < amount {
			return fmt.Errorf("push %d %s: %w", amount, asset, ErrInsufficientFunds)
		}
		account, err := c.getAccount(tx, to, asset)
		if err != nil {
			return err
		}

		balance, err := domain.AddAmount(account.Amount, amount)
		if err != nil {
			return fmt.Errorf("balance of %s in %s would overflow", to, asset)
		}
		account.Amount = balance
		holding.Amount -= amount

		if err := c.store.TxUpsert(tx, accountKey(to, asset), *account); err != nil {
			return err
		}
		if err := c.store.TxUpsert(tx, string(asset), *holding); err != nil {
			return err
		}

		log.WithFields(log.Fields{
			"to":     to,
			"asset":  asset,
			"amount": amount,
		}).Debug("pushed out of custody")
		return nil
	})
}

func (c *Custody) Custodied(_ context.Context, asset domain.Asset) (uint64, error) {
	var holding holdingData
	if err := c.store.Get(string(asset), &holding); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return holding.Amount, nil
}

// Mint credits an external account out of thin air.
func (c *Custody) Mint(owner domain.Address, asset domain.Asset, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := c.getAccount(tx, owner, asset)
		if err != nil {
			return err
		}
		balance, err := domain.AddAmount(account.Amount, amount)
		if err != nil {
			return err
		}
		account.Amount = balance
		return c.store.TxUpsert(tx, accountKey(owner, asset), *account)
	})
}

// Inject adds assets straight into custody, bypassing the escrow ledger, as a
// direct transfer to the custody address would.
func (c *Custody) Inject(asset domain.Asset, amount uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Badger().Update(func(tx *badger.Txn) error {
		holding, err := c.getHolding(tx, asset)
		if err != nil {
			return err
		}
		held, err := domain.AddAmount(holding.Amount, amount)
		if err != nil {
			return err
		}
		holding.Amount = held
		return c.store.TxUpsert(tx, string(asset), *holding)
	})
}

func (c *Custody) BalanceOf(owner domain.Address, asset domain.Asset) (uint64, error) {
	var account accountData
	if err := c.store.Get(accountKey(owner, asset), &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return account.Amount, nil
}

func (c *Custody) Close() {
	if err := c.store.Close(); err != nil {
		log.WithError(err).Warn("failed to close custody store")
	}
}

func (c *Custody) getAccount(
	tx *badger.Txn, owner domain.Address, asset domain.Asset,
) (*accountData, error) {
	account := accountData{Owner: string(owner), Asset: string(asset)}
	if err := c.store.TxGet(tx, accountKey(owner, asset), &account); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return nil, err
		}
	}
	return &account, nil
}

func (c *Custody) getHolding(tx *badger.Txn, asset domain.Asset) (*holdingData, error) {
	holding := holdingData{Asset: string(asset)}
	if err := c.store.TxGet(tx, string(asset), &holding); err != nil {
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return nil, err
		}
	}
	return &holding, nil
}
