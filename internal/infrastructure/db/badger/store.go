package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/fxamacker/cbor/v2"
	"github.com/timshannon/badgerhold/v4"
)

const ledgerDir = "ledger"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

// Records are stored with Core Deterministic CBOR so the same ledger state
// always produces the same bytes.
func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("badgerdb: cbor encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("badgerdb: cbor decoder initialization failed: " + err.Error())
	}
}

func encode(value interface{}) ([]byte, error) {
	return encMode.Marshal(value)
}

func decode(data []byte, value interface{}) error {
	return decMode.Unmarshal(data, value)
}

type txKey struct{}

// NewStore opens the ledger store under baseDir. An empty baseDir opens an
// in-memory store.
func NewStore(baseDir string, logger badger.Logger) (*badgerhold.Store, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, ledgerDir)
	}
	store, err := OpenStore(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %s", err)
	}
	return store, nil
}

// RunTx runs fn in a read-write transaction. Repository calls made with the
// context passed to fn use the transaction.
func RunTx(
	ctx context.Context, store *badgerhold.Store, fn func(ctx context.Context) error,
) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return store.Badger().Update(func(tx *badger.Txn) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *badger.Txn {
	tx, _ := ctx.Value(txKey{}).(*badger.Txn)
	return tx
}

// OpenStore opens a badgerhold store at dbDir encoding records with
// deterministic CBOR. An empty dbDir opens an in-memory store.
func OpenStore(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          encode,
		Decoder:          decode,
		SequenceBandwith: badgerhold.DefaultOptions.SequenceBandwith,
		Options:          opts,
	})
}

func get(ctx context.Context, store *badgerhold.Store, key, result interface{}) error {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxGet(tx, key, result)
	}
	return store.Get(key, result)
}

func find(
	ctx context.Context, store *badgerhold.Store, result interface{}, query *badgerhold.Query,
) error {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxFind(tx, result, query)
	}
	return store.Find(result, query)
}

func insert(ctx context.Context, store *badgerhold.Store, key, data interface{}) error {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxInsert(tx, key, data)
	}
	return store.Insert(key, data)
}

func update(ctx context.Context, store *badgerhold.Store, key, data interface{}) error {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxUpdate(tx, key, data)
	}
	return store.Update(key, data)
}

func upsert(ctx context.Context, store *badgerhold.Store, key, data interface{}) error {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxUpsert(tx, key, data)
	}
	return store.Upsert(key, data)
}

func count(
	ctx context.Context, store *badgerhold.Store, dataType interface{}, query *badgerhold.Query,
) (uint64, error) {
	if tx := txFromContext(ctx); tx != nil {
		return store.TxCount(tx, dataType, query)
	}
	return store.Count(dataType, query)
}
