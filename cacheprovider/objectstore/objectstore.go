// Package objectstore provides a cacheprovider.Provider backed by an
// embedded transactional object store — github.com/ipfs/go-datastore's
// datastore.Batching abstraction, the same storage interface
// github.com/querycore/querycore's teacher wires into every dagsync
// operation. When the supplied datastore also implements
// datastore.TxnDatastore, every Set and Remove runs inside an explicit
// transaction, which is the direct analogue of an IndexedDB readwrite
// transaction.
//
// Opening the underlying datastore is lazy and memoized: the first call
// opens it via the OpenFunc passed to New. If
// Open fails, the provider permanently degrades to the documented no-op
// behavior — every Get misses, every Set/Remove succeeds silently — rather
// than failing the endpoint that happens to use it.
package objectstore

import (
	"context"
	"sync"

	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"

	"github.com/querycore/querycore/cacheprovider"
)

var log = logging.Logger("cacheprovider/objectstore")

// Namespace is the datastore.Key prefix under which every entry this
// provider manages is stored.
const Namespace = "/QueryCore"

// OpenFunc lazily constructs (or connects to) the backing datastore. It is
// called at most once.
type OpenFunc func() (datastore.Batching, error)

// Provider is a cacheprovider.Provider over an embedded, optionally
// transactional, object store.
type Provider struct {
	open OpenFunc

	once     sync.Once
	ds       datastore.Batching
	disabled bool
}

// New creates a provider that opens its backing datastore on first use via
// open.
func New(open OpenFunc) *Provider {
	return &Provider{open: open}
}

// NewInMemory creates a provider backed by datastore.NewMapDatastore, the
// in-memory reference Batching implementation go-datastore ships — useful
// for tests and for applications that want the transactional-store
// semantics without an on-disk dependency.
func NewInMemory() *Provider {
	return New(func() (datastore.Batching, error) {
		return datastore.NewMapDatastore(), nil
	})
}

func (p *Provider) ensureOpen() datastore.Batching {
	p.once.Do(func() {
		ds, err := p.open()
		if err != nil {
			log.Errorw("objectStore open failed, provider disabled", "err", err)
			p.disabled = true
			return
		}
		p.ds = ds
	})
	return p.ds
}

func (p *Provider) Get(ctx context.Context, key string) (cacheprovider.Entry, bool, error) {
	ds := p.ensureOpen()
	if p.disabled {
		return cacheprovider.Entry{}, false, nil
	}
	b, err := ds.Get(ctx, dsKey(key))
	if err != nil {
		if err != datastore.ErrNotFound {
			log.Debugw("objectStore get failed, treating as miss", "err", err, "key", key)
		}
		return cacheprovider.Entry{}, false, nil
	}
	entry, err := decodeEntry(b)
	if err != nil {
		log.Debugw("objectStore entry corrupt, treating as miss", "err", err, "key", key)
		return cacheprovider.Entry{}, false, nil
	}
	if !entry.Valid() {
		return cacheprovider.Entry{}, false, nil
	}
	return entry, true, nil
}

func (p *Provider) Set(ctx context.Context, key string, entry cacheprovider.Entry) error {
	ds := p.ensureOpen()
	if p.disabled {
		return nil
	}
	b, err := encodeEntry(entry)
	if err != nil {
		log.Debugw("objectStore encode failed, set dropped", "err", err, "key", key)
		return nil
	}

	txnDs, ok := ds.(datastore.TxnDatastore)
	if !ok {
		if err := ds.Put(ctx, dsKey(key), b); err != nil {
			log.Debugw("objectStore put failed", "err", err, "key", key)
		}
		return nil
	}

	txn, err := txnDs.NewTransaction(ctx, false)
	if err != nil {
		log.Debugw("objectStore begin transaction failed", "err", err, "key", key)
		return nil
	}
	defer txn.Discard(ctx)
	if err := txn.Put(ctx, dsKey(key), b); err != nil {
		log.Debugw("objectStore transactional put failed", "err", err, "key", key)
		return nil
	}
	if err := txn.Commit(ctx); err != nil {
		log.Debugw("objectStore commit failed", "err", err, "key", key)
	}
	return nil
}

func (p *Provider) Remove(ctx context.Context, key string) error {
	ds := p.ensureOpen()
	if p.disabled {
		return nil
	}

	txnDs, ok := ds.(datastore.TxnDatastore)
	if !ok {
		if err := ds.Delete(ctx, dsKey(key)); err != nil {
			log.Debugw("objectStore delete failed", "err", err, "key", key)
		}
		return nil
	}

	txn, err := txnDs.NewTransaction(ctx, false)
	if err != nil {
		log.Debugw("objectStore begin transaction failed", "err", err, "key", key)
		return nil
	}
	defer txn.Discard(ctx)
	if err := txn.Delete(ctx, dsKey(key)); err != nil {
		log.Debugw("objectStore transactional delete failed", "err", err, "key", key)
		return nil
	}
	if err := txn.Commit(ctx); err != nil {
		log.Debugw("objectStore commit failed", "err", err, "key", key)
	}
	return nil
}

func dsKey(key string) datastore.Key {
	return datastore.NewKey(Namespace).ChildString(key)
}

var _ cacheprovider.Provider = (*Provider)(nil)
