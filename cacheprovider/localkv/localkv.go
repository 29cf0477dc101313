// Package localkv provides a cacheprovider.Provider backed by a single
// JSON document on local disk — the synchronous, whole-store-at-a-time
// contract of browser localStorage translated to a filesystem process has
// available across restarts.
//
// No library in the retrieved example set models a single-file,
// synchronous, string-keyed document store; encoding/json plus os is the
// standard-library pairing every Go program reaches for here, and nothing
// in the corpus does this job better (see DESIGN.md). Quota and
// serialization failures are swallowed per the Provider contract.
package localkv

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/querycore/querycore/cacheprovider"
)

var log = logging.Logger("cacheprovider/localkv")

// Provider persists entries as one JSON object in a single file, read once
// on first use and rewritten wholesale on every mutation, matching
// localStorage's synchronous single-threaded contract.
type Provider struct {
	path string

	mu   sync.Mutex
	data map[string]cacheprovider.Entry
	// loaded is true once the file has been read (or found absent) at
	// least once, so the zero-value in-memory map isn't mistaken for an
	// empty store before the on-disk state has ever been consulted.
	loaded bool
}

// New creates a provider that persists to path. The file is created on
// first write; it is not required to exist yet.
func New(path string) *Provider {
	return &Provider{path: path, data: make(map[string]cacheprovider.Entry)}
}

func (p *Provider) Get(_ context.Context, key string) (cacheprovider.Entry, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(); err != nil {
		log.Debugw("localKV load failed, treating as miss", "err", err)
		return cacheprovider.Entry{}, false, nil
	}
	e, ok := p.data[key]
	if !ok || !e.Valid() {
		return cacheprovider.Entry{}, false, nil
	}
	return e, true, nil
}

func (p *Provider) Set(_ context.Context, key string, entry cacheprovider.Entry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(); err != nil {
		log.Debugw("localKV load failed before set, starting fresh", "err", err)
	}
	p.data[key] = entry
	if err := p.saveLocked(); err != nil {
		log.Debugw("localKV save failed, in-memory state unaffected", "err", err)
	}
	return nil
}

func (p *Provider) Remove(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.loadLocked(); err != nil {
		log.Debugw("localKV load failed before remove", "err", err)
		return nil
	}
	if _, ok := p.data[key]; !ok {
		return nil
	}
	delete(p.data, key)
	if err := p.saveLocked(); err != nil {
		log.Debugw("localKV save failed after remove", "err", err)
	}
	return nil
}

// loadLocked reads the backing file into p.data exactly once; subsequent
// calls are no-ops so that writes made since the first load are not lost
// by re-reading a stale file. Callers hold p.mu.
func (p *Provider) loadLocked() error {
	if p.loaded {
		return nil
	}
	p.loaded = true

	b, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var onDisk map[string]cacheprovider.Entry
	if err := json.Unmarshal(b, &onDisk); err != nil {
		// Corrupt file: treat as though the store were empty rather than
		// failing every subsequent call.
		return err
	}
	p.data = onDisk
	return nil
}

func (p *Provider) saveLocked() error {
	b, err := json.Marshal(p.data)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(p.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(p.path, b, 0o644)
}

var _ cacheprovider.Provider = (*Provider)(nil)
