// Package pogreb provides the default kvbind engine, backed by github.com/akrylysov/pogreb.
package pogreb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/akrylysov/pogreb"

	"git.tcp.direct/tcp.direct/kvbind"
	"git.tcp.direct/tcp.direct/kvbind/kv"
)

// Name is the name the engine registers under.
const Name = "pogreb"

// lockName is the file pogreb flocks inside a store directory while it is open.
const lockName = "lock"

//goland:noinspection GoExportedElementShouldHaveComment
var (
	ErrBadOptions  = errors.New("invalid pogreb options")
	ErrLockPresent = errors.New("lock file present and recovery is disallowed")
)

// Store is an open pogreb database, implementing kvbind.Handle.
type Store struct {
	*pogreb.DB
	closed atomic.Bool
}

// Backend returns the underlying pogreb instance.
func (pstore *Store) Backend() any {
	return pstore.DB
}

// Get is a wrapper for pogreb's Get function to regularize errors when keys do not exist.
func (pstore *Store) Get(key []byte) ([]byte, error) {
	if pstore.closed.Load() {
		return nil, fs.ErrClosed
	}
	ret, err := pstore.DB.Get(key)
	if err == nil && ret == nil {
		// pogreb reports an empty value the same way as a miss
		if ok, hasErr := pstore.DB.Has(key); hasErr == nil && ok {
			return []byte{}, nil
		}
	}
	if err = kv.RegularizeKVError(key, ret, err); err != nil {
		return nil, err
	}
	return ret, nil
}

func (pstore *Store) Put(key []byte, value []byte) error {
	if pstore.closed.Load() {
		return fs.ErrClosed
	}
	return pstore.DB.Put(key, value)
}

func (pstore *Store) Delete(key []byte) error {
	if pstore.closed.Load() {
		return fs.ErrClosed
	}
	return pstore.DB.Delete(key)
}

func (pstore *Store) Sync() error {
	if pstore.closed.Load() {
		return fs.ErrClosed
	}
	return pstore.DB.Sync()
}

// Close is a simple shim for pogreb's Close function.
func (pstore *Store) Close() error {
	if !pstore.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	return pstore.DB.Close()
}

// Engine opens pogreb stores, one directory per path.
type Engine struct {
	opts *WrappedOptions
}

// New creates an Engine. opts may be [Option], pogreb.Options or [WrappedOptions] values.
func New(opts ...any) (*Engine, error) {
	wrapped, err := normalizeOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Engine{opts: wrapped}, nil
}

func (e *Engine) Name() string {
	return Name
}

// Open opens (or creates) the pogreb store at path.
// A second Open of a path that is already open fails on pogreb's lock.
func (e *Engine) Open(path string) (kvbind.Handle, error) {
	if _, err := os.Stat(filepath.Join(path, lockName)); err == nil {
		if !e.opts.AllowRecovery {
			return nil, fmt.Errorf("%w: %s", ErrLockPresent, path)
		}
		kvbind.Logger().Debug().Str("path", path).Msg("pogreb lock file present, open may run recovery")
	}
	db, err := pogreb.Open(path, e.opts.Options)
	if err != nil {
		return nil, err
	}
	kvbind.Logger().Debug().Str("path", path).Interface("options", e.opts).Msg("pogreb store opened")
	return &Store{DB: db}, nil
}

// Destroy removes the pogreb store at path, failing if it is still open.
func (e *Engine) Destroy(path string) error {
	return kvbind.RemoveUnlocked(path, lockName)
}
