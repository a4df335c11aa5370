// Package bitcask provides a kvbind engine backed by bitcask.
package bitcask

import (
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"git.tcp.direct/Mirrors/bitcask-mirror"

	"git.tcp.direct/tcp.direct/kvbind"
	"git.tcp.direct/tcp.direct/kvbind/kv"
)

// Name is the name the engine registers under.
const Name = "bitcask"

// lockName is the file bitcask flocks inside a store directory while it is open.
const lockName = "lock"

var ErrBadOptions = errors.New("invalid bitcask option type")

// Store is an open bitcask database, implementing kvbind.Handle.
type Store struct {
	*bitcask.Bitcask
	closed atomic.Bool
}

// Backend returns the underlying bitcask instance.
func (s *Store) Backend() any {
	return s.Bitcask
}

// Get is a wrapper for bitcask's Get function to regularize errors when keys do not exist.
func (s *Store) Get(key []byte) ([]byte, error) {
	if s.closed.Load() {
		return nil, fs.ErrClosed
	}
	ret, err := s.Bitcask.Get(key)
	if err = kv.RegularizeKVError(key, ret, err, bitcask.ErrKeyNotFound); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Store) Put(key []byte, value []byte) error {
	if s.closed.Load() {
		return fs.ErrClosed
	}
	return s.Bitcask.Put(key, value)
}

func (s *Store) Delete(key []byte) error {
	if s.closed.Load() {
		return fs.ErrClosed
	}
	return s.Bitcask.Delete(key)
}

// Sync is a simple shim for bitcask's Sync function.
func (s *Store) Sync() error {
	if s.closed.Load() {
		return fs.ErrClosed
	}
	return s.Bitcask.Sync()
}

// Close is a simple shim for bitcask's Close function.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	return s.Bitcask.Close()
}

// Engine opens bitcask stores, one directory per path.
type Engine struct {
	opts []bitcask.Option
}

// New creates an Engine. Every element of opts must be a bitcask.Option.
func New(opts ...any) (*Engine, error) {
	var bitcaskopts []bitcask.Option
	for _, opt := range opts {
		bo, ok := opt.(bitcask.Option)
		if !ok {
			return nil, fmt.Errorf("%w: %T", ErrBadOptions, opt)
		}
		bitcaskopts = append(bitcaskopts, bo)
	}
	return &Engine{opts: bitcaskopts}, nil
}

func (e *Engine) Name() string {
	return Name
}

// Open opens (or creates) the bitcask store at path.
// A second Open of a path that is already open fails on bitcask's lock.
func (e *Engine) Open(path string) (kvbind.Handle, error) {
	c, err := bitcask.Open(path, e.opts...)
	if err != nil {
		return nil, err
	}
	kvbind.Logger().Debug().Str("path", path).Int("options", len(e.opts)).Msg("bitcask store opened")
	return &Store{Bitcask: c}, nil
}

// Destroy removes the bitcask store at path, failing if it is still open.
func (e *Engine) Destroy(path string) error {
	return kvbind.RemoveUnlocked(path, lockName)
}

// WithMaxDatafileSize is a shim for bitcask's WithMaxDatafileSize function.
func WithMaxDatafileSize(size int) bitcask.Option {
	return bitcask.WithMaxDatafileSize(size)
}

// WithMaxKeySize is a shim for bitcask's WithMaxKeySize function.
func WithMaxKeySize(size uint32) bitcask.Option {
	return bitcask.WithMaxKeySize(size)
}

// WithMaxValueSize is a shim for bitcask's WithMaxValueSize function.
func WithMaxValueSize(size uint64) bitcask.Option {
	return bitcask.WithMaxValueSize(size)
}
