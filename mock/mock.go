// Package mock provides an in-memory kvbind engine with fault injection, for tests.
//
// Data lives in a process wide map keyed by path, so it survives Close and a later Open
// of the same path the way a disk would. Like the real engines, a path can only be open
// once at a time.
package mock

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"git.tcp.direct/tcp.direct/kvbind"
	"git.tcp.direct/tcp.direct/kvbind/kv"
)

// Name is the name the engine registers under.
const Name = "mock"

var (
	ErrLocked     = errors.New("mock store is locked by another handle")
	ErrBadOptions = errors.New("bad mock engine options")
)

var (
	disk   = make(map[string]*memStore)
	diskMu sync.Mutex
)

type memStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	locked bool
}

// Faults makes engine calls fail. A non-nil error is returned from the matching call;
// PanicOn names a call ("open", "put", "get", "delete", "sync", "close", "destroy")
// that panics instead.
type Faults struct {
	Open    error
	Put     error
	Get     error
	Delete  error
	Sync    error
	Destroy error
	PanicOn string
}

// Option configures an [Engine].
type Option func(*Engine)

// WithFaults injects f into every handle of the engine.
func WithFaults(f Faults) Option {
	return func(e *Engine) {
		e.faults = f
	}
}

// WithAliasing makes Get return the stored slice itself instead of a copy.
func WithAliasing() Option {
	return func(e *Engine) {
		e.alias = true
	}
}

// WithHook calls hook with the call name before every engine call.
func WithHook(hook func(op string)) Option {
	return func(e *Engine) {
		e.hook = hook
	}
}

// Engine is the in-memory engine.
type Engine struct {
	faults Faults
	alias  bool
	hook   func(op string)

	opened atomic.Int64
	closed atomic.Int64
}

func New(opts ...any) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		o, ok := opt.(Option)
		if !ok {
			return nil, fmt.Errorf("%w: (%T): %v", ErrBadOptions, opt, opt)
		}
		o(e)
	}
	return e, nil
}

func (e *Engine) Name() string {
	return Name
}

// Opened returns how many handles this engine has opened.
func (e *Engine) Opened() int64 {
	return e.opened.Load()
}

// Closed returns how many handles of this engine have been closed.
func (e *Engine) Closed() int64 {
	return e.closed.Load()
}

func (e *Engine) enter(op string, fault error) error {
	if e.hook != nil {
		e.hook(op)
	}
	if e.faults.PanicOn == op {
		panic("mock: injected panic in " + op)
	}
	return fault
}

func (e *Engine) Open(path string) (kvbind.Handle, error) {
	if err := e.enter("open", e.faults.Open); err != nil {
		return nil, err
	}
	diskMu.Lock()
	defer diskMu.Unlock()
	st, ok := disk[path]
	if !ok {
		st = &memStore{values: make(map[string][]byte)}
		disk[path] = st
	}
	if st.locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	st.locked = true
	e.opened.Add(1)
	return &Handle{engine: e, store: st}, nil
}

func (e *Engine) Destroy(path string) error {
	if err := e.enter("destroy", e.faults.Destroy); err != nil {
		return err
	}
	diskMu.Lock()
	defer diskMu.Unlock()
	st, ok := disk[path]
	if !ok {
		return nil
	}
	if st.locked {
		return fmt.Errorf("%w: %s", kvbind.ErrPathInUse, path)
	}
	delete(disk, path)
	return nil
}

// Handle is an open mock store.
type Handle struct {
	engine *Engine
	store  *memStore
	closed atomic.Bool
}

func (h *Handle) Put(key []byte, value []byte) error {
	if err := h.engine.enter("put", h.engine.faults.Put); err != nil {
		return err
	}
	if h.closed.Load() {
		return fs.ErrClosed
	}
	v := make([]byte, len(value))
	copy(v, value)
	h.store.mu.Lock()
	h.store.values[string(key)] = v
	h.store.mu.Unlock()
	return nil
}

func (h *Handle) Get(key []byte) ([]byte, error) {
	if err := h.engine.enter("get", h.engine.faults.Get); err != nil {
		return nil, err
	}
	if h.closed.Load() {
		return nil, fs.ErrClosed
	}
	h.store.mu.RLock()
	v, ok := h.store.values[string(key)]
	h.store.mu.RUnlock()
	if !ok {
		return nil, &kv.NonExistentKeyError{Key: key}
	}
	if h.engine.alias {
		return v, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (h *Handle) Delete(key []byte) error {
	if err := h.engine.enter("delete", h.engine.faults.Delete); err != nil {
		return err
	}
	if h.closed.Load() {
		return fs.ErrClosed
	}
	h.store.mu.Lock()
	delete(h.store.values, string(key))
	h.store.mu.Unlock()
	return nil
}

func (h *Handle) Sync() error {
	if err := h.engine.enter("sync", h.engine.faults.Sync); err != nil {
		return err
	}
	if h.closed.Load() {
		return fs.ErrClosed
	}
	return nil
}

func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return fs.ErrClosed
	}
	diskMu.Lock()
	h.store.locked = false
	diskMu.Unlock()
	h.engine.closed.Add(1)
	// a panicking close still releases the lock, like a crashing process would
	_ = h.engine.enter("close", nil)
	return nil
}

func init() {
	kvbind.RegisterEngine(Name, func(opts ...any) (kvbind.Engine, error) {
		e, err := New(opts...)
		if err != nil {
			return nil, err
		}
		return e, nil
	})
}
