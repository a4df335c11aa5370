package kvbind

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"time"

	"git.tcp.direct/tcp.direct/kvbind/kv"
	"git.tcp.direct/tcp.direct/kvbind/worker"
)

// Open opens the engine at path and returns a new open Connection.
// Any engine failure, including a panic, is returned as an [ErrEngineOpen] error.
func (b *Binding) Open(ctx context.Context, path string) (*Connection, error) {
	start := time.Now()
	var h Handle
	err := b.pool.Do(ctx, func() error {
		var oerr error
		if h, oerr = b.engine.Open(path); oerr != nil {
			if h != nil {
				_ = h.Close()
				h = nil
			}
			return oerr
		}
		if h == nil {
			return errors.New("engine returned no handle")
		}
		return nil
	})
	if err != nil {
		return nil, b.finish("open", KindOpen, path, err, start)
	}

	conn := &Connection{path: path}
	conn.res.Store(newNativeResource(h, b.released(path)))
	runtime.SetFinalizer(conn, b.finalize)
	b.metrics.ResourceOpened()
	b.log.Debug().Str("path", path).Msg("native handle opened")
	return conn, b.finish("open", "", path, nil, start)
}

// Put stores value under key and returns conn.
func (b *Binding) Put(ctx context.Context, conn *Connection, key, value []byte) (*Connection, error) {
	start := time.Now()
	// engines may index the key slice itself
	key = bytes.Clone(key)
	err := b.call(ctx, conn, func(h Handle) error {
		return h.Put(key, value)
	})
	return conn, b.finish("put", KindWrite, conn.Path(), err, start)
}

// Get returns a copy of the value stored under key. found is false if the key is absent.
func (b *Binding) Get(ctx context.Context, conn *Connection, key []byte) (value []byte, found bool, err error) {
	start := time.Now()
	err = b.call(ctx, conn, func(h Handle) error {
		v, gerr := h.Get(key)
		if gerr != nil {
			if kv.IsNonExistentKey(gerr) {
				return nil
			}
			return gerr
		}
		// v may be engine memory; it must not outlive this call
		value = make([]byte, len(v))
		copy(value, v)
		found = true
		return nil
	})
	if err = b.finish("get", KindRead, conn.Path(), err, start); err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Delete removes key and returns conn. Deleting an absent key succeeds.
func (b *Binding) Delete(ctx context.Context, conn *Connection, key []byte) (*Connection, error) {
	start := time.Now()
	err := b.call(ctx, conn, func(h Handle) error {
		return h.Delete(key)
	})
	return conn, b.finish("delete", KindWrite, conn.Path(), err, start)
}

// Flush forces buffered writes of conn to durable storage.
func (b *Binding) Flush(ctx context.Context, conn *Connection) error {
	start := time.Now()
	err := b.call(ctx, conn, func(h Handle) error {
		return h.Sync()
	})
	return b.finish("flush", KindFlush, conn.Path(), err, start)
}

// Close clears the resource of conn and returns it. Close never fails and closing an
// already closed connection is a no-op. The native handle is released once no running
// operation still uses it; Close does not imply Flush.
func (b *Binding) Close(ctx context.Context, conn *Connection) *Connection {
	start := time.Now()
	res := conn.detach()
	if res == nil {
		_ = b.finish("close", "", conn.Path(), nil, start)
		return conn
	}
	runtime.SetFinalizer(conn, nil)
	err := b.pool.Do(ctx, func() error {
		res.release()
		return nil
	})
	var pe *worker.PanicError
	switch {
	case errors.As(err, &pe):
		b.log.Error().Str("path", conn.Path()).Interface("panic", pe.Value).Msg("engine panicked while closing handle")
	case err != nil:
		// the reference is already detached, it must still be dropped
		b.pool.Go(res.release)
	}
	_ = b.finish("close", "", conn.Path(), nil, start)
	return conn
}

// Destroy removes the store at path. It needs no Connection; destroying a path that is
// still open is expected to fail in the engine.
func (b *Binding) Destroy(ctx context.Context, path string) error {
	start := time.Now()
	err := b.pool.Do(ctx, func() error {
		return b.engine.Destroy(path)
	})
	if err == nil {
		b.log.Debug().Str("path", path).Msg("store destroyed")
	}
	return b.finish("destroy", KindDestroy, path, err, start)
}

// call runs fn on a worker while holding a reference to the resource of conn,
// so a concurrent Close cannot release the handle underneath fn.
func (b *Binding) call(ctx context.Context, conn *Connection, fn func(h Handle) error) error {
	res, ok := conn.acquire()
	if !ok {
		return ErrResourceClosed
	}
	ran := false
	err := b.pool.Do(ctx, func() error {
		ran = true
		defer res.release()
		return fn(res.handle)
	})
	if !ran {
		b.pool.Go(res.release)
	}
	return err
}

func (b *Binding) finish(op string, kind Kind, path string, err error, start time.Time) error {
	if errors.Is(err, ErrResourceClosed) {
		err = closedErr(op, path)
	}
	var pe *worker.PanicError
	if errors.As(err, &pe) {
		b.log.Error().Str("op", op).Str("path", path).
			Interface("panic", pe.Value).Str("stack", string(pe.Stack)).
			Msg("recovered engine panic")
	}
	err = translate(op, kind, path, err)
	var failed Kind
	if err != nil {
		failed = KindOf(err)
		ev := b.log.Warn()
		if failed == KindResourceClosed || failed == KindUnavailable {
			ev = b.log.Debug()
		}
		ev.Str("op", op).Str("path", path).Str("kind", string(failed)).Err(err).Msg("operation failed")
	}
	b.metrics.ObserveOp(op, failed, time.Since(start))
	return err
}

func (b *Binding) released(path string) func(error) {
	return func(err error) {
		b.metrics.ResourceReleased()
		if err != nil {
			b.log.Warn().Str("path", path).Err(err).Msg("error releasing native handle")
			return
		}
		b.log.Debug().Str("path", path).Msg("native handle released")
	}
}

// finalize drops the reference of a Connection that was garbage collected without Close.
func (b *Binding) finalize(c *Connection) {
	if res := c.detach(); res != nil {
		b.log.Warn().Str("path", c.path).Msg("connection collected without Close, releasing native handle")
		b.pool.Go(res.release)
	}
}
