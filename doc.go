// Package kvbind binds an embedded, persistent key/value engine to Go callers.
//
// A [Binding] owns a pool of OS thread bound workers and an [Engine]. Every engine call
// (open, put, get, delete, flush, close, destroy) runs on that pool, never on the calling
// goroutine. A [Connection] is the caller visible value for "the store at path P"; it holds
// the native handle until [Binding.Close], after which every operation on it fails with
// [ErrResourceClosed].
//
// Engines register themselves by name when their package is imported:
//
//	import (
//		"git.tcp.direct/tcp.direct/kvbind"
//		_ "git.tcp.direct/tcp.direct/kvbind/pogreb"
//	)
//
//	b, err := kvbind.New()
//	conn, err := b.Open(ctx, "/var/lib/thing")
//	conn, err = b.Put(ctx, conn, []byte("a"), []byte("1"))
//	v, ok, err := b.Get(ctx, conn, []byte("a"))
//	conn = b.Close(ctx, conn)
//
// Values returned by Get are always fresh copies owned by the caller.
package kvbind
