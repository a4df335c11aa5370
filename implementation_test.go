package kvbind_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	c "git.tcp.direct/kayos/common"

	"git.tcp.direct/tcp.direct/kvbind"
	_ "git.tcp.direct/tcp.direct/kvbind/bitcask" // register bitcask
	_ "git.tcp.direct/tcp.direct/kvbind/mock"    // register mock
	_ "git.tcp.direct/tcp.direct/kvbind/pogreb"  // register pogreb
)

func newBinding(t *testing.T, opts ...kvbind.Option) *kvbind.Binding {
	t.Helper()
	b, err := kvbind.New(opts...)
	if err != nil {
		t.Fatalf("[FAIL] failed to create binding: %v", err)
	}
	t.Cleanup(b.Shutdown)
	return b
}

func mustOpen(t *testing.T, b *kvbind.Binding, path string) *kvbind.Connection {
	t.Helper()
	conn, err := b.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("[FAIL] failed to open %s: %v", path, err)
	}
	if !conn.IsOpen() {
		t.Fatalf("[FAIL] fresh connection to %s is not open", path)
	}
	t.Cleanup(func() { b.Close(context.Background(), conn) })
	return conn
}

func mustPut(t *testing.T, b *kvbind.Binding, conn *kvbind.Connection, key, value []byte) {
	t.Helper()
	ret, err := b.Put(context.Background(), conn, key, value)
	if err != nil {
		t.Fatalf("[FAIL] put %q: %v", key, err)
	}
	if ret != conn {
		t.Fatalf("[FAIL] put returned a different connection: %v != %v", ret, conn)
	}
}

func mustGet(t *testing.T, b *kvbind.Binding, conn *kvbind.Connection, key []byte) ([]byte, bool) {
	t.Helper()
	v, ok, err := b.Get(context.Background(), conn, key)
	if err != nil {
		t.Fatalf("[FAIL] get %q: %v", key, err)
	}
	return v, ok
}

func TestAllEngines(t *testing.T) {
	engines := kvbind.AllEngines()
	for _, want := range []string{"bitcask", "mock", "pogreb"} {
		if !slices.Contains(engines, want) {
			t.Errorf("[FAIL] expected %q engine to be registered, have %v", want, engines)
		}
	}
	t.Logf("engines: %v", engines)
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := kvbind.New(kvbind.WithEngine("leveldb"))
	if !errors.Is(err, kvbind.ErrNoEngine) {
		t.Fatalf("[FAIL] expected ErrNoEngine, got %v", err)
	}
}

func TestNew_DefaultEngine(t *testing.T) {
	b := newBinding(t)
	if b.Engine() != kvbind.DefaultEngine {
		t.Errorf("[FAIL] expected default engine %q, got %q", kvbind.DefaultEngine, b.Engine())
	}
}

func TestImplementationsBasic(t *testing.T) {
	ctx := context.Background()
	for _, name := range kvbind.AllEngines() {
		t.Run(name, func(t *testing.T) {
			b := newBinding(t, kvbind.WithEngine(name))
			if b.Engine() != name {
				t.Fatalf("[FAIL] expected engine %q, got %q", name, b.Engine())
			}
			root := t.TempDir()

			t.Run("roundTrip", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "roundtrip"))
				key := []byte(c.RandStr(55))
				value := []byte(c.RandStr(55))
				mustPut(t, b, conn, key, value)
				got, ok := mustGet(t, b, conn, key)
				if !ok || !bytes.Equal(got, value) {
					t.Fatalf("[FAIL] wanted %q, got %q (found=%v)", value, got, ok)
				}
			})

			t.Run("binaryPayload", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "binary"))
				key := []byte{0x00, 0xff, 0x10, 0x00}
				value := bytes.Repeat([]byte{0x00, 0x01, 0xfe}, 4096)
				mustPut(t, b, conn, key, value)
				got, ok := mustGet(t, b, conn, key)
				if !ok || !bytes.Equal(got, value) {
					t.Fatalf("[FAIL] binary value did not round trip (found=%v, len=%d)", ok, len(got))
				}
			})

			t.Run("absent", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "absent"))
				got, ok := mustGet(t, b, conn, []byte("never written"))
				if ok || got != nil {
					t.Fatalf("[FAIL] expected absent, got %q (found=%v)", got, ok)
				}
			})

			t.Run("overwrite", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "t1"))
				mustPut(t, b, conn, []byte("a"), []byte("1"))
				mustPut(t, b, conn, []byte("a"), []byte("2"))
				got, ok := mustGet(t, b, conn, []byte("a"))
				if !ok || string(got) != "2" {
					t.Fatalf("[FAIL] wanted 2, got %q (found=%v)", got, ok)
				}
			})

			t.Run("deleteRemoves", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "delete"))
				mustPut(t, b, conn, []byte("k"), []byte("v"))
				ret, err := b.Delete(ctx, conn, []byte("k"))
				if err != nil {
					t.Fatalf("[FAIL] %v", err)
				}
				if ret != conn {
					t.Fatalf("[FAIL] delete returned a different connection")
				}
				if _, ok := mustGet(t, b, conn, []byte("k")); ok {
					t.Fatalf("[FAIL] key still present after delete")
				}
			})

			t.Run("deleteIdempotent", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "delete-absent"))
				for i := 0; i < 2; i++ {
					ret, err := b.Delete(ctx, conn, []byte("nope"))
					if err != nil {
						t.Fatalf("[FAIL] deleting an absent key should succeed, got %v", err)
					}
					if ret != conn || !ret.IsOpen() {
						t.Fatalf("[FAIL] delete should return the same open connection")
					}
				}
			})

			t.Run("closeInvalidates", func(t *testing.T) {
				conn := mustOpen(t, b, filepath.Join(root, "close"))
				mustPut(t, b, conn, []byte("k"), []byte("v"))
				closed := b.Close(ctx, conn)
				if closed != conn || closed.IsOpen() {
					t.Fatalf("[FAIL] close should return the same, now closed, connection")
				}
				if again := b.Close(ctx, conn); again != conn {
					t.Fatalf("[FAIL] second close should be a no-op")
				}
				if _, err := b.Put(ctx, conn, []byte("k"), []byte("v")); !errors.Is(err, kvbind.ErrResourceClosed) {
					t.Errorf("[FAIL] put after close: expected ErrResourceClosed, got %v", err)
				}
				if _, _, err := b.Get(ctx, conn, []byte("k")); !errors.Is(err, kvbind.ErrResourceClosed) {
					t.Errorf("[FAIL] get after close: expected ErrResourceClosed, got %v", err)
				}
				if _, err := b.Delete(ctx, conn, []byte("k")); !errors.Is(err, kvbind.ErrResourceClosed) {
					t.Errorf("[FAIL] delete after close: expected ErrResourceClosed, got %v", err)
				}
				if err := b.Flush(ctx, conn); !errors.Is(err, kvbind.ErrResourceClosed) {
					t.Errorf("[FAIL] flush after close: expected ErrResourceClosed, got %v", err)
				}
			})

			t.Run("flushSurvivesReopen", func(t *testing.T) {
				path := filepath.Join(root, "flush")
				conn, err := b.Open(ctx, path)
				if err != nil {
					t.Fatalf("[FAIL] %v", err)
				}
				mustPut(t, b, conn, []byte("durable"), []byte("yes"))
				if err = b.Flush(ctx, conn); err != nil {
					t.Fatalf("[FAIL] %v", err)
				}
				b.Close(ctx, conn)

				reopened := mustOpen(t, b, path)
				if reopened == conn {
					t.Fatalf("[FAIL] open must return a fresh connection")
				}
				got, ok := mustGet(t, b, reopened, []byte("durable"))
				if !ok || string(got) != "yes" {
					t.Fatalf("[FAIL] wanted yes after reopen, got %q (found=%v)", got, ok)
				}
			})

			t.Run("destroyRemovesData", func(t *testing.T) {
				path := filepath.Join(root, "destroy")
				conn, err := b.Open(ctx, path)
				if err != nil {
					t.Fatalf("[FAIL] %v", err)
				}
				mustPut(t, b, conn, []byte("k"), []byte("v"))

				if err = b.Destroy(ctx, path); !errors.Is(err, kvbind.ErrEngineDestroy) {
					t.Errorf("[FAIL] destroy of an open path: expected ErrEngineDestroy, got %v", err)
				}

				b.Close(ctx, conn)
				if err = b.Destroy(ctx, path); err != nil {
					t.Fatalf("[FAIL] %v", err)
				}
				fresh := mustOpen(t, b, path)
				if _, ok := mustGet(t, b, fresh, []byte("k")); ok {
					t.Fatalf("[FAIL] key survived destroy")
				}
			})

			t.Run("destroyMissingPath", func(t *testing.T) {
				if err := b.Destroy(ctx, filepath.Join(root, "never-opened")); err != nil {
					t.Fatalf("[FAIL] destroying a missing path should succeed, got %v", err)
				}
			})

			t.Run("secondOpenFails", func(t *testing.T) {
				path := filepath.Join(root, "locked")
				mustOpen(t, b, path)
				second, err := b.Open(ctx, path)
				if err == nil {
					b.Close(ctx, second)
					t.Fatalf("[FAIL] second open of %s should fail", path)
				}
				if !errors.Is(err, kvbind.ErrEngineOpen) {
					t.Fatalf("[FAIL] expected ErrEngineOpen, got %v", err)
				}
				t.Logf("[SUCCESS] second open failed: %v", err)
			})
		})
	}
}
