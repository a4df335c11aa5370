package kvbind

import (
	"sync"
	"sync/atomic"
)

// nativeResource exclusively owns one engine [Handle].
//
// refs counts the owners: one for the Connection that wraps it and one for every
// operation currently using the handle. The handle is closed exactly once, by whichever
// owner drops the count to zero.
type nativeResource struct {
	handle Handle
	refs   atomic.Int64

	once     sync.Once
	closeErr error
	onClose  func(error)
}

func newNativeResource(h Handle, onClose func(error)) *nativeResource {
	r := &nativeResource{handle: h, onClose: onClose}
	r.refs.Store(1)
	return r
}

// retain takes a reference. It fails once the count has reached zero,
// since the handle is then closed or about to be.
func (r *nativeResource) retain() bool {
	for {
		n := r.refs.Load()
		if n <= 0 {
			return false
		}
		if r.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (r *nativeResource) release() {
	if r.refs.Add(-1) != 0 {
		return
	}
	r.once.Do(func() {
		r.closeErr = r.handle.Close()
		r.handle = nil
		if r.onClose != nil {
			r.onClose(r.closeErr)
		}
	})
}
