package kvbind

import (
	"sync/atomic"
)

// Connection is a logical session with the store at Path.
//
// A Connection is open from a successful [Binding.Open] until [Binding.Close]; it is never
// reopened. Connections are safe to share between goroutines: Close may race with any other
// operation and the loser simply observes [ErrResourceClosed].
type Connection struct {
	path string
	res  atomic.Pointer[nativeResource]
}

// Path returns the path the connection was opened against.
func (c *Connection) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// IsOpen reports whether the connection still holds its native resource.
func (c *Connection) IsOpen() bool {
	return c != nil && c.res.Load() != nil
}

func (c *Connection) String() string {
	state := "closed"
	if c.IsOpen() {
		state = "open"
	}
	return "kvbind.Connection{" + c.Path() + ", " + state + "}"
}

// acquire returns the resource with an extra reference held for the caller,
// or false if the connection has been closed.
func (c *Connection) acquire() (*nativeResource, bool) {
	if c == nil {
		return nil, false
	}
	res := c.res.Load()
	if res == nil || !res.retain() {
		return nil, false
	}
	return res, true
}

// detach clears the resource reference and hands it to the caller, who must release it.
// Only the first detach returns a resource.
func (c *Connection) detach() *nativeResource {
	if c == nil {
		return nil
	}
	return c.res.Swap(nil)
}
