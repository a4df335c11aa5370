package kvbind

// Handle is an open native engine handle for a single path.
// Implementations must be safe for concurrent use; the binding adds no lock around
// Put, Get, Delete and Sync.
type Handle interface {
	// Put should store value under key, overwriting any existing value.
	Put(key []byte, value []byte) error
	// Get should return the stored value for key. An absent key must be reported
	// as a [kv.NonExistentKeyError], not as a nil value with a nil error.
	Get(key []byte) ([]byte, error)
	// Delete should remove key. Removing an absent key is not an error.
	Delete(key []byte) error
	// Sync should force buffered writes to durable storage.
	Sync() error
	// Close should release the handle. The binding calls it exactly once.
	Close() error
}

// Engine opens and destroys native handles by path.
//
// NOTE: an Engine is expected to refuse a second concurrent Open of the same path.
// The binding does not keep a registry of open paths and relies on that refusal.
type Engine interface {
	// Name returns the name the engine was registered under.
	Name() string
	// Open should open (creating if absent) the store at path.
	Open(path string) (Handle, error)
	// Destroy should remove every on-disk artifact of the store at path.
	Destroy(path string) error
}
