package kvbind

import (
	"sort"
	"sync"
)

// EngineCreator creates a new [Engine] from engine specific options.
type EngineCreator func(opts ...any) (Engine, error)

var (
	engineIndex = make(map[string]EngineCreator)
	regMu       = &sync.RWMutex{}
)

// RegisterEngine registers a new [EngineCreator] under the given name in the global registry.
// Engine packages call this from init, so a blank import is enough to make them available.
func RegisterEngine(name string, creator EngineCreator) {
	regMu.Lock()
	engineIndex[name] = creator
	regMu.Unlock()
}

// GetEngine retrieves an [EngineCreator] from the global registry by name.
func GetEngine(name string) EngineCreator {
	regMu.RLock()
	c := engineIndex[name]
	regMu.RUnlock()
	return c
}

// AllEngines returns the sorted names of all registered engines.
func AllEngines() []string {
	regMu.RLock()
	names := make([]string, 0, len(engineIndex))
	for name := range engineIndex {
		names = append(names, name)
	}
	regMu.RUnlock()
	sort.Strings(names)
	return names
}
