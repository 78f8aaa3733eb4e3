package indicator

import (
	"strings"
	"sync"
)

// Kind describes one indicator type a Facet can construct.
type Kind struct {
	Name  string // e.g. "SimpleMovingAverage", the facet entry key
	Short string // e.g. "SMA", the default-name prefix and spec tag
	New   func(p Params) (Indicator, error)
}

var (
	registryMu sync.RWMutex
	registry   []Kind
)

// Register appends k to the process-wide kind list. Kinds are normally
// registered from init functions. Duplicates are not rejected; a facet built
// afterwards binds the later one.
func Register(k Kind) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, k)
}

// Kinds returns the registered kinds in registration order.
func Kinds() []Kind {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]Kind, len(registry))
	copy(out, registry)
	return out
}

// LookupKind finds a kind by full name or (case-insensitive) short tag.
// The most recently registered match wins.
func LookupKind(name string) (Kind, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	for i := len(registry) - 1; i >= 0; i-- {
		k := registry[i]
		if k.Name == name || strings.EqualFold(k.Short, name) {
			return k, true
		}
	}
	return Kind{}, false
}
