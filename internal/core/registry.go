package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// KindInfo describes an import kind for templates and listings.
type KindInfo struct {
	Kind          ImportKind   `json:"kind"`
	Label         string       `json:"label"`
	Columns       []string     `json:"columns"`       // template column order
	Required      []string     `json:"required"`      // columns that must be non-empty
	Example       []string     `json:"example"`       // example row matching Columns
	Prerequisites []ImportKind `json:"prerequisites"` // kinds that must be imported first
}

// Deps is what a row processor may touch while creating its entity.
type Deps struct {
	Directory       Directory
	Identities      IdentityProvider
	DefaultPassword string
	Now             func() time.Time
}

// RowProcessor validates one record, resolves its references and creates the
// target entity. A nil return means the row was imported.
type RowProcessor func(ctx context.Context, deps Deps, rec Record) error

// KindDefinition contains everything needed to import one kind.
type KindDefinition struct {
	Info    KindInfo
	Process RowProcessor
}

var (
	registry   = make(map[ImportKind]KindDefinition)
	registryMu sync.RWMutex
)

// Register adds a kind definition to the registry.
// Panics if the kind is already registered.
func Register(def KindDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Kind]; exists {
		panic(fmt.Sprintf("import kind already registered: %s", def.Info.Kind))
	}
	if def.Process == nil {
		panic(fmt.Sprintf("import kind %s has no processor", def.Info.Kind))
	}

	registry[def.Info.Kind] = def
}

// Lookup returns the definition of a kind.
// Returns false if not found.
func Lookup(kind ImportKind) (KindDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns every registered definition in import dependency order.
func All() []KindDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]KindDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Info.Kind.rank() < result[j].Info.Kind.rank()
	})

	return result
}

// Clear removes all registered kinds.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[ImportKind]KindDefinition)
}
