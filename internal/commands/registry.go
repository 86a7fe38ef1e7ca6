package commands

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Command
	aliases map[string]string // alias -> primary name
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:  make(map[string]Command),
		aliases: make(map[string]string),
	}
}

// Register adds c. A name or alias may only be claimed once.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if name == "" {
		return fmt.Errorf("command has no name: %T", c)
	}
	for _, k := range append([]string{name}, c.Aliases()...) {
		if r.taken(k) {
			return fmt.Errorf("command already registered: %s", k)
		}
	}
	r.byName[name] = c
	for _, a := range c.Aliases() {
		r.aliases[a] = name
	}
	return nil
}

func (r *Registry) taken(k string) bool {
	_, cmd := r.byName[k]
	_, alias := r.aliases[k]
	return cmd || alias
}

// Find resolves a name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if primary, ok := r.aliases[name]; ok {
		name = primary
	}
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns the registered commands ordered by name.
func (r *Registry) All() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Command, 0, len(r.byName))
	for _, name := range slices.Sorted(maps.Keys(r.byName)) {
		result = append(result, r.byName[name])
	}
	return result
}

// DefaultRegistry holds the commands registered from init.
var DefaultRegistry = NewRegistry()

// Register adds c to DefaultRegistry and panics on a clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
