package store

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// AdapterFactory builds an unconnected adapter.
type AdapterFactory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]AdapterFactory)
)

// Register makes an adapter available under name, compared
// case-insensitively. Adapter packages call it from init. Registering a name
// twice panics.
func Register(name string, factory AdapterFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	key := strings.ToLower(name)
	if _, dup := registry[key]; dup {
		panic("store: Register called twice for adapter " + name)
	}
	registry[key] = factory
}

// Lookup returns the factory registered under name, or an
// *UnknownAdapterError.
func Lookup(name string) (AdapterFactory, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownAdapterError{Type: name, Available: ListAdapters()}
	}
	return factory, nil
}

// NewAdapter creates an unconnected adapter for cfg.Type.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	factory, err := Lookup(cfg.Type)
	if err != nil {
		return nil, err
	}
	return factory(logger), nil
}

// ListAdapters returns the registered adapter names, sorted.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// UnknownAdapterError reports a target type no adapter is registered for.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown target type %q (available: %s); set target.type in snfsearch.yaml",
		e.Type, strings.Join(e.Available, ", "))
}
