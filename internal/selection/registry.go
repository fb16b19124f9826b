package selection

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// PersisterFunc returns the persister for a single operator.
type PersisterFunc func(operatorID string) Persister

// Registry lazily opens one bound Store per operator and keeps it for the
// lifetime of the process. Every Open after the first reloads the store, so
// writes made by other processes sharing the persister are picked up.
type Registry struct {
	persisterFor PersisterFunc

	mu      sync.Mutex
	entries map[string]*entry
}

// entry is locked on its own so one operator's load never waits on another's.
type entry struct {
	mu      sync.Mutex
	store   *Store
	binding *Binding
}

func NewRegistry(persisterFor PersisterFunc) (*Registry, error) {
	if persisterFor == nil {
		return nil, errors.New("selection: persister func must not be nil")
	}
	return &Registry{persisterFor: persisterFor, entries: make(map[string]*entry)}, nil
}

// Open returns the operator's store and its binding with the store freshly
// loaded from the persister. Failed first loads are not cached.
func (r *Registry) Open(ctx context.Context, operatorID string) (*Store, *Binding, error) {
	operatorID = strings.TrimSpace(operatorID)
	if operatorID == "" {
		return nil, nil, errors.New("selection: operator id must not be empty")
	}

	r.mu.Lock()
	e, ok := r.entries[operatorID]
	if !ok {
		e = &entry{}
		r.entries[operatorID] = e
	}
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.store != nil {
		if err := e.store.Load(ctx); err != nil {
			return nil, nil, err
		}
		return e.store, e.binding, nil
	}

	store, err := NewStore(r.persisterFor(operatorID))
	if err != nil {
		return nil, nil, err
	}
	binding, err := Bind(ctx, store)
	if err != nil {
		return nil, nil, err
	}
	e.store, e.binding = store, binding
	return store, binding, nil
}

// Close releases every binding held by the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if e.binding != nil {
			e.binding.Close()
		}
		e.mu.Unlock()
	}
}
