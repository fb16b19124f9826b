package selection

import (
	"context"
	"errors"
	"sync"
)

// Binding mirrors a Store for a single consumer. It subscribes when created
// and stops following the store once closed.
type Binding struct {
	unsubscribe func()

	mu       sync.RWMutex
	selected *string
	loaded   bool
}

// Bind subscribes to store and loads it when it has not been loaded yet.
// On a load failure the subscription is released and the error returned.
func Bind(ctx context.Context, store *Store) (*Binding, error) {
	if store == nil {
		return nil, errors.New("selection: store must not be nil")
	}
	b := &Binding{}
	b.unsubscribe = store.Subscribe(b.apply)

	selected, loaded := store.Snapshot()
	if !loaded {
		if err := store.Load(ctx); err != nil {
			b.Close()
			return nil, err
		}
		return b, nil
	}
	b.apply(Event{Name: ChangedEvent, Selected: selected})
	return b, nil
}

// Current returns the mirrored selection and whether it has been loaded.
func (b *Binding) Current() (*string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return clone(b.selected), b.loaded
}

// Close releases the subscription. Safe to call more than once.
func (b *Binding) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
}

func (b *Binding) apply(ev Event) {
	b.mu.Lock()
	b.selected = clone(ev.Selected)
	b.loaded = true
	b.mu.Unlock()
}
