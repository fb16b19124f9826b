// Package selection keeps an operator's currently selected bot and broadcasts
// changes to everything bound to it.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	// StorageKey is the persisted key holding the selected bot identifier.
	StorageKey = "selectedBot"
	// ChangedEvent names the change broadcast delivered to subscribers.
	ChangedEvent = "botSelectionChanged"

	nullSentinel = "null"
)

// Persister is the durable key/value backing of a Store.
type Persister interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Event is delivered to subscribers after every load and change.
type Event struct {
	Name     string
	Selected *string
}

// Store holds one operator's selected bot identifier. Loads and changes are
// applied one at a time, so memory and subscribers always see writes in the
// order they reached the persister. Listeners must not call Load or Set.
type Store struct {
	persist Persister

	// writeMu serializes persist, state update and broadcast.
	writeMu sync.Mutex

	mu       sync.RWMutex
	selected *string
	loaded   bool
	nextID   int
	subs     map[int]func(Event)
}

// NewStore creates a Store backed by p. The store is not loaded until Load
// is called.
func NewStore(p Persister) (*Store, error) {
	if p == nil {
		return nil, errors.New("selection: persister must not be nil")
	}
	return &Store{persist: p, subs: make(map[int]func(Event))}, nil
}

// Load reads the persisted value into memory. "null" and empty values load
// as no selection.
func (s *Store) Load(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	raw, ok, err := s.persist.Get(ctx, StorageKey)
	if err != nil {
		return fmt.Errorf("selection: load: %w", err)
	}
	var selected *string
	if ok {
		selected = decode(raw)
	}

	s.mu.Lock()
	s.selected = selected
	s.loaded = true
	s.mu.Unlock()

	s.broadcast(Event{Name: ChangedEvent, Selected: clone(selected)})
	return nil
}

// Set persists botID as the selection and notifies subscribers before
// returning. A nil or blank botID clears the selection.
func (s *Store) Set(ctx context.Context, botID *string) error {
	selected := normalize(botID)

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist.Put(ctx, StorageKey, encode(selected)); err != nil {
		return fmt.Errorf("selection: set: %w", err)
	}

	s.mu.Lock()
	s.selected = selected
	s.loaded = true
	s.mu.Unlock()

	s.broadcast(Event{Name: ChangedEvent, Selected: clone(selected)})
	return nil
}

// Snapshot returns the in-memory selection and whether it has been loaded.
func (s *Store) Snapshot() (*string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.selected), s.loaded
}

// Subscribe registers fn for change events. The returned function removes
// the subscription and may be called more than once.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// broadcast runs listeners outside the lock so they may read the store.
func (s *Store) broadcast(ev Event) {
	s.mu.RLock()
	listeners := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func decode(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == nullSentinel {
		return nil
	}
	return &raw
}

func encode(selected *string) string {
	if selected == nil {
		return nullSentinel
	}
	return *selected
}

func normalize(botID *string) *string {
	if botID == nil {
		return nil
	}
	return decode(*botID)
}

func clone(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
