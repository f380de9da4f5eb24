// Package catalog implements the item demo service: an in-memory item
// list behind a small HTTP API, bootstrapped through the telemetry
// pipeline like any real service would be.
package catalog

import (
	"sync"

	"github.com/google/uuid"
)

// Item is a catalog entry.
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Store is an in-memory, insertion-ordered item list. It is the only
// shared mutable state in the service and guards itself for concurrent
// request handling.
type Store struct {
	mu    sync.RWMutex
	items []Item
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Add appends a new item with an auto-assigned identifier and returns it.
func (s *Store) Add(name string) Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{ID: uuid.NewString(), Name: name}
	s.items = append(s.items, item)
	return item
}

// List returns all items in insertion order.
func (s *Store) List() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}
