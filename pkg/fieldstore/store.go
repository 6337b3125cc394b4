// Package fieldstore holds the latest generated value of every field.
//
// The store keeps two maps: display values keyed by display name (text key, or
// "H0x<id>" for hex fields) and hex wire values keyed by hex field id. Every
// write is published on the bus, which makes Put and PutHex the only write path
// for generated values.
package fieldstore

import (
	"maps"
	"sync"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/domain"
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	display map[string]domain.Value
	hex     map[uint16]string
	bus     *bus.Bus
}

// New creates an empty store publishing on b. A nil bus disables notifications.
func New(b *bus.Bus) *Store {
	return &Store{
		display: make(map[string]domain.Value),
		hex:     make(map[uint16]string),
		bus:     b,
	}
}

// Put records the display value of key.
func (s *Store) Put(key domain.FieldKey, v domain.Value) {
	name := key.DisplayName()
	s.mu.Lock()
	old := s.display[name]
	s.display[name] = v
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(bus.Event{Topic: bus.TopicFieldUpdate, Key: key, Value: v, Old: old})
	}
}

// PutHex records the wire value of a hex field.
func (s *Store) PutHex(id uint16, value string) {
	s.mu.Lock()
	old := s.hex[id]
	s.hex[id] = value
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(bus.Event{Topic: bus.TopicHexUpdate, Key: domain.HexKey(id), Hex: value, OldHex: old})
	}
}

// Get returns the display value stored under name.
func (s *Store) Get(name string) (domain.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.display[name]
	return v, ok
}

// GetHex returns the wire value of a hex field.
func (s *Store) GetHex(id uint16) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.hex[id]
	return v, ok
}

// Lookup implements expression identifier resolution over display values.
func (s *Store) Lookup(name string) (domain.Value, bool) {
	v, ok := s.Get(name)
	if !ok || v.IsNone() {
		return domain.None(), false
	}
	return v, true
}

// Snapshot copies the display map.
func (s *Store) Snapshot() map[string]domain.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.display)
}

// HexSnapshot copies the hex map.
func (s *Store) HexSnapshot() map[uint16]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.hex)
}
