package credentials

import (
	"sync"
)

// SettingsSource is the user-configuration credential source. It is
// implemented by the surrounding application (settings store, admin UI);
// the resolver only reads the current map and subscribes to change events.
type SettingsSource interface {
	// CurrentCredentials returns the current user-configured credential
	// values keyed by service id. Missing services are simply absent.
	CurrentCredentials() map[string]string

	// Subscribe registers a change callback and returns an unsubscribe
	// function. The callback carries no payload; subscribers re-read
	// CurrentCredentials.
	Subscribe(onChange func()) (unsubscribe func())
}

// StaticSettings is an in-memory SettingsSource. The CLI uses it when no
// settings store is wired; tests use it to drive change notifications.
type StaticSettings struct {
	mu        sync.RWMutex
	values    map[string]string
	listeners map[int]func()
	nextID    int
}

// NewStaticSettings creates a settings source seeded with the given values
func NewStaticSettings(values map[string]string) *StaticSettings {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &StaticSettings{
		values:    copied,
		listeners: make(map[int]func()),
	}
}

// CurrentCredentials returns a copy of the current values
func (s *StaticSettings) CurrentCredentials() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make(map[string]string, len(s.values))
	for k, v := range s.values {
		copied[k] = v
	}
	return copied
}

// Subscribe registers a change callback
func (s *StaticSettings) Subscribe(onChange func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = onChange
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Set updates one credential value and notifies subscribers
func (s *StaticSettings) Set(serviceID, value string) {
	s.mu.Lock()
	s.values[serviceID] = value
	callbacks := make([]func(), 0, len(s.listeners))
	for _, cb := range s.listeners {
		callbacks = append(callbacks, cb)
	}
	s.mu.Unlock()

	// Callbacks run outside the lock so subscribers may re-read settings.
	for _, cb := range callbacks {
		cb()
	}
}
