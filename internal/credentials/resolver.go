package credentials

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/logger"
	"github.com/bjpl/describe-it-sub001/internal/models"
	"github.com/bjpl/describe-it-sub001/internal/validation"

	"go.uber.org/zap"
)

// Listener receives the changed credential values after a re-resolution.
// The map contains only the services whose resolved value actually changed.
type Listener func(changed map[string]string)

// Resolver resolves, validates, and hot-updates per-service credentials
// from ranked sources: explicit override, user settings, then environment.
// Records are replaced wholesale under the lock; readers never observe a
// partially updated record.
type Resolver struct {
	mu        sync.RWMutex
	records   map[string]models.CredentialRecord
	overrides map[string]string
	listeners []listenerEntry
	nextID    int

	settings      SettingsSource
	unsubSettings func()
	validator     *validation.Validator
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewResolver creates a resolver tracking every registered service. When a
// settings source is supplied, the resolver subscribes to its change events
// and re-resolves on every change. Pass nil to resolve from environment
// variables only.
func NewResolver(settings SettingsSource) *Resolver {
	r := &Resolver{
		records:   make(map[string]models.CredentialRecord),
		overrides: make(map[string]string),
		settings:  settings,
		validator: validation.NewValidator(),
	}

	for _, serviceID := range ServiceIDs() {
		r.records[serviceID] = r.resolveRecord(serviceID)
	}

	if settings != nil {
		r.unsubSettings = settings.Subscribe(func() {
			r.reResolve("settings change")
		})
	}

	return r
}

// Close detaches the resolver from its settings source
func (r *Resolver) Close() {
	if r.unsubSettings != nil {
		r.unsubSettings()
		r.unsubSettings = nil
	}
}

// Resolve recomputes and caches the credential record for one service.
// Missing credentials are not an error: the returned record carries
// IsValid=false and SourceNone. Unknown service ids panic.
func (r *Resolver) Resolve(serviceID string) models.CredentialRecord {
	record := r.resolveRecord(serviceID)

	r.mu.Lock()
	r.records[serviceID] = record
	r.mu.Unlock()

	return record
}

// GetConfig returns the cached resolution for a service, including source
// and validity. It performs no I/O beyond the cheap source lookups already
// done at resolution time.
func (r *Resolver) GetConfig(serviceID string) models.CredentialRecord {
	lookupService(serviceID) // precondition: known service

	r.mu.RLock()
	record, ok := r.records[serviceID]
	r.mu.RUnlock()
	if ok {
		return record
	}

	return r.Resolve(serviceID)
}

// Validate applies the service's structural pattern to a candidate value.
// Pure and side-effect-free.
func (r *Resolver) Validate(serviceID, value string) bool {
	svc := lookupService(serviceID)
	return r.validator.IsValidCredential(value, svc.Rule)
}

// SetOverride installs an explicit credential override for a service, the
// highest-priority source, and re-resolves.
func (r *Resolver) SetOverride(serviceID, value string) {
	lookupService(serviceID)

	r.mu.Lock()
	if strings.TrimSpace(value) == "" {
		delete(r.overrides, serviceID)
	} else {
		r.overrides[serviceID] = value
	}
	r.mu.Unlock()

	r.reResolve("override change")
}

// Subscribe registers a credential-change listener and returns an
// unsubscribe function. Listeners are invoked in subscription order, each
// exactly once per change event, and only for events where at least one
// resolved value changed.
func (r *Resolver) Subscribe(listener Listener) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.listeners = append(r.listeners, listenerEntry{id: id, fn: listener})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, entry := range r.listeners {
			if entry.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Refresh forces a full re-resolution of every tracked service. Used when
// an external system reports a stale or rejected credential.
func (r *Resolver) Refresh() {
	r.reResolve("refresh")
}

// reResolve recomputes all tracked services and notifies listeners with the
// services whose resolved value changed. No notification fires when every
// value resolved to the same thing it already was.
func (r *Resolver) reResolve(reason string) {
	changed := make(map[string]string)

	r.mu.Lock()
	for _, serviceID := range ServiceIDs() {
		record := r.resolveRecordLocked(serviceID)
		if prev, ok := r.records[serviceID]; !ok || prev.Value != record.Value {
			changed[serviceID] = record.Value
		}
		r.records[serviceID] = record
	}
	listeners := make([]listenerEntry, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	if len(changed) == 0 {
		logger.GetLogger().Debug("Credential re-resolution found no changes",
			zap.String("reason", reason))
		return
	}

	serviceIDs := make([]string, 0, len(changed))
	for id := range changed {
		serviceIDs = append(serviceIDs, id)
	}
	logger.GetLogger().Info("Credentials changed",
		zap.String("reason", reason),
		zap.Strings("services", serviceIDs))

	for _, entry := range listeners {
		r.notify(entry, changed)
	}
}

// notify invokes one listener, isolating a panic so a failing listener
// cannot prevent the others from running.
func (r *Resolver) notify(entry listenerEntry, changed map[string]string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.GetLogger().Error("Credential listener panicked",
				zap.Int("listener_id", entry.id),
				zap.Any("panic", rec))
		}
	}()
	entry.fn(changed)
}

// resolveRecord resolves one service with the lock taken for the override
// and settings reads.
func (r *Resolver) resolveRecord(serviceID string) models.CredentialRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveRecordLocked(serviceID)
}

// resolveRecordLocked applies the source priority order: explicit override,
// user settings, environment, none. The first non-empty value after
// trimming whitespace wins; sources are never merged.
func (r *Resolver) resolveRecordLocked(serviceID string) models.CredentialRecord {
	svc := lookupService(serviceID)

	value, source := "", models.SourceNone

	if v := strings.TrimSpace(r.overrides[serviceID]); v != "" {
		value, source = v, models.SourceExplicit
	} else if r.settings != nil {
		if v := strings.TrimSpace(r.settings.CurrentCredentials()[serviceID]); v != "" {
			value, source = v, models.SourceUserSettings
		}
	}

	if value == "" {
		for _, envVar := range svc.EnvVars {
			if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
				value, source = v, models.SourceEnvironment
				break
			}
		}
	}

	record := models.CredentialRecord{
		ServiceID:   serviceID,
		Value:       value,
		Source:      source,
		ValidatedAt: time.Now(),
		IsValid:     source != models.SourceNone && r.validator.IsValidCredential(value, svc.Rule),
	}

	if value != "" && !record.IsValid {
		logger.GetLogger().Warn("Credential failed structural validation",
			zap.String("service", serviceID),
			zap.String("source", string(source)))
	}

	return record
}
