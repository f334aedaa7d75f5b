// Package thresholds owns the user-configured alert thresholds. A single
// Store validates, persists, and broadcasts every change so status consumers
// never hold a stale classification.
package thresholds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/couchcryptid/river-height-service/internal/domain"
)

// Key is the namespaced persistence key for the thresholds JSON object.
const Key = "river-height.thresholds"

// Persister is a small key-value store for JSON blobs.
type Persister interface {
	// Load returns the stored value and true, or false when the key is absent.
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Listener is called with the new thresholds after every successful change.
type Listener func(domain.Thresholds)

// Store is the single owner of the current thresholds.
type Store struct {
	persister Persister
	logger    *slog.Logger

	mu      sync.RWMutex
	current domain.Thresholds

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// New creates a Store and loads the persisted thresholds. Missing, unreadable,
// or invalid data falls back to domain.DefaultThresholds.
func New(ctx context.Context, p Persister, logger *slog.Logger) *Store {
	s := &Store{
		persister: p,
		logger:    logger,
		current:   domain.DefaultThresholds,
		listeners: make(map[int]Listener),
	}
	if t, err := s.load(ctx); err == nil {
		s.current = t
	} else {
		s.logger.Warn("read thresholds failed, using defaults", "error", err)
	}
	return s
}

// load returns the persisted thresholds, or the defaults when the stored
// value is absent or unusable. Only a read failure is returned as an error.
func (s *Store) load(ctx context.Context) (domain.Thresholds, error) {
	raw, ok, err := s.persister.Load(ctx, Key)
	if err != nil {
		return domain.Thresholds{}, err
	}
	if !ok {
		return domain.DefaultThresholds, nil
	}

	var t domain.Thresholds
	if err := decodeStrict(raw, &t); err != nil {
		s.logger.Warn("stored thresholds unreadable, using defaults", "error", err)
		return domain.DefaultThresholds, nil
	}
	if err := t.Validate(); err != nil {
		s.logger.Warn("stored thresholds invalid, using defaults", "error", err)
		return domain.DefaultThresholds, nil
	}
	return t, nil
}

// decodeStrict requires all three fields to be present as numbers.
func decodeStrict(raw []byte, t *domain.Thresholds) error {
	var fields map[string]*float64
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for _, name := range []string{"warning", "alert", "critical"} {
		if fields[name] == nil {
			return fmt.Errorf("missing %s", name)
		}
	}
	t.Warning, t.Alert, t.Critical = *fields["warning"], *fields["alert"], *fields["critical"]
	return nil
}

// Get returns the current thresholds.
func (s *Store) Get() domain.Thresholds {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the persisted value, applying the same fallback rules as
// New. A failed read keeps the current value. Listeners are notified only
// when the value changed.
func (s *Store) Reload(ctx context.Context) domain.Thresholds {
	s.mu.Lock()
	t, err := s.load(ctx)
	if err != nil {
		t = s.current
		s.mu.Unlock()
		s.logger.Warn("reload thresholds failed, keeping current", "error", err)
		return t
	}
	changed := t != s.current
	s.current = t
	s.mu.Unlock()

	if changed {
		s.logger.Info("thresholds reloaded", "warning", t.Warning, "alert", t.Alert, "critical", t.Critical)
		s.notify(t)
	}
	return t
}

// Set validates t, persists it, swaps it in, and synchronously notifies all
// listeners. An invalid value returns an error wrapping
// domain.ErrInvalidThresholds and nothing is written. A persistence failure
// leaves the previous value in place.
func (s *Store) Set(ctx context.Context, t domain.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	s.mu.Lock()
	if err := s.persister.Save(ctx, Key, raw); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist thresholds: %w", err)
	}
	s.current = t
	s.mu.Unlock()

	s.logger.Info("thresholds updated", "warning", t.Warning, "alert", t.Alert, "critical", t.Critical)
	s.notify(t)
	return nil
}

// Reset writes and returns domain.DefaultThresholds.
func (s *Store) Reset(ctx context.Context) (domain.Thresholds, error) {
	if err := s.Set(ctx, domain.DefaultThresholds); err != nil {
		return s.Get(), err
	}
	return domain.DefaultThresholds, nil
}

// Classify maps height to a status using the current thresholds.
func (s *Store) Classify(height float64) domain.Status {
	return domain.Classify(height, s.Get())
}

// Subscribe registers fn for change notifications. Listeners run in
// subscription order on the goroutine that called Set. The returned func
// removes the listener.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) notify(t domain.Thresholds) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	fns := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.listeners[id])
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(t)
	}
}
