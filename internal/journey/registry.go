package journey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// ErrUnknownJourney is returned when an identifier has no registered journey.
var ErrUnknownJourney = errors.New("unknown journey")

// ErrDuplicateJourney is returned when a name is registered twice.
var ErrDuplicateJourney = errors.New("journey already registered")

// Factory creates a fresh Journey instance for one run.
type Factory func() Journey

// CanonicalName returns the form journey names are compared in: surrounding
// whitespace trimmed and NFC normalized, so visually identical names typed on
// different systems resolve to the same journey.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Registry maps canonical journey names to factories.
// Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under name's canonical form.
func (r *Registry) Register(name string, f Factory) error {
	canonical := CanonicalName(name)
	if canonical == "" {
		return fmt.Errorf("register journey: empty name")
	}
	if f == nil {
		return fmt.Errorf("register journey %q: nil factory", canonical)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[canonical]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJourney, canonical)
	}
	r.factories[canonical] = f
	return nil
}

// MustRegister is Register for package initialisation; it panics on error.
func (r *Registry) MustRegister(name string, f Factory) {
	if err := r.Register(name, f); err != nil {
		panic(err)
	}
}

// Resolve creates the journey registered under id.
// Returns the canonical name alongside the instance.
func (r *Registry) Resolve(id string) (string, Journey, error) {
	canonical := CanonicalName(id)

	r.mu.RLock()
	f, ok := r.factories[canonical]
	r.mu.RUnlock()
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownJourney, id)
	}

	j := f()
	if j == nil {
		return "", nil, fmt.Errorf("journey %q: factory returned nil", canonical)
	}
	return canonical, j, nil
}

// Names returns all registered canonical names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
