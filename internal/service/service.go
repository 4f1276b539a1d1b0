// Package service is the service manager: a registry resolving names to
// shared instances built lazily by factories.
package service

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"
)

var (
	ErrServiceNotFound   = errors.New("service not found")
	ErrServiceNotCreated = errors.New("service not created")
	ErrCyclicAlias       = errors.New("cyclic alias")
)

// Container resolves service names.
type Container interface {
	Get(name string) (any, error)
	Has(name string) bool
}

// Factory builds the service registered under requestedName. Options are only
// passed by Manager.Build.
type Factory func(c Container, requestedName string, options map[string]any) (any, error)

// Config seeds a Manager. Shared defaults to true for every service not listed.
type Config struct {
	Services  map[string]any
	Factories map[string]Factory
	Aliases   map[string]string
	Shared    map[string]bool
}

// Merge returns c overlaid with other; entries in other win.
func (c Config) Merge(other Config) Config {
	return Config{
		Services:  mergeMap(c.Services, other.Services),
		Factories: mergeMap(c.Factories, other.Factories),
		Aliases:   mergeMap(c.Aliases, other.Aliases),
		Shared:    mergeMap(c.Shared, other.Shared),
	}
}

func mergeMap[V any](a, b map[string]V) map[string]V {
	out := make(map[string]V, len(a)+len(b))
	maps.Copy(out, a)
	maps.Copy(out, b)
	return out
}

var _ Container = (*Manager)(nil)

type Manager struct {
	mu        sync.RWMutex
	services  map[string]any
	factories map[string]Factory
	aliases   map[string]string
	shared    map[string]bool
	parent    Container
}

// New builds a manager. When parent is non-nil, names unknown to the manager
// are looked up there and factories receive the manager itself as container.
func New(cfg Config, parent Container) *Manager {
	m := &Manager{
		services:  make(map[string]any),
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
		shared:    make(map[string]bool),
		parent:    parent,
	}
	maps.Copy(m.services, cfg.Services)
	maps.Copy(m.factories, cfg.Factories)
	maps.Copy(m.aliases, cfg.Aliases)
	maps.Copy(m.shared, cfg.Shared)
	return m
}

func (m *Manager) SetService(name string, service any) {
	m.mu.Lock()
	m.services[name] = service
	m.mu.Unlock()
}

func (m *Manager) SetFactory(name string, factory Factory) {
	m.mu.Lock()
	m.factories[name] = factory
	delete(m.services, name)
	m.mu.Unlock()
}

func (m *Manager) SetAlias(alias, target string) {
	m.mu.Lock()
	m.aliases[alias] = target
	m.mu.Unlock()
}

// Names lists every registered service, factory and alias name.
func (m *Manager) Names() []string {
	m.mu.RLock()
	set := make(map[string]struct{}, len(m.services)+len(m.factories)+len(m.aliases))
	for n := range m.services {
		set[n] = struct{}{}
	}
	for n := range m.factories {
		set[n] = struct{}{}
	}
	for n := range m.aliases {
		set[n] = struct{}{}
	}
	m.mu.RUnlock()

	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	resolved, err := m.resolveLocked(name)
	if err != nil {
		m.mu.RUnlock()
		return false
	}
	_, hasService := m.services[resolved]
	_, hasFactory := m.factories[resolved]
	m.mu.RUnlock()
	if hasService || hasFactory {
		return true
	}
	return m.parent != nil && m.parent.Has(resolved)
}

// Get returns the shared instance for name, creating it on first use.
func (m *Manager) Get(name string) (any, error) {
	m.mu.RLock()
	resolved, err := m.resolveLocked(name)
	if err != nil {
		m.mu.RUnlock()
		return nil, err
	}
	if svc, ok := m.services[resolved]; ok {
		m.mu.RUnlock()
		return svc, nil
	}
	factory, ok := m.factories[resolved]
	shared := m.isSharedLocked(resolved)
	m.mu.RUnlock()

	if !ok {
		if m.parent != nil {
			return m.parent.Get(resolved)
		}
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, name)
	}

	svc, err := m.create(factory, resolved, nil)
	if err != nil {
		return nil, err
	}
	if !shared {
		return svc, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.services[resolved]; ok {
		return existing, nil
	}
	m.services[resolved] = svc
	return svc, nil
}

// Build always invokes the factory and never caches the result.
func (m *Manager) Build(name string, options map[string]any) (any, error) {
	m.mu.RLock()
	resolved, err := m.resolveLocked(name)
	factory, ok := m.factories[resolved]
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: no factory for %q", ErrServiceNotFound, name)
	}
	return m.create(factory, resolved, options)
}

func (m *Manager) create(factory Factory, name string, options map[string]any) (any, error) {
	svc, err := factory(m, name, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrServiceNotCreated, name, err)
	}
	return svc, nil
}

func (m *Manager) isSharedLocked(name string) bool {
	shared, ok := m.shared[name]
	return !ok || shared
}

// resolveLocked follows aliases to their final target.
func (m *Manager) resolveLocked(name string) (string, error) {
	seen := map[string]struct{}{name: {}}
	for {
		target, ok := m.aliases[name]
		if !ok {
			return name, nil
		}
		if _, loop := seen[target]; loop {
			return "", fmt.Errorf("%w: %q", ErrCyclicAlias, target)
		}
		seen[target] = struct{}{}
		name = target
	}
}

// GetAs fetches name and asserts it to T.
func GetAs[T any](c Container, name string) (T, error) {
	var zero T
	svc, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, fmt.Errorf("service %q is %T, not %T", name, svc, zero)
	}
	return typed, nil
}

// Invokable wraps a zero-argument constructor as a Factory.
func Invokable[T any](ctor func() T) Factory {
	return func(Container, string, map[string]any) (any, error) {
		return ctor(), nil
	}
}
