package log

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WriterFactory builds a Writer from the options of one configured writer entry.
type WriterFactory func(options map[string]any) (Writer, error)

// Writers maps writer type names (mongo, opensearch, stream) to the factories
// able to build them.
type Writers struct {
	mu        sync.RWMutex
	factories map[string]WriterFactory
}

func NewWriters() *Writers {
	return &Writers{factories: make(map[string]WriterFactory)}
}

func (w *Writers) Register(name string, factory WriterFactory) {
	w.mu.Lock()
	w.factories[strings.ToLower(name)] = factory
	w.mu.Unlock()
}

func (w *Writers) Has(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.factories[strings.ToLower(name)]
	return ok
}

func (w *Writers) Names() []string {
	w.mu.RLock()
	names := make([]string, 0, len(w.factories))
	for name := range w.factories {
		names = append(names, name)
	}
	w.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Build fails with ErrExtensionNotLoaded when no driver is registered for name.
func (w *Writers) Build(name string, options map[string]any) (Writer, error) {
	w.mu.RLock()
	factory, ok := w.factories[strings.ToLower(name)]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no driver registered for writer %q", ErrExtensionNotLoaded, name)
	}
	writer, err := factory(options)
	if err != nil {
		return nil, fmt.Errorf("build %s writer: %w", name, err)
	}
	return writer, nil
}

// OptionString reads a string option; missing or non-string values yield "".
func OptionString(options map[string]any, key string) string {
	if v, ok := options[key].(string); ok {
		return v
	}
	return ""
}

// OptionMap reads a nested mapping option.
func OptionMap(options map[string]any, key string) map[string]any {
	switch v := options[key].(type) {
	case map[string]any:
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out
	default:
		return nil
	}
}
