// Package filter holds value filters served by the filter plugin manager.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zeusync/usuarios/internal/service"
)

// Plugin names of the built-in filters.
const (
	NameStringTrim     = "stringtrim"
	NameStringToLower  = "stringtolower"
	NameStringToUpper  = "stringtoupper"
	ManagerServiceName = "FilterManager"
)

var ErrNotString = errors.New("value is not a string")

type Filter interface {
	Filter(value any) (any, error)
}

type Func func(value any) (any, error)

func (f Func) Filter(value any) (any, error) { return f(value) }

// Chain applies filters in order, feeding each result to the next.
type Chain []Filter

func (c Chain) Filter(value any) (any, error) {
	var err error
	for _, f := range c {
		if value, err = f.Filter(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}

func stringFilter(fn func(string) string) Func {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: got %T", ErrNotString, value)
		}
		return fn(s), nil
	}
}

var (
	StringTrim    = stringFilter(strings.TrimSpace)
	StringToLower = stringFilter(strings.ToLower)
	StringToUpper = stringFilter(strings.ToUpper)
)

// BuiltinConfig registers the built-in filters for a filter plugin manager.
func BuiltinConfig() service.Config {
	return service.Config{
		Services: map[string]any{
			NameStringTrim:    StringTrim,
			NameStringToLower: StringToLower,
			NameStringToUpper: StringToUpper,
		},
	}
}

// ChainFactory builds a Chain out of other filters of the same manager.
func ChainFactory(names ...string) service.Factory {
	return func(c service.Container, _ string, _ map[string]any) (any, error) {
		chain := make(Chain, 0, len(names))
		for _, name := range names {
			f, err := service.GetAs[Filter](c, name)
			if err != nil {
				return nil, err
			}
			chain = append(chain, f)
		}
		return chain, nil
	}
}

// Apply fetches a filter from the manager and runs it.
func Apply(filters service.Container, name string, value any) (any, error) {
	f, err := service.GetAs[Filter](filters, name)
	if err != nil {
		return nil, err
	}
	return f.Filter(value)
}
