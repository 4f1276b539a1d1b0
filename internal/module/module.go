// Package module defines module capabilities and merges the modules of an application.
package module

import (
	"fmt"

	"github.com/zeusync/usuarios/internal/filter"
	"github.com/zeusync/usuarios/internal/service"
)

// ConfigProvider modules contribute routes, controllers and view paths.
type ConfigProvider interface {
	Config() (Config, error)
}

// FilterProvider modules can supply filter configuration to seed the filter
// plugin manager.
type FilterProvider interface {
	FilterConfig() service.Config
}

// ServiceProvider modules contribute application services.
type ServiceProvider interface {
	ServiceConfig() service.Config
}

// Manager holds the merged state of every loaded module.
type Manager struct {
	config        Config
	services      *service.Manager
	filters       *service.Manager
	controllers   *service.Manager
	filterSources int
}

// Load merges the modules in order. Modules may implement any subset of the
// provider interfaces. base seeds the application service manager.
func Load(base service.Config, modules ...any) (*Manager, error) {
	var (
		configs   []Config
		filterCfg = filter.BuiltinConfig()
		sources   int
	)
	for i, m := range modules {
		if p, ok := m.(ConfigProvider); ok {
			c, err := p.Config()
			if err != nil {
				return nil, fmt.Errorf("module %d (%T) config: %w", i, m, err)
			}
			configs = append(configs, c)
		}
		if p, ok := m.(FilterProvider); ok {
			filterCfg = filterCfg.Merge(p.FilterConfig())
			sources++
		}
		if p, ok := m.(ServiceProvider); ok {
			base = base.Merge(p.ServiceConfig())
		}
	}

	merged := Merge(configs...)
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	services := service.New(base, nil)
	filters := service.New(filterCfg, services)
	services.SetService(filter.ManagerServiceName, filters)
	controllers := service.New(merged.ControllerConfig(), services)

	return &Manager{
		config:        merged,
		services:      services,
		filters:       filters,
		controllers:   controllers,
		filterSources: sources,
	}, nil
}

func (m *Manager) Config() Config                { return m.config }
func (m *Manager) Services() *service.Manager    { return m.services }
func (m *Manager) Filters() *service.Manager     { return m.filters }
func (m *Manager) Controllers() *service.Manager { return m.controllers }

// FilterSources is the number of modules that provided filter configuration.
func (m *Manager) FilterSources() int { return m.filterSources }
