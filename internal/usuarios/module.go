// Package usuarios is the usuarios application module.
package usuarios

import (
	"bytes"
	_ "embed"

	"github.com/zeusync/usuarios/internal/filter"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/service"
)

const (
	ControllerName        = "usuarios.controller.usuarios"
	ControllerFactoryName = "usuarios.controller_factory"
	// EmailFilterName normalizes e-mail addresses before lookups.
	EmailFilterName = "usuarios.email"
)

//go:embed config/module.config.yaml
var moduleConfig []byte

var (
	_ module.ConfigProvider = Module{}
	_ module.FilterProvider = Module{}
)

type Module struct{}

func (Module) Config() (module.Config, error) {
	c, err := module.Decode(bytes.NewReader(moduleConfig))
	if err != nil {
		return module.Config{}, err
	}
	c.Factories = map[string]service.Factory{
		ControllerFactoryName: ControllerFactory,
	}
	return c, nil
}

func (Module) FilterConfig() service.Config {
	return service.Config{
		Factories: map[string]service.Factory{
			EmailFilterName: filter.ChainFactory(filter.NameStringTrim, filter.NameStringToLower),
		},
	}
}
