package module

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/usuarios/internal/service"
)

// Route types understood by the router.
const (
	RouteLiteral = "literal"
	RouteSegment = "segment"
)

var ErrInvalidConfig = errors.New("invalid module configuration")

// Config is the declarative part of a module: which controllers exist, where
// requests are routed and where view templates live.
type Config struct {
	Controllers ControllersConfig `yaml:"controllers"`
	Router      RouterConfig      `yaml:"router"`
	ViewManager ViewManagerConfig `yaml:"view_manager"`

	// Factories resolves the factory identifiers used in Controllers.Factories.
	Factories map[string]service.Factory `yaml:"-"`
}

type ControllersConfig struct {
	// Factories maps controller identifiers to factory identifiers.
	Factories map[string]string `yaml:"factories"`
}

type RouterConfig struct {
	Routes []Route `yaml:"routes"`
}

type Route struct {
	Name         string            `yaml:"name"`
	Type         string            `yaml:"type"`
	Route        string            `yaml:"route"`
	Constraints  map[string]string `yaml:"constraints,omitempty"`
	Defaults     RouteDefaults     `yaml:"defaults"`
	MayTerminate bool              `yaml:"may_terminate"`
	ChildRoutes  []Route           `yaml:"child_routes,omitempty"`
}

type RouteDefaults struct {
	Controller string `yaml:"controller"`
	Action     string `yaml:"action"`
}

type ViewManagerConfig struct {
	TemplatePathStack map[string]string `yaml:"template_path_stack"`
}

// Decode reads a YAML module config and validates its routes.
func Decode(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.validateRoutes(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks routes and that every controller factory identifier resolves.
func (c Config) Validate() error {
	if err := c.validateRoutes(); err != nil {
		return err
	}
	for controller, factory := range c.Controllers.Factories {
		if _, ok := c.Factories[factory]; !ok {
			return fmt.Errorf("%w: controller %q uses unknown factory %q", ErrInvalidConfig, controller, factory)
		}
	}
	return nil
}

func (c Config) validateRoutes() error {
	names := make(map[string]struct{})
	return validateRoutes(c.Router.Routes, "", RouteDefaults{}, names, c.Controllers.Factories)
}

// validateRoutes walks the route tree. Child routes inherit the controller and
// action of their parent when they do not set their own.
func validateRoutes(routes []Route, prefix string, inherited RouteDefaults, names map[string]struct{}, controllers map[string]string) error {
	for _, r := range routes {
		defaults := r.Defaults
		if defaults.Controller == "" {
			defaults.Controller = inherited.Controller
		}
		if defaults.Action == "" {
			defaults.Action = inherited.Action
		}

		full := r.Name
		if prefix != "" {
			full = prefix + "/" + r.Name
		}
		if r.Name == "" || strings.Contains(r.Name, "/") {
			return fmt.Errorf("%w: route name %q must be non-empty and contain no '/'", ErrInvalidConfig, full)
		}
		if _, dup := names[full]; dup {
			return fmt.Errorf("%w: duplicate route %q", ErrInvalidConfig, full)
		}
		names[full] = struct{}{}

		switch strings.ToLower(r.Type) {
		case RouteLiteral:
			if strings.ContainsAny(r.Route, ":{[") {
				return fmt.Errorf("%w: literal route %q has parameters", ErrInvalidConfig, full)
			}
		case RouteSegment:
			if strings.ContainsAny(r.Route, "{[") {
				return fmt.Errorf("%w: segment route %q must declare parameters as :name", ErrInvalidConfig, full)
			}
		default:
			return fmt.Errorf("%w: route %q has unknown type %q", ErrInvalidConfig, full, r.Type)
		}
		if !strings.HasPrefix(r.Route, "/") {
			return fmt.Errorf("%w: route %q path must start with '/'", ErrInvalidConfig, full)
		}
		if r.MayTerminate {
			if defaults.Controller == "" || defaults.Action == "" {
				return fmt.Errorf("%w: terminating route %q needs a controller and an action", ErrInvalidConfig, full)
			}
			if controllers != nil {
				if _, ok := controllers[defaults.Controller]; !ok {
					return fmt.Errorf("%w: route %q targets unregistered controller %q", ErrInvalidConfig, full, defaults.Controller)
				}
			}
		}
		if err := validateRoutes(r.ChildRoutes, full, defaults, names, controllers); err != nil {
			return err
		}
	}
	return nil
}

// Merge combines module configs; later modules override controllers and
// template paths, duplicate route names are rejected by Validate.
func Merge(configs ...Config) Config {
	var out Config
	out.Controllers.Factories = make(map[string]string)
	out.ViewManager.TemplatePathStack = make(map[string]string)
	out.Factories = make(map[string]service.Factory)
	for _, c := range configs {
		maps.Copy(out.Controllers.Factories, c.Controllers.Factories)
		maps.Copy(out.ViewManager.TemplatePathStack, c.ViewManager.TemplatePathStack)
		maps.Copy(out.Factories, c.Factories)
		out.Router.Routes = append(out.Router.Routes, c.Router.Routes...)
	}
	return out
}

// ControllerConfig turns the controller table into service manager config.
func (c Config) ControllerConfig() service.Config {
	factories := make(map[string]service.Factory, len(c.Controllers.Factories))
	for controller, factory := range c.Controllers.Factories {
		factories[controller] = c.Factories[factory]
	}
	return service.Config{Factories: factories}
}
