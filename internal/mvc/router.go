package mvc

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zeusync/usuarios/internal/module"
)

// router matches requests against module routes mounted on a gorilla/mux router.
type router struct {
	mux      *mux.Router
	defaults map[string]module.RouteDefaults
}

func newRouter(routes []module.Route) (*router, error) {
	r := &router{
		mux:      mux.NewRouter(),
		defaults: make(map[string]module.RouteDefaults),
	}
	if err := r.add(routes, "", "", module.RouteDefaults{}); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *router) add(routes []module.Route, namePrefix, pathPrefix string, inherited module.RouteDefaults) error {
	for _, route := range routes {
		name := route.Name
		if namePrefix != "" {
			name = namePrefix + "/" + route.Name
		}
		path, err := muxPath(route)
		if err != nil {
			return fmt.Errorf("route %q: %w", name, err)
		}
		path = pathPrefix + path

		defaults := route.Defaults
		if defaults.Controller == "" {
			defaults.Controller = inherited.Controller
		}
		if defaults.Action == "" {
			defaults.Action = inherited.Action
		}

		if route.MayTerminate {
			r.mux.NewRoute().Name(name).Path(path)
			r.defaults[name] = defaults
		}
		if err := r.add(route.ChildRoutes, name, path, defaults); err != nil {
			return err
		}
	}
	return nil
}

// muxPath translates ":param" segments to mux "{param}" or "{param:constraint}".
func muxPath(route module.Route) (string, error) {
	if strings.EqualFold(route.Type, module.RouteLiteral) {
		return route.Route, nil
	}
	parts := strings.Split(route.Route, "/")
	for i, part := range parts {
		if !strings.HasPrefix(part, ":") {
			continue
		}
		param := part[1:]
		if param == "" {
			return "", fmt.Errorf("empty parameter name in %q", route.Route)
		}
		if c, ok := route.Constraints[param]; ok && c != "" {
			parts[i] = "{" + param + ":" + c + "}"
		} else {
			parts[i] = "{" + param + "}"
		}
	}
	return strings.Join(parts, "/"), nil
}

func (r *router) match(req *http.Request) (*RouteMatch, error) {
	var m mux.RouteMatch
	if !r.mux.Match(req, &m) || m.Route == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrRouteNotFound, req.Method, req.URL.Path)
	}
	name := m.Route.GetName()
	d := r.defaults[name]
	return &RouteMatch{
		Name:       name,
		Controller: d.Controller,
		Action:     d.Action,
		Params:     m.Vars,
	}, nil
}
