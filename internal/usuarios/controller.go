package usuarios

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/zeusync/usuarios/internal/filter"
	"github.com/zeusync/usuarios/internal/mvc"
	"github.com/zeusync/usuarios/internal/orm"
	"github.com/zeusync/usuarios/internal/service"
)

// Controller serves the usuarios routes.
type Controller struct {
	repo    *Repository
	filters service.Container
}

func NewController(repo *Repository, filters service.Container) *Controller {
	return &Controller{repo: repo, filters: filters}
}

// ControllerFactory resolves the entity manager through its legacy alias and
// the filter plugin manager from the application services.
func ControllerFactory(c service.Container, _ string, _ map[string]any) (any, error) {
	em, err := service.GetAs[*orm.EntityManager](c, orm.AliasServiceName)
	if err != nil {
		return nil, err
	}
	filters, err := service.GetAs[service.Container](c, filter.ManagerServiceName)
	if err != nil {
		return nil, err
	}
	return NewController(NewRepository(em), filters), nil
}

func (c *Controller) Action(name string) (mvc.Action, bool) {
	switch name {
	case "index":
		return c.index, true
	case "view":
		return c.view, true
	}
	return nil, false
}

// index lists usuarios, or looks one up when ?email= is given.
func (c *Controller) index(e *mvc.Event) (any, error) {
	ctx := e.Request.Context()
	raw := e.Request.URL.Query().Get("email")
	if raw == "" {
		return c.repo.FindAll(ctx)
	}

	v, err := filter.Apply(c.filters, EmailFilterName, raw)
	if err != nil {
		return nil, mvc.NewStatusError(http.StatusBadRequest, err)
	}
	u, err := c.repo.FindByEmail(ctx, v.(string))
	if err != nil {
		return nil, notFound(err)
	}
	return []Usuario{u}, nil
}

func (c *Controller) view(e *mvc.Event) (any, error) {
	id, err := strconv.ParseInt(e.Route.Param("id"), 10, 64)
	if err != nil {
		return nil, mvc.NewStatusError(http.StatusBadRequest, fmt.Errorf("invalid id %q", e.Route.Param("id")))
	}
	u, err := c.repo.Find(e.Request.Context(), id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func notFound(err error) error {
	if errors.Is(err, ErrUsuarioNotFound) {
		return mvc.NewStatusError(http.StatusNotFound, err)
	}
	return err
}
