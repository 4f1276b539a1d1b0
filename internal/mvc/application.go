package mvc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/core/observability/log"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/service"
)

const target = "mvc.Application"

// Application routes a request, dispatches it to a controller and renders the
// result as JSON, firing the lifecycle events on a bus created per request.
type Application struct {
	router      *router
	controllers service.Container
	listeners   []ListenerAggregate
	logger      log.Log
}

// NewApplication mounts the merged module routes. Listeners are attached to
// every request bus after the application's own route and dispatch handlers.
func NewApplication(routes []module.Route, controllers service.Container, logger log.Log, listeners ...ListenerAggregate) (*Application, error) {
	r, err := newRouter(routes)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Application{
		router:      r,
		controllers: controllers,
		listeners:   listeners,
		logger:      logger,
	}, nil
}

func (a *Application) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	e := &Event{Request: req, Start: time.Now(), Status: http.StatusOK}

	b := bus.New()
	if err := a.attach(b, e); err != nil {
		a.logger.Error("attach listeners", log.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	a.trigger(b, EventBootstrap, e)
	a.trigger(b, EventRoute, e)
	if e.Err == nil {
		a.trigger(b, EventDispatch, e)
	}
	if e.Err != nil {
		e.Status = StatusOf(e.Err)
		a.trigger(b, EventDispatchError, e)
	}
	a.trigger(b, EventRender, e)
	a.render(w, e)
	a.trigger(b, EventFinish, e)
}

func (a *Application) attach(b bus.EventBus, e *Event) error {
	if err := b.CreateTopic(Topic); err != nil {
		return err
	}
	if _, err := b.SubscribeTopic(Topic, EventRoute, func(bus.Event) error {
		e.Route, e.Err = a.router.match(e.Request)
		return nil
	}); err != nil {
		return err
	}
	if _, err := b.SubscribeTopic(Topic, EventDispatch, func(bus.Event) error {
		e.Result, e.Err = a.dispatch(e)
		return nil
	}); err != nil {
		return err
	}
	for _, l := range a.listeners {
		if err := l.Attach(b); err != nil {
			return fmt.Errorf("attach %T: %w", l, err)
		}
	}
	return nil
}

func (a *Application) dispatch(e *Event) (any, error) {
	ctrl, err := service.GetAs[Controller](a.controllers, e.Route.Controller)
	if err != nil {
		if !a.controllers.Has(e.Route.Controller) {
			return nil, fmt.Errorf("%w: %q", ErrControllerNotFound, e.Route.Controller)
		}
		return nil, err
	}
	action, ok := ctrl.Action(e.Route.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrActionNotFound, e.Route.Controller, e.Route.Action)
	}
	return action(e)
}

// trigger publishes name with e attached; listener errors are logged and do
// not stop the lifecycle.
func (a *Application) trigger(b bus.EventBus, name string, e *Event) {
	ev := bus.NewEventSkip(1, name, target, map[string]any{ParamEvent: e})
	if err := b.PublishToTopic(Topic, ev); err != nil {
		a.logger.Warn("lifecycle listener failed", log.String("event", name), log.Error(err))
	}
}

func (a *Application) render(w http.ResponseWriter, e *Event) {
	var body any
	if e.Err != nil {
		body = map[string]string{"error": e.Err.Error()}
		if e.Status < http.StatusBadRequest {
			e.Status = StatusOf(e.Err)
		}
	} else {
		body = e.Result
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.logger.Error("render response", log.Error(err))
	}
}
