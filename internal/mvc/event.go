// Package mvc dispatches HTTP requests to module controllers through a
// sequence of lifecycle events fired on a per-request event bus.
package mvc

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zeusync/usuarios/internal/core/events/bus"
)

// Topic carries every lifecycle event of the application.
const Topic = "application"

// Lifecycle events in firing order. EventDispatchError replaces nothing; it is
// fired in addition when routing or dispatching failed.
const (
	EventBootstrap     = "bootstrap"
	EventRoute         = "route"
	EventDispatch      = "dispatch"
	EventDispatchError = "dispatch.error"
	EventRender        = "render"
	EventFinish        = "finish"
)

// ParamEvent is the bus event parameter holding the *Event.
const ParamEvent = "mvc"

var (
	ErrRouteNotFound      = errors.New("route not found")
	ErrControllerNotFound = errors.New("controller not found")
	ErrActionNotFound     = errors.New("action not found")
)

// Event is the mutable state of one request as it moves through the lifecycle.
type Event struct {
	Request *http.Request
	Route   *RouteMatch
	Start   time.Time

	Status int
	Result any
	Err    error
}

// RouteMatch is the outcome of routing.
type RouteMatch struct {
	Name       string
	Controller string
	Action     string
	Params     map[string]string
}

func (m *RouteMatch) Param(name string) string {
	if m == nil {
		return ""
	}
	return m.Params[name]
}

// FromBusEvent extracts the request state from a lifecycle bus event.
func FromBusEvent(e bus.Event) (*Event, bool) {
	if e == nil {
		return nil, false
	}
	v, ok := e.Param(ParamEvent)
	if !ok {
		return nil, false
	}
	me, ok := v.(*Event)
	return me, ok
}

// StatusError attaches an HTTP status to an error returned by an action.
type StatusError struct {
	Code int
	Err  error
}

func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s: %v", e.Code, http.StatusText(e.Code), e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

// StatusOf maps an error to the HTTP status used when rendering it.
func StatusOf(err error) int {
	var se *StatusError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &se):
		return se.Code
	case errors.Is(err, ErrRouteNotFound), errors.Is(err, ErrControllerNotFound), errors.Is(err, ErrActionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Action handles a dispatched request and returns the value to render.
type Action func(e *Event) (any, error)

// Controller exposes actions by name.
type Controller interface {
	Action(name string) (Action, bool)
}

// Actions is a map-backed Controller.
type Actions map[string]Action

func (a Actions) Action(name string) (Action, bool) {
	act, ok := a[name]
	return act, ok
}

// ListenerAggregate subscribes a group of handlers on a request bus. Attach is
// called once per request with a fresh bus.
type ListenerAggregate interface {
	Attach(b bus.EventBus) error
}

// ListenerFunc adapts a function to ListenerAggregate.
type ListenerFunc func(b bus.EventBus) error

func (f ListenerFunc) Attach(b bus.EventBus) error { return f(b) }
