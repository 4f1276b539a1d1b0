package mvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/core/observability/log"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/service"
)

var testRoutes = []module.Route{{
	Name:         "items",
	Type:         module.RouteLiteral,
	Route:        "/items",
	Defaults:     module.RouteDefaults{Controller: "items", Action: "index"},
	MayTerminate: true,
	ChildRoutes: []module.Route{
		{
			Name:         "view",
			Type:         module.RouteSegment,
			Route:        "/:id",
			Constraints:  map[string]string{"id": "[0-9]+"},
			Defaults:     module.RouteDefaults{Action: "view"},
			MayTerminate: true,
		},
		{
			Name:         "broken",
			Type:         module.RouteLiteral,
			Route:        "/broken",
			Defaults:     module.RouteDefaults{Action: "broken"},
			MayTerminate: true,
		},
		{
			Name:         "missing",
			Type:         module.RouteLiteral,
			Route:        "/missing",
			Defaults:     module.RouteDefaults{Action: "nope"},
			MayTerminate: true,
		},
	},
}}

func testControllers() *service.Manager {
	return service.New(service.Config{Services: map[string]any{
		"items": Actions{
			"index": func(*Event) (any, error) { return []string{"a", "b"}, nil },
			"view": func(e *Event) (any, error) {
				if e.Route.Param("id") == "404" {
					return nil, NewStatusError(http.StatusNotFound, errors.New("no such item"))
				}
				return map[string]string{"id": e.Route.Param("id")}, nil
			},
			"broken": func(*Event) (any, error) { return nil, errors.New("kaput") },
		},
	}}, nil)
}

type recorder struct {
	mu      sync.Mutex
	events  []string
	records []log.Record
}

func (r *recorder) Attach(b bus.EventBus) error {
	_, err := b.SubscribeTopic(Topic, bus.Wildcard, func(e bus.Event) error {
		r.mu.Lock()
		r.events = append(r.events, e.Name())
		r.mu.Unlock()
		return nil
	})
	return err
}

func (r *recorder) WriteRecord(_ context.Context, rec log.Record) error {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
	return nil
}

func newTestApp(t *testing.T, listeners ...ListenerAggregate) *Application {
	t.Helper()
	app, err := NewApplication(testRoutes, testControllers(), log.NewNop(), listeners...)
	require.NoError(t, err)
	return app
}

func do(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr, body
}

func TestApplicationDispatch(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, rec)

	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["a","b"]`, rr.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, []string{EventBootstrap, EventRoute, EventDispatch, EventRender, EventFinish}, rec.events)
}

func TestApplicationSegmentRoute(t *testing.T) {
	app := newTestApp(t)

	rr, body := do(t, app, "/items/42")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "42", body["id"])

	rr, _ = do(t, app, "/items/abc")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestApplicationErrors(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, rec)

	rr, body := do(t, app, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body["error"], "route not found")
	assert.Equal(t, []string{EventBootstrap, EventRoute, EventDispatchError, EventRender, EventFinish}, rec.events)

	rr, body = do(t, app, "/items/404")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body["error"], "no such item")

	rr, _ = do(t, app, "/items/broken")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr, body = do(t, app, "/items/missing")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body["error"], "action not found")
}

func TestApplicationUnknownController(t *testing.T) {
	routes := []module.Route{{
		Name: "ghost", Type: module.RouteLiteral, Route: "/ghost", MayTerminate: true,
		Defaults: module.RouteDefaults{Controller: "ghost", Action: "index"},
	}}
	app, err := NewApplication(routes, testControllers(), nil)
	require.NoError(t, err)

	rr, body := do(t, app, "/ghost")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, body["error"], "controller not found")
}

func TestApplicationListenerErrorsDoNotAbort(t *testing.T) {
	failing := ListenerFunc(func(b bus.EventBus) error {
		_, err := b.SubscribeTopic(Topic, EventDispatch, func(bus.Event) error {
			return errors.New("listener failed")
		})
		return err
	})
	app := newTestApp(t, failing)

	rr, _ := do(t, app, "/items")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestApplicationAttachError(t *testing.T) {
	failing := ListenerFunc(func(bus.EventBus) error { return errors.New("nope") })
	app := newTestApp(t, failing)

	rr, _ := do(t, app, "/items")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestEventSourceLocation(t *testing.T) {
	var files []string
	app := newTestApp(t, ListenerFunc(func(b bus.EventBus) error {
		_, err := b.SubscribeTopic(Topic, bus.Wildcard, func(e bus.Event) error {
			files = append(files, e.File())
			assert.Equal(t, target, e.Target())
			assert.Positive(t, e.Line())
			return nil
		})
		return err
	}))

	do(t, app, "/items")
	require.NotEmpty(t, files)
	for _, f := range files {
		assert.Contains(t, f, "internal/mvc/application.go")
	}
}

func TestLogListener(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(t, NewLogListener(rec))

	do(t, app, "/items/7")
	do(t, app, "/items/broken")

	require.Len(t, rec.records, 2)
	ok := rec.records[0]
	assert.Equal(t, log.LevelInfo, ok.Level)
	assert.Equal(t, "request finished", ok.Message)
	assert.Equal(t, "/items/7", ok.Extra["uri"])
	assert.Equal(t, "items/view", ok.Extra["route"])
	assert.Equal(t, http.StatusOK, ok.Extra["status"])

	failed := rec.records[1]
	assert.Equal(t, log.LevelError, failed.Level)
	assert.Equal(t, "kaput", failed.Extra["error"])
}

func TestFromBusEvent(t *testing.T) {
	e := &Event{Status: http.StatusTeapot}
	got, ok := FromBusEvent(bus.NewEvent(EventRender, target, map[string]any{ParamEvent: e}))
	require.True(t, ok)
	assert.Same(t, e, got)

	_, ok = FromBusEvent(bus.NewEvent(EventRender, target, nil))
	assert.False(t, ok)
	_, ok = FromBusEvent(nil)
	assert.False(t, ok)
}

func TestMuxPath(t *testing.T) {
	p, err := muxPath(module.Route{Type: module.RouteSegment, Route: "/:id/:slug", Constraints: map[string]string{"id": "[0-9]+"}})
	require.NoError(t, err)
	assert.Equal(t, "/{id:[0-9]+}/{slug}", p)

	_, err = muxPath(module.Route{Type: module.RouteSegment, Route: "/:"})
	assert.Error(t, err)
}
