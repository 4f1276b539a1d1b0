package devtools

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/devtools/collector"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/mvc"
	"github.com/zeusync/usuarios/internal/service"
)

type counterSource struct{ n uint64 }

func (s *counterSource) Current() uint64 { s.n += 10; return s.n }
func (s *counterSource) Peak() uint64    { return 1 << 20 }

// orderCollector records the order in which Collect ran.
type orderCollector struct {
	name     string
	priority int
	order    *[]string
}

func (c *orderCollector) Name() string       { return c.name }
func (c *orderCollector) Priority() int      { return c.priority }
func (c *orderCollector) Collect(*mvc.Event) { *c.order = append(*c.order, c.name) }
func (c *orderCollector) Data() any          { return c.name }

func newApp(t *testing.T, p *Profiler) *mvc.Application {
	t.Helper()
	routes := []module.Route{{
		Name: "home", Type: module.RouteLiteral, Route: "/", MayTerminate: true,
		Defaults: module.RouteDefaults{Controller: "home", Action: "index"},
	}}
	controllers := service.New(service.Config{Services: map[string]any{
		"home": mvc.Actions{"index": func(*mvc.Event) (any, error) { return "ok", nil }},
	}}, nil)
	app, err := mvc.NewApplication(routes, controllers, nil, p)
	require.NoError(t, err)
	return app
}

func TestProfilerStoresReport(t *testing.T) {
	store := NewReportStore(10)
	p := NewProfiler(store, nil, collector.MemoryFactory(&counterSource{}))

	var observed []Report
	p.OnReport(func(r Report) { observed = append(observed, r) })

	app := newApp(t, p)
	rr := httptest.NewRecorder()
	app.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/?x=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	report, ok := store.Latest()
	require.True(t, ok)
	require.Len(t, observed, 1)
	assert.Equal(t, report.Token, observed[0].Token)

	_, err := uuid.Parse(report.Token)
	assert.NoError(t, err)
	assert.Equal(t, "/?x=1", report.URI)
	assert.Equal(t, http.MethodGet, report.Method)
	assert.Equal(t, http.StatusOK, report.Status)

	data, ok := report.Collectors[collector.MemoryName].(collector.MemoryData)
	require.True(t, ok)
	assert.Equal(t, uint64(1<<20), data.Memory)

	var names []string
	for _, s := range data.Event[collector.ApplicationID] {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		mvc.EventBootstrap, mvc.EventRoute, mvc.EventDispatch, mvc.EventRender, mvc.EventFinish,
	}, names)
	require.Len(t, data.Application, len(names))
	assert.Equal(t, int64(data.Application[0].Memory), data.Application[0].Difference)
}

func TestProfilerCollectorsPerRequest(t *testing.T) {
	store := NewReportStore(10)
	p := NewProfiler(store, nil, collector.MemoryFactory(&counterSource{}))
	app := newApp(t, p)

	for range 3 {
		app.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	require.Equal(t, 3, store.Len())
	for _, r := range store.List(0) {
		data := r.Collectors[collector.MemoryName].(collector.MemoryData)
		assert.Len(t, data.Event[collector.ApplicationID], 5)
	}
}

func TestProfilerCollectOrder(t *testing.T) {
	var order []string
	p := NewProfiler(NewReportStore(1), nil,
		func() collector.Collector { return &orderCollector{name: "low", priority: 1, order: &order} },
		func() collector.Collector { return &orderCollector{name: "high", priority: 100, order: &order} },
	)

	b := bus.New()
	require.NoError(t, p.Attach(b))
	e := &mvc.Event{Request: httptest.NewRequest(http.MethodGet, "/", nil)}
	require.NoError(t, b.PublishToTopic(mvc.Topic, bus.NewEvent(mvc.EventFinish, "app", map[string]any{mvc.ParamEvent: e})))

	assert.Equal(t, []string{"high", "low"}, order)
}

func TestProfilerIgnoresForeignEvents(t *testing.T) {
	store := NewReportStore(1)
	p := NewProfiler(store, nil)
	b := bus.New()
	require.NoError(t, p.Attach(b))

	require.NoError(t, b.PublishToTopic(mvc.Topic, bus.NewEvent(mvc.EventFinish, "app", nil)))
	assert.Zero(t, store.Len())
}

func TestReportStoreRing(t *testing.T) {
	s := NewReportStore(3)
	_, ok := s.Latest()
	assert.False(t, ok)

	for _, tok := range []string{"a", "b", "c", "d"} {
		s.Add(Report{Token: tok})
	}
	assert.Equal(t, 3, s.Len())

	var tokens []string
	for _, r := range s.List(0) {
		tokens = append(tokens, r.Token)
	}
	assert.Equal(t, []string{"d", "c", "b"}, tokens)
	assert.Len(t, s.List(2), 2)

	_, ok = s.Get("a")
	assert.False(t, ok)
	r, ok := s.Get("c")
	assert.True(t, ok)
	assert.Equal(t, "c", r.Token)

	assert.Equal(t, DefaultHistory, len(NewReportStore(0).reports))
}

func TestToolbarHandler(t *testing.T) {
	store := NewReportStore(5)
	h := NewToolbarHandler(store, "/_devtools")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_devtools/latest", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	store.Add(Report{Token: "one", Status: 200})
	store.Add(Report{Token: "two", Status: 404})

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_devtools?limit=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "two", list[0].Token)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_devtools/one", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var one Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &one))
	assert.Equal(t, 200, one.Status)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/_devtools/missing", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
