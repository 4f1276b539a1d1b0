// Package collector holds the profiler data collectors.
package collector

import (
	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/mvc"
)

// Collector gathers data once per request when the request finishes.
// Collectors with a higher priority run first.
type Collector interface {
	Name() string
	Priority() int
	Collect(e *mvc.Event)
	// Data is the serializable result stored in the profiler report.
	Data() any
}

// EventCollector is additionally fed every lifecycle event, keyed by the id of
// the event source ("application" for the MVC lifecycle).
type EventCollector interface {
	Collector
	CollectEvent(id string, e bus.Event)
}

// Factory creates a fresh collector for one request.
type Factory func() Collector
