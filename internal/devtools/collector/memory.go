package collector

import (
	"math"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/mvc"
)

const (
	MemoryName = "memory"
	// ApplicationID keys the samples taken for MVC lifecycle events.
	ApplicationID = "application"
)

var _ EventCollector = (*MemoryCollector)(nil)

// EventContext is one memory sample taken when an event fired.
type EventContext struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Memory uint64 `json:"memory"`
}

// EventMemory is an EventContext with the change since the previous sample.
type EventMemory struct {
	EventContext
	Difference int64 `json:"difference"`
}

// MemoryData is the collected summary. Application repeats the application
// samples with the change between consecutive events.
type MemoryData struct {
	Memory      uint64                    `json:"memory"`
	End         uint64                    `json:"end"`
	Event       map[string][]EventContext `json:"event,omitempty"`
	Application []EventMemory             `json:"application,omitempty"`
}

// MemoryCollector records peak and final memory of a request, plus a sample per
// lifecycle event. It is meant for one request and is not safe for concurrent use.
type MemoryCollector struct {
	source    MemorySource
	data      MemoryData
	collected bool
}

func NewMemoryCollector(source MemorySource) *MemoryCollector {
	return &MemoryCollector{source: source}
}

// MemoryFactory returns a Factory producing collectors bound to source.
func MemoryFactory(source MemorySource) Factory {
	return func() Collector { return NewMemoryCollector(source) }
}

func (c *MemoryCollector) Name() string { return MemoryName }

func (c *MemoryCollector) Priority() int { return math.MaxInt - 1 }

func (c *MemoryCollector) Collect(*mvc.Event) {
	c.data.Memory = c.source.Peak()
	c.data.End = c.source.Current()
	c.collected = true
}

func (c *MemoryCollector) CollectEvent(id string, e bus.Event) {
	if c.data.Event == nil {
		c.data.Event = make(map[string][]EventContext)
	}
	c.data.Event[id] = append(c.data.Event[id], EventContext{
		Name:   e.Name(),
		Target: e.Target(),
		File:   e.File(),
		Line:   e.Line(),
		Memory: c.source.Current(),
	})
}

func (c *MemoryCollector) Data() any {
	data := c.data
	if c.HasEventMemory() {
		data.Application = c.ApplicationEventMemory()
	}
	return data
}

// Memory returns the peak memory; ok is false until Collect ran.
func (c *MemoryCollector) Memory() (uint64, bool) {
	return c.data.Memory, c.collected
}

// End returns the memory in use when Collect ran.
func (c *MemoryCollector) End() (uint64, bool) {
	return c.data.End, c.collected
}

func (c *MemoryCollector) HasEventMemory() bool {
	return len(c.data.Event) > 0
}

// ApplicationEventMemory lists the application samples in firing order. The
// first entry's difference is its own memory.
func (c *MemoryCollector) ApplicationEventMemory() []EventMemory {
	samples := c.data.Event[ApplicationID]
	if len(samples) == 0 {
		return []EventMemory{}
	}
	out := make([]EventMemory, len(samples))
	for i, s := range samples {
		diff := int64(s.Memory)
		if i > 0 {
			diff = int64(s.Memory) - int64(samples[i-1].Memory)
		}
		out[i] = EventMemory{EventContext: s, Difference: diff}
	}
	return out
}
