package bus

import (
	"maps"
	"path/filepath"
	"runtime"
	"time"
)

// simpleEvent is the Event implementation used by NewEvent.
type simpleEvent struct {
	name   string
	target string
	ts     time.Time
	file   string
	line   int
	params map[string]any
}

func (e simpleEvent) Name() string           { return e.name }
func (e simpleEvent) Target() string         { return e.target }
func (e simpleEvent) Timestamp() time.Time   { return e.ts }
func (e simpleEvent) File() string           { return e.file }
func (e simpleEvent) Line() int              { return e.line }
func (e simpleEvent) Params() map[string]any { return maps.Clone(e.params) }

func (e simpleEvent) Param(key string) (any, bool) {
	v, ok := e.params[key]
	return v, ok
}

// NewEvent creates an Event whose source location is the caller of NewEvent.
func NewEvent(name, target string, params map[string]any) Event {
	return newEvent(name, target, params, 2)
}

// NewEventSkip is NewEvent for helpers that fire events on behalf of their
// caller; skip counts the extra frames between the trigger site and NewEventSkip.
func NewEventSkip(skip int, name, target string, params map[string]any) Event {
	return newEvent(name, target, params, 2+skip)
}

func newEvent(name, target string, params map[string]any, skip int) Event {
	e := simpleEvent{
		name:   name,
		target: target,
		ts:     time.Now(),
		params: maps.Clone(params),
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		e.file = filepath.ToSlash(file)
		e.line = line
	}
	return e
}
