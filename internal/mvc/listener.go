package mvc

import (
	"net/http"
	"time"

	"github.com/zeusync/usuarios/internal/core/events/bus"
	"github.com/zeusync/usuarios/internal/core/observability/log"
)

// LogListener writes one record per finished request to a RecordWriter.
type LogListener struct {
	w log.RecordWriter
}

func NewLogListener(w log.RecordWriter) *LogListener {
	return &LogListener{w: w}
}

func (l *LogListener) Attach(b bus.EventBus) error {
	_, err := b.SubscribeTopic(Topic, EventFinish, l.onFinish, bus.WithPriority(-10000))
	return err
}

func (l *LogListener) onFinish(be bus.Event) error {
	e, ok := FromBusEvent(be)
	if !ok {
		return nil
	}

	level := log.LevelInfo
	switch {
	case e.Status >= http.StatusInternalServerError:
		level = log.LevelError
	case e.Status >= http.StatusBadRequest:
		level = log.LevelWarn
	}

	extra := map[string]any{
		"method":      e.Request.Method,
		"uri":         e.Request.URL.RequestURI(),
		"status":      e.Status,
		"duration_ms": time.Since(e.Start).Milliseconds(),
	}
	if e.Route != nil {
		extra["route"] = e.Route.Name
	}
	if e.Err != nil {
		extra["error"] = e.Err.Error()
	}
	return l.w.WriteRecord(e.Request.Context(), log.NewRecord(level, "request finished", extra))
}
