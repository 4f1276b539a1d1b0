package log

import (
	"maps"
	"time"
)

// Record is a single log entry handed to writers. Writers must not modify it.
type Record struct {
	Level     Level
	Message   string
	Timestamp time.Time
	Extra     map[string]any
}

// NewRecord builds a record stamped with the current time.
func NewRecord(level Level, msg string, extra map[string]any) Record {
	return Record{
		Level:     level,
		Message:   msg,
		Timestamp: time.Now(),
		Extra:     maps.Clone(extra),
	}
}

// Document renders the record as a flat key/value document.
// The timestamp key is present only when the record carries a time,
// and extra only when it is non-empty. The returned map is a fresh copy.
func (r Record) Document() map[string]any {
	doc := map[string]any{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	if !r.Timestamp.IsZero() {
		doc["timestamp"] = r.Timestamp
	}
	if len(r.Extra) > 0 {
		doc["extra"] = maps.Clone(r.Extra)
	}
	return doc
}
