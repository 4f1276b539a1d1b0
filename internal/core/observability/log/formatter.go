package log

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Formatter renders a record for line-oriented writers.
type Formatter interface {
	Format(record Record) ([]byte, error)
}

type FormatterFunc func(record Record) ([]byte, error)

func (f FormatterFunc) Format(record Record) ([]byte, error) { return f(record) }

// JSONFormatter renders the record document as one JSON object.
type JSONFormatter struct {
	TimeLayout string
}

func (f JSONFormatter) Format(record Record) ([]byte, error) {
	doc := record.Document()
	if ts, ok := doc["timestamp"].(time.Time); ok {
		doc["timestamp"] = ts.Format(f.layout())
	}
	return json.Marshal(doc)
}

func (f JSONFormatter) layout() string {
	if f.TimeLayout == "" {
		return time.RFC3339
	}
	return f.TimeLayout
}

// DefaultSimpleFormat places the timestamp, level, message and extra fields on one line.
const DefaultSimpleFormat = "%timestamp% %level%: %message% %extra%"

// SimpleFormatter substitutes %timestamp%, %level%, %message% and %extra% in Layout.
type SimpleFormatter struct {
	Layout     string
	TimeLayout string
}

func NewSimpleFormatter(format string) SimpleFormatter {
	if format == "" {
		format = DefaultSimpleFormat
	}
	return SimpleFormatter{Layout: format, TimeLayout: time.RFC3339}
}

func (f SimpleFormatter) Format(record Record) ([]byte, error) {
	format := f.Layout
	if format == "" {
		format = DefaultSimpleFormat
	}
	layout := f.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	extra := ""
	if len(record.Extra) > 0 {
		b, err := json.Marshal(record.Extra)
		if err != nil {
			return nil, fmt.Errorf("format extra: %w", err)
		}
		extra = string(b)
	}

	r := strings.NewReplacer(
		"%timestamp%", record.Timestamp.Format(layout),
		"%level%", strings.ToUpper(record.Level.String()),
		"%message%", record.Message,
		"%extra%", extra,
	)
	return []byte(strings.TrimRight(r.Replace(format), " ")), nil
}
