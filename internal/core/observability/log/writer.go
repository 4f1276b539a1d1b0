package log

import (
	"context"

	"go.uber.org/zap/zapcore"
)

// Writer is a write-only destination for log records.
type Writer interface {
	Write(ctx context.Context, record Record) error
	// SetFormatter changes how the writer renders records. Writers that store
	// structured documents accept the call and ignore it.
	SetFormatter(formatter Formatter) Writer
	Close(ctx context.Context) error
}

var _ zapcore.Core = (*writerCore)(nil)

// writerCore forwards zap entries to a set of Writers.
type writerCore struct {
	zapcore.LevelEnabler
	fields  []zapcore.Field
	writers []Writer
}

func newWriterCore(enabler zapcore.LevelEnabler, writers []Writer) *writerCore {
	return &writerCore{LevelEnabler: enabler, writers: writers}
}

func (c *writerCore) With(fields []zapcore.Field) zapcore.Core {
	clone := &writerCore{
		LevelEnabler: c.LevelEnabler,
		fields:       make([]zapcore.Field, 0, len(c.fields)+len(fields)),
		writers:      c.writers,
	}
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

func (c *writerCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *writerCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	record := Record{
		Level:     fromZapLevel(entry.Level),
		Message:   entry.Message,
		Timestamp: entry.Time,
		Extra:     enc.Fields,
	}
	return writeAll(context.Background(), c.writers, record)
}

func (c *writerCore) Sync() error { return nil }

// writeAll stops at the first failing writer.
func writeAll(ctx context.Context, writers []Writer, record Record) error {
	for _, w := range writers {
		if err := w.Write(ctx, record); err != nil {
			return err
		}
	}
	return nil
}
