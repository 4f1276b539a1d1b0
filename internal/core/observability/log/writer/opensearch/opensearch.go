// Package opensearch indexes log records into an OpenSearch index.
package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

const WriterType = "opensearch"

var _ log.Writer = (*Writer)(nil)

type Writer struct {
	client  *opensearch.Client
	index   string
	refresh string
}

// New fails with log.ErrInvalidArgument when client is nil or index is empty.
func New(client *opensearch.Client, index, refresh string) (*Writer, error) {
	if index == "" {
		return nil, fmt.Errorf("%w: the index parameter cannot be empty", log.ErrInvalidArgument)
	}
	if client == nil {
		return nil, fmt.Errorf("%w: opensearch client is nil", log.ErrInvalidArgument)
	}
	return &Writer{client: client, index: index, refresh: refresh}, nil
}

// Factory reads the index and refresh options.
func Factory(client *opensearch.Client) log.WriterFactory {
	return func(options map[string]any) (log.Writer, error) {
		return New(client, log.OptionString(options, "index"), log.OptionString(options, "refresh"))
	}
}

func (w *Writer) Write(ctx context.Context, record log.Record) error {
	if w.client == nil {
		return fmt.Errorf("%w: opensearch client must be defined", log.ErrRuntime)
	}

	doc := record.Document()
	if ts, ok := doc["timestamp"].(time.Time); ok {
		doc["timestamp"] = ts.UTC().Format(time.RFC3339Nano)
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode log document: %w", err)
	}

	opts := []func(*opensearchapi.IndexRequest){w.client.Index.WithContext(ctx)}
	if w.refresh != "" {
		opts = append(opts, w.client.Index.WithRefresh(w.refresh))
	}

	res, err := w.client.Index(w.index, bytes.NewReader(body), opts...)
	if err != nil {
		return fmt.Errorf("opensearch index %s: %w", w.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("opensearch index %s: %s: %s", w.index, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}

// SetFormatter is a no-op: records are indexed as documents.
func (w *Writer) SetFormatter(log.Formatter) log.Writer {
	return w
}

func (w *Writer) Close(context.Context) error {
	return nil
}
