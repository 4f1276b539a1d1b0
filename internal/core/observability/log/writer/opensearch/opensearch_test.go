package opensearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

type indexedDoc struct {
	path  string
	query string
	body  map[string]any
}

func newTestCluster(t *testing.T, status int) (*opensearch.Client, *[]indexedDoc) {
	t.Helper()
	var (
		mu   sync.Mutex
		docs []indexedDoc
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet && r.URL.Path == "/" {
			_, _ = io.WriteString(w, `{"version":{"number":"2.11.0","distribution":"opensearch"}}`)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		docs = append(docs, indexedDoc{path: r.URL.Path, query: r.URL.RawQuery, body: body})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}))
	t.Cleanup(srv.Close)

	client, err := opensearch.NewClient(opensearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &docs
}

func TestWriteIndexesDocument(t *testing.T) {
	client, docs := newTestCluster(t, http.StatusCreated)
	w, err := New(client, "usuarios-logs", "true")
	require.NoError(t, err)

	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	rec := log.Record{Level: log.LevelWarn, Message: "slow query", Timestamp: ts, Extra: map[string]any{"ms": 812}}
	require.NoError(t, w.Write(context.Background(), rec))

	require.Len(t, *docs, 1)
	got := (*docs)[0]
	assert.True(t, strings.HasPrefix(got.path, "/usuarios-logs/_doc"), got.path)
	assert.Contains(t, got.query, "refresh=true")
	assert.Equal(t, "warn", got.body["level"])
	assert.Equal(t, "slow query", got.body["message"])
	assert.Equal(t, "2024-06-01T08:00:00Z", got.body["timestamp"])
}

func TestWriteSurfacesClusterErrors(t *testing.T) {
	client, _ := newTestCluster(t, http.StatusBadRequest)
	w, err := New(client, "usuarios-logs", "")
	require.NoError(t, err)

	err = w.Write(context.Background(), log.NewRecord(log.LevelInfo, "x", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, "idx", "")
	assert.ErrorIs(t, err, log.ErrInvalidArgument)

	client, _ := newTestCluster(t, http.StatusCreated)
	_, err = New(client, "", "")
	assert.ErrorIs(t, err, log.ErrInvalidArgument)

	err = (&Writer{}).Write(context.Background(), log.NewRecord(log.LevelInfo, "x", nil))
	assert.ErrorIs(t, err, log.ErrRuntime)
}

func TestFactory(t *testing.T) {
	client, _ := newTestCluster(t, http.StatusCreated)
	reg := log.NewWriters()
	reg.Register(WriterType, Factory(client))

	w, err := reg.Build(WriterType, map[string]any{"index": "logs"})
	require.NoError(t, err)
	assert.Same(t, w, w.SetFormatter(log.JSONFormatter{}))
}
