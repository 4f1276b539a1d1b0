// Package stream broadcasts formatted log records to websocket subscribers,
// backing the live log tail of the developer toolbar.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

const WriterType = "stream"

var _ log.Writer = (*Hub)(nil)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub is both a log.Writer and the http.Handler subscribers connect to.
type Hub struct {
	mu           sync.Mutex
	clients      map[*websocket.Conn]struct{}
	formatter    log.Formatter
	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[*websocket.Conn]struct{}),
		formatter:    log.JSONFormatter{},
		writeTimeout: 2 * time.Second,
	}
}

// Factory accepts a format option: json (default) or simple.
func Factory(h *Hub) log.WriterFactory {
	return func(options map[string]any) (log.Writer, error) {
		if log.OptionString(options, "format") == "simple" {
			h.SetFormatter(log.NewSimpleFormatter(log.OptionString(options, "layout")))
		}
		return h, nil
	}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err = conn.NextReader(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Write sends the formatted record to every subscriber. Subscribers that fail
// to receive it are disconnected; only formatting errors are returned.
func (h *Hub) Write(_ context.Context, record log.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return nil
	}
	payload, err := h.formatter.Format(record)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(h.writeTimeout)
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(deadline)
		if err = conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(h.clients, conn)
			_ = conn.Close()
		}
	}
	return nil
}

func (h *Hub) SetFormatter(formatter log.Formatter) log.Writer {
	h.mu.Lock()
	if formatter != nil {
		h.formatter = formatter
	}
	h.mu.Unlock()
	return h
}

func (h *Hub) Close(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		_ = conn.Close()
		delete(h.clients, conn)
	}
	return nil
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}
