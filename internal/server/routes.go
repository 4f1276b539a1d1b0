package server

import (
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gorilla/mux"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

// Routes are the handlers mounted next to the application. Nil handlers are skipped.
type Routes struct {
	App http.Handler

	ToolbarPath string
	Toolbar     http.Handler

	MetricsPath string
	Metrics     http.Handler

	StreamPath string
	Stream     http.Handler
}

// NewHandler mounts routes on a gorilla/mux router. Anything not claimed by the
// developer tools falls through to the application.
func NewHandler(routes Routes, logger log.Log) http.Handler {
	if logger == nil {
		logger = log.NewNop()
	}

	r := mux.NewRouter()
	r.Use(RecoverMiddleware(logger))

	if routes.Toolbar != nil && routes.ToolbarPath != "" {
		prefix := strings.TrimSuffix(routes.ToolbarPath, "/")
		r.Path(prefix).Handler(routes.Toolbar)
		r.PathPrefix(prefix + "/").Handler(routes.Toolbar)
	}
	if routes.Metrics != nil && routes.MetricsPath != "" {
		r.Path(routes.MetricsPath).Handler(routes.Metrics)
	}
	if routes.Stream != nil && routes.StreamPath != "" {
		r.Path(routes.StreamPath).Handler(routes.Stream)
	}
	if routes.App != nil {
		r.PathPrefix("/").Handler(routes.App)
	}
	return r
}

// RecoverMiddleware turns handler panics into 500 responses.
func RecoverMiddleware(logger log.Log) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Handler panicked",
						log.String("path", r.URL.Path),
						log.Any("panic", rec),
						log.String("stack", string(debug.Stack())))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
