package injector

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zeusync/usuarios/internal/config"
	"github.com/zeusync/usuarios/internal/core/observability/log"
	"github.com/zeusync/usuarios/internal/core/observability/log/writer/mongo"
	opensearchwriter "github.com/zeusync/usuarios/internal/core/observability/log/writer/opensearch"
	"github.com/zeusync/usuarios/internal/core/observability/log/writer/stream"
	"github.com/zeusync/usuarios/internal/devtools"
	"github.com/zeusync/usuarios/internal/devtools/collector"
	"github.com/zeusync/usuarios/internal/devtools/metrics"
	"github.com/zeusync/usuarios/internal/module"
	"github.com/zeusync/usuarios/internal/mvc"
	"github.com/zeusync/usuarios/internal/orm"
	"github.com/zeusync/usuarios/internal/server"
	"github.com/zeusync/usuarios/internal/usuarios"
)

// ConfigPath is the configuration file to load; empty searches the defaults.
type ConfigPath string

// App is the assembled application.
type App struct {
	Config *config.Config
	Logger *log.Logger
	Server *server.Server
}

func ProvideConfig(path ConfigPath) (*config.Config, error) {
	return config.Load(string(path))
}

// ProvideMongoClient connects only when a mongo URI is configured.
func ProvideMongoClient(ctx context.Context, cfg *config.Config) (*driver.Client, func(), error) {
	if cfg.Mongo.URI == "" {
		return nil, func() {}, nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	client, err := driver.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	return client, cleanup, nil
}

// ProvideOpenSearchClient returns nil when no addresses are configured.
func ProvideOpenSearchClient(cfg *config.Config) (*opensearch.Client, error) {
	if len(cfg.OpenSearch.Addresses) == 0 {
		return nil, nil
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: cfg.OpenSearch.Addresses,
		Username:  cfg.OpenSearch.Username,
		Password:  cfg.OpenSearch.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return client, nil
}

func ProvideStreamHub() *stream.Hub {
	return stream.NewHub()
}

// ProvideWriters registers a factory per available driver. Writer types whose
// driver is unavailable stay unregistered and fail with log.ErrExtensionNotLoaded.
func ProvideWriters(mongoClient *driver.Client, osClient *opensearch.Client, hub *stream.Hub) *log.Writers {
	writers := log.NewWriters()
	if mongoClient != nil {
		writers.Register(mongo.WriterType, mongo.Factory(mongoClient))
	}
	if osClient != nil {
		writers.Register(opensearchwriter.WriterType, opensearchwriter.Factory(osClient))
	}
	writers.Register(stream.WriterType, stream.Factory(hub))
	return writers
}

func ProvideLogger(cfg *config.Config, registry *log.Writers) (*log.Logger, func(), error) {
	writers := make([]log.Writer, 0, len(cfg.Log.Writers))
	for _, wc := range cfg.Log.Writers {
		w, err := registry.Build(wc.Type, wc.Options)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, w)
	}
	logger, err := log.NewWithConfig(cfg.LoggerConfig(writers...))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = logger.Close(ctx)
	}
	return logger, cleanup, nil
}

func ProvideEntityManager(cfg *config.Config) (*orm.EntityManager, func(), error) {
	em, err := orm.Open(cfg.Database.DSN)
	if err != nil {
		return nil, nil, err
	}
	db := em.DB()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	return em, func() { _ = em.Close() }, nil
}

func ProvideModules(em *orm.EntityManager) (*module.Manager, error) {
	return module.Load(orm.ServiceConfig(em), usuarios.Module{})
}

func ProvideMemorySource() collector.MemorySource {
	return collector.NewProcessMemory()
}

func ProvideReportStore(cfg *config.Config) *devtools.ReportStore {
	return devtools.NewReportStore(cfg.DevTools.History)
}

func ProvideMetrics(cfg *config.Config) *metrics.Collector {
	return metrics.NewCollector(cfg.DevTools.Namespace)
}

func ProvideProfiler(store *devtools.ReportStore, logger *log.Logger, source collector.MemorySource, m *metrics.Collector) *devtools.Profiler {
	p := devtools.NewProfiler(store, logger.With(log.String("component", "devtools")), collector.MemoryFactory(source))
	p.OnReport(m.Observe)
	return p
}

func ProvideApplication(cfg *config.Config, modules *module.Manager, logger *log.Logger, profiler *devtools.Profiler) (*mvc.Application, error) {
	listeners := []mvc.ListenerAggregate{mvc.NewLogListener(logger)}
	if cfg.DevTools.Enabled {
		listeners = append(listeners, profiler)
	}
	return mvc.NewApplication(
		modules.Config().Router.Routes,
		modules.Controllers(),
		logger.With(log.String("component", "mvc")),
		listeners...,
	)
}

func ProvideHandler(cfg *config.Config, app *mvc.Application, store *devtools.ReportStore, m *metrics.Collector, hub *stream.Hub, logger *log.Logger) http.Handler {
	routes := server.Routes{App: app}
	if cfg.DevTools.Enabled {
		routes.ToolbarPath = cfg.DevTools.ToolbarPath
		routes.Toolbar = devtools.NewToolbarHandler(store, cfg.DevTools.ToolbarPath)
		routes.MetricsPath = cfg.DevTools.MetricsPath
		routes.Metrics = m.Handler()
	}
	if cfg.HasWriter(stream.WriterType) {
		routes.StreamPath = cfg.Server.StreamPath
		routes.Stream = hub
	}
	return server.NewHandler(routes, logger)
}

func ProvideServer(cfg *config.Config, handler http.Handler, logger *log.Logger) *server.Server {
	return server.NewServer(server.Config{
		ListenAddr:      cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, handler, logger)
}

func ProvideApp(cfg *config.Config, logger *log.Logger, srv *server.Server) *App {
	return &App{Config: cfg, Logger: logger, Server: srv}
}
