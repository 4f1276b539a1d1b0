//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"context"

	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	ProvideConfig,
	ProvideMongoClient,
	ProvideOpenSearchClient,
	ProvideStreamHub,
	ProvideWriters,
	ProvideLogger,
	ProvideEntityManager,
	ProvideModules,
	ProvideMemorySource,
	ProvideReportStore,
	ProvideMetrics,
	ProvideProfiler,
	ProvideApplication,
	ProvideHandler,
	ProvideServer,
	ProvideApp,
)

func InitializeApp(ctx context.Context, path ConfigPath) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
