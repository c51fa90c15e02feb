//go:build wireinject
// +build wireinject

package di

import (
	"AirCast/pkg/config"
	applogger "AirCast/pkg/logger"
	"AirCast/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	// Infrastructure
	ProvideBackend,
	ProvideReadingStore,
	ProvideMetrics,
	ProvideCache,
	ProvideKafkaProducer,
	ProvideReadingPublisher,

	// Forecast core
	ProvideForecastConfig,
	ProvidePreparer,
	ProvideArtifactSource,
	ProvideModelCache,
	ProvideEngine,

	// Sources
	ProvideOpenAQClient,

	// Use cases
	ProvideHub,
	ProvideSeriesLoader,
	ProvideIngestor,
	ProvideSyncUseCase,
	ProvideDashboardUseCase,
	ProvideForecastUseCase,
)

// InitializeApp wires the long-running server.
func InitializeApp(cfg *config.Config, l *applogger.Logger) (*server.App, error) {
	wire.Build(
		coreSet,
		ProvideKafkaConsumer,
		ProvideScheduler,
		ProvideForecastHandler,
		ProvideHealthHandler,
		ProvideHTTPServer,
		ProvideTracer,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeServices wires the use cases for one-shot CLI commands.
func InitializeServices(cfg *config.Config, l *applogger.Logger) (*Services, error) {
	wire.Build(
		coreSet,
		ProvideArchiveReader,
		ProvideBackfillUseCase,
		ProvideServices,
	)
	return &Services{}, nil
}
