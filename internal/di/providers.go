package di

import (
	"context"
	"fmt"
	"io"
	"time"

	drepo "AirCast/internal/domain/repository"
	"AirCast/internal/handler/api"
	"AirCast/internal/handler/ws"
	internalrepo "AirCast/internal/repository"
	"AirCast/internal/scheduler"
	"AirCast/internal/service/ratelimit"
	"AirCast/internal/services/archive"
	"AirCast/internal/services/artifacts"
	"AirCast/internal/services/forecast"
	"AirCast/internal/services/openaq"
	"AirCast/internal/services/status"
	"AirCast/internal/usecase"
	"AirCast/pkg/cache"
	pkgch "AirCast/pkg/clickhouse"
	"AirCast/pkg/config"
	xhttp "AirCast/pkg/http"
	"AirCast/pkg/http/middleware"
	pkgkafka "AirCast/pkg/kafka"
	applogger "AirCast/pkg/logger"
	"AirCast/pkg/metrics"
	pkgotel "AirCast/pkg/otel"
	pkgpg "AirCast/pkg/postgres"
	"AirCast/pkg/server"

	"github.com/segmentio/kafka-go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Backend is the configured reading store plus the client that owns its connections.
type Backend struct {
	Store  drepo.ReadingStore
	Client io.Closer
}

// ProvideBackend connects the storage backend selected by storage.backend and
// ensures its schema.
func ProvideBackend(cfg *config.Config, l *applogger.Logger) (*Backend, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch cfg.Storage.Backend {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		store := internalrepo.NewClickHouseReadingStore(client.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table, l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Backend{Store: store, Client: client}, nil
	default:
		client, err := pkgpg.NewClient(
			pkgpg.WithDSN(cfg.Postgres.DSN),
			pkgpg.WithPoolSize(cfg.Postgres.MaxConns, 1),
		)
		if err != nil {
			return nil, fmt.Errorf("postgres client: %w", err)
		}
		store := internalrepo.NewPostgresReadingStore(client.Pool(), cfg.Postgres.Table, l)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return &Backend{Store: store, Client: client}, nil
	}
}

func ProvideReadingStore(b *Backend) drepo.ReadingStore {
	return b.Store
}

// ProvideMetrics registers the Prometheus recorder on the default registry.
func ProvideMetrics() drepo.Metrics {
	return metrics.New(nil)
}

// ProvideCache returns an in-process LRU, fronting Redis when it is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, error) {
	if !cfg.Cache.Redis.Enabled {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemorySize)), nil
	}
	remote, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Cache.Redis.Host),
		cache.WithRedisPort(cfg.Cache.Redis.Port),
		cache.WithRedisPassword(cfg.Cache.Redis.Password),
		cache.WithRedisDB(cfg.Cache.Redis.DB),
		cache.WithRedisPrefix("aircast"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache enabled", applogger.String("host", cfg.Cache.Redis.Host))
	return cache.NewLayeredCache(remote,
		cache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		cache.WithLayeredMemoryTTL(time.Minute),
	), nil
}

func ProvideForecastConfig(cfg *config.Config) forecast.Config {
	return forecast.NewConfig(cfg)
}

func ProvidePreparer(fc forecast.Config) *forecast.Preparer {
	return forecast.NewPreparer(fc)
}

// ProvideArtifactSource serves local paths and, when a model path is an
// s3:// URI, S3 objects through the default AWS credential chain.
func ProvideArtifactSource(cfg *config.Config) (drepo.ArtifactSource, error) {
	r := artifacts.Router{}
	if artifacts.IsS3(cfg.Models.MeanPath, cfg.Models.VolatilityPath) {
		src, err := artifacts.NewS3Source(cfg.Models.Region)
		if err != nil {
			return nil, err
		}
		r.S3 = src
	}
	return r, nil
}

func ProvideModelCache(cfg *config.Config, src drepo.ArtifactSource, fc forecast.Config, l *applogger.Logger) *forecast.ModelCache {
	loader := forecast.NewArtifactLoader(src, cfg.Models.MeanPath, cfg.Models.VolatilityPath, fc)
	return forecast.NewModelCache(loader, cfg.Models.TTL, l)
}

func ProvideEngine(fc forecast.Config, mc *forecast.ModelCache) *forecast.Engine {
	return forecast.NewEngine(fc, mc)
}

func ProvideSeriesLoader(cfg *config.Config, store drepo.ReadingStore, p *forecast.Preparer, c cache.Service) *usecase.SeriesLoader {
	return usecase.NewSeriesLoader(store, p, c, cfg.Location.ID, cfg.Forecast.Lookback, cfg.Cache.SeriesTTL)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

func ProvideIngestor(store drepo.ReadingStore, hub *ws.Hub, m drepo.Metrics, series *usecase.SeriesLoader, l *applogger.Logger) *usecase.ReadingIngestor {
	return usecase.NewReadingIngestor(store, hub, m, series, l)
}

func ProvideOpenAQClient(cfg *config.Config, l *applogger.Logger) *openaq.Client {
	return openaq.NewClient(openaq.Config{
		BaseURL:   cfg.OpenAQ.BaseURL,
		APIKey:    cfg.OpenAQ.APIKey,
		Parameter: cfg.OpenAQ.Parameter,
		SensorID:  cfg.Location.SensorID,
		Timeout:   cfg.OpenAQ.Timeout,
	}, openaq.WithLogger(l))
}

func ProvideArchiveReader(cfg *config.Config, l *applogger.Logger) (*archive.Reader, error) {
	store, err := archive.NewS3Store(cfg.Archive.Region)
	if err != nil {
		return nil, err
	}
	return archive.NewReader(archive.Config{
		Bucket:    cfg.Archive.Bucket,
		Prefix:    cfg.Archive.Prefix,
		Region:    cfg.Archive.Region,
		Parameter: cfg.OpenAQ.Parameter,
	}, store, l), nil
}

// ProvideKafkaProducer returns nil unless readings or collected logs go to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Ingest.Mode != "kafka" && !cfg.Logging.Collect.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.Producer.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReadingPublisher is nil in direct mode so the sync job upserts itself.
func ProvideReadingPublisher(cfg *config.Config, producer *pkgkafka.Producer) drepo.ReadingPublisher {
	if cfg.Ingest.Mode != "kafka" || producer == nil {
		return nil
	}
	return internalrepo.NewKafkaReadingPublisher(producer, cfg.Kafka.Topic)
}

func ProvideSyncUseCase(cfg *config.Config, src *openaq.Client, ing *usecase.ReadingIngestor, pub drepo.ReadingPublisher, m drepo.Metrics, l *applogger.Logger) *usecase.SyncUseCase {
	job := usecase.NewSyncUseCase(src, ing, pub, m, cfg.Location.ID, cfg.Ingest.Timeout, l)
	job.TreatAsEmpty(openaq.ErrNoReading)
	return job
}

func ProvideBackfillUseCase(cfg *config.Config, r *archive.Reader, ing *usecase.ReadingIngestor, l *applogger.Logger) *usecase.BackfillUseCase {
	return usecase.NewBackfillUseCase(r, ing, cfg.Location.ID, l)
}

func ProvideDashboardUseCase(cfg *config.Config, series *usecase.SeriesLoader) *usecase.DashboardUseCase {
	policy := status.HealthPolicy{ActiveWithin: cfg.Health.ActiveWithin, DelayedWithin: cfg.Health.DelayedWithin}
	return usecase.NewDashboardUseCase(series, policy, cfg.Location.Name, cfg.Zone(), cfg.Forecast.MinValue, cfg.Forecast.MaxValue)
}

func ProvideForecastUseCase(
	cfg *config.Config,
	series *usecase.SeriesLoader,
	engine *forecast.Engine,
	mc *forecast.ModelCache,
	dash *usecase.DashboardUseCase,
	c cache.Service,
	m drepo.Metrics,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(series, engine, mc, dash, c, cfg.Cache.ForecastTTL, m, l)
}

// ProvideKafkaConsumer returns nil unless ingest.mode is kafka.
func ProvideKafkaConsumer(cfg *config.Config, ing *usecase.ReadingIngestor, m drepo.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if cfg.Ingest.Mode != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewKafkaReadingsHandler(cfg.Kafka.Topic, ing, m))
	consumer.WithConsumerHook(pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
			m.RecordError("consumer_handle")
			l.Warn("kafka message failed",
				applogger.String("topic", topic),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			)
		},
	})
	return consumer, nil
}

func ProvideScheduler(cfg *config.Config, job *usecase.SyncUseCase, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(job, cfg.Ingest.Interval, cfg.Ingest.Timeout, l)
}

func ProvideForecastHandler(cfg *config.Config, l *applogger.Logger, fc *usecase.ForecastUseCase, dash *usecase.DashboardUseCase, mc *forecast.ModelCache) *api.ForecastHandler {
	return api.NewForecastHandler(l, fc, dash, mc, cfg.Forecast.DefaultHorizon)
}

func ProvideHealthHandler(l *applogger.Logger, store drepo.ReadingStore, mc *forecast.ModelCache) *api.HealthHandler {
	return api.NewHealthHandler(l, store, mc)
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, fh *api.ForecastHandler, hh *api.HealthHandler, hub *ws.Hub) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	limiter := ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	return xhttp.NewServer([]xhttp.Handler{fh, hh, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithLogger(l),
		xhttp.WithMiddleware(middleware.RateLimit(limiter, "/health", "/ws/readings", metricsPath)),
	)
}

// ProvideTracer returns nil when tracing is disabled; spans then go to the no-op provider.
func ProvideTracer(cfg *config.Config) (*sdktrace.TracerProvider, error) {
	if !cfg.Tracing.Enabled {
		return nil, nil
	}
	tc := pkgotel.DefaultConfig("aircast")
	tc.Environment = cfg.Environment
	tc.CollectorEndpoint = cfg.Tracing.Endpoint
	tc.SamplingRate = cfg.Tracing.SamplingRate
	return pkgotel.InitTracer(context.Background(), tc)
}

// ProvideApp assembles the lifecycle and attaches the Kafka log collector when enabled.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	hub *ws.Hub,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	backend *Backend,
	c cache.Service,
	tp *sdktrace.TracerProvider,
) *server.App {
	opts := []server.Option{
		server.WithHub(hub),
		server.WithScheduler(sched),
		server.WithTracer(tp),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		server.WithCloser("store", backend.Client),
		server.WithCloser("cache", c),
	}
	if consumer != nil {
		opts = append(opts, server.WithConsumer(consumer))
	}
	if producer != nil {
		opts = append(opts, server.WithCloser("kafka producer", producer))
		if cfg.Logging.Collect.Enabled {
			l.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Logging.Collect.Interval,
				CountThreshold: cfg.Logging.Collect.Threshold,
				Topic:          cfg.Logging.Collect.Topic,
				Publisher:      producer,
			})
		}
	}
	return server.New(l, srv, opts...)
}

// Services is the use case set shared by the server and the aqctl CLI.
type Services struct {
	Sync      *usecase.SyncUseCase
	Backfill  *usecase.BackfillUseCase
	Dashboard *usecase.DashboardUseCase
	Forecast  *usecase.ForecastUseCase
	Models    *forecast.ModelCache

	closers []io.Closer
}

func ProvideServices(
	sync *usecase.SyncUseCase,
	backfill *usecase.BackfillUseCase,
	dash *usecase.DashboardUseCase,
	fc *usecase.ForecastUseCase,
	mc *forecast.ModelCache,
	producer *pkgkafka.Producer,
	backend *Backend,
	c cache.Service,
) *Services {
	s := &Services{Sync: sync, Backfill: backfill, Dashboard: dash, Forecast: fc, Models: mc}
	if producer != nil {
		s.closers = append(s.closers, producer)
	}
	s.closers = append(s.closers, c, backend.Client)
	return s
}

// Close releases the clients in dependency order.
func (s *Services) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
