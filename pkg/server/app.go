package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	xhttp "AirCast/pkg/http"
	applogger "AirCast/pkg/logger"
	pkgotel "AirCast/pkg/otel"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type Scheduler interface {
	Start(ctx context.Context) error
	Stop()
}

type Hub interface {
	Run(ctx context.Context)
	Close() error
}

type Consumer interface {
	Start() error
	Stop(ctx context.Context) error
}

type HTTPServer interface {
	Start() error
	Stop(ctx context.Context) error
}

type namedCloser struct {
	name string
	c    io.Closer
}

// App owns the process lifecycle: background workers, the HTTP server and
// the infrastructure clients closed on shutdown.
type App struct {
	log             *applogger.Logger
	http            HTTPServer
	hub             Hub
	scheduler       Scheduler
	consumer        Consumer
	tracer          *sdktrace.TracerProvider
	closers         []namedCloser
	shutdownTimeout time.Duration
	cancel          context.CancelFunc
}

type Option func(*App)

func WithHub(h Hub) Option { return func(a *App) { a.hub = h } }

func WithScheduler(s Scheduler) Option { return func(a *App) { a.scheduler = s } }

func WithConsumer(c Consumer) Option { return func(a *App) { a.consumer = c } }

func WithTracer(tp *sdktrace.TracerProvider) Option { return func(a *App) { a.tracer = tp } }

func WithShutdownTimeout(d time.Duration) Option { return func(a *App) { a.shutdownTimeout = d } }

// WithCloser registers a client closed on shutdown, in reverse registration order.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

func New(l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	var h HTTPServer
	if srv != nil {
		h = srv
	}
	return newApp(l, h, opts...)
}

func newApp(l *applogger.Logger, srv HTTPServer, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{log: l, http: srv, shutdownTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches every component without blocking.
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	if a.hub != nil {
		go a.hub.Run(ctx)
	}
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}
	if a.scheduler != nil {
		if err := a.scheduler.Start(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
	}
	if a.http != nil {
		if err := a.http.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	a.log.Info("aircast started")
	return nil
}

// Run starts the app and blocks until ctx is done or SIGINT/SIGTERM arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		a.log.Error("startup failed", applogger.Error(err))
		_ = a.Shutdown(context.Background())
		return err
	}
	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.Shutdown(context.Background())
}

// Shutdown stops producers of work first, then the clients they write to.
func (a *App) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.shutdownTimeout)
	defer cancel()
	a.log.Info("shutting down")

	var errs []error
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.http != nil {
		if err := a.http.Stop(ctx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.hub != nil {
		_ = a.hub.Close()
	}
	if a.cancel != nil {
		a.cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("component", nc.name), applogger.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", nc.name, err))
		}
	}
	if a.tracer != nil {
		if err := pkgotel.Shutdown(ctx, a.tracer); err != nil {
			a.log.Warn("tracer shutdown error", applogger.Error(err))
		}
	}
	a.log.RemoveCollector()
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
