package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/holotrumps/internal/adapters/http/api"
	"github.com/okian/holotrumps/internal/adapters/http/schemadoc"
	service "github.com/okian/holotrumps/internal/app"
	"github.com/okian/holotrumps/internal/config"
	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the service and serves HTTP until ctx is canceled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx,
		tracing.WithServiceName(cfg.ServiceName),
		tracing.WithEndpoint(cfg.OTLPEndpoint),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	if cfg.SeedOnStart {
		seeded, err := svc.SeedIfEmpty(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "seed on start", logger.Bool("seeded", seeded))
	}

	scheduler, err := startJobs(ctx, cfg, svc, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Warn(ctx, "scheduler shutdown failed", logger.Error(err))
		}
	}()

	mux, err := newMux(ctx, svc, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// Wait for shutdown signal or a listener failure
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the game service from cfg without starting it.
func newService(cfg *config.Config, log logger.Logger) *service.Service {
	return service.New(
		service.WithLogger(log),
		service.WithTracer(tracing.Tracer("holotrumps/service")),
		service.WithTables(cfg.PeopleTable, cfg.StarshipsTable),
		service.WithListLimits(cfg.DefaultListLimit, cfg.MaxListLimit),
		service.WithStoreOpener(cfg.StoreBackend, storeOpener(cfg, log)),
	)
}

// newMux registers the API and schema documentation routes.
func newMux(ctx context.Context, svc *service.Service, log logger.Logger) (*http.ServeMux, error) {
	mux := http.NewServeMux()

	apiServer, err := api.NewServer(svc, svc, api.WithLogger(log.Named("graphql")))
	if err != nil {
		return nil, err
	}
	apiServer.Register(mux)

	schemadoc.Register(ctx, mux, "/graphql")
	return mux, nil
}
