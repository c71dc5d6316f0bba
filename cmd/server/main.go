package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/xtding233/dicestats/internal/app"
	"github.com/xtding233/dicestats/internal/config"
	"github.com/xtding233/dicestats/internal/dice"
	"github.com/xtding233/dicestats/internal/preset"
	"github.com/xtding233/dicestats/internal/storage/memory"
	"github.com/xtding233/dicestats/internal/storage/postgres"
	"github.com/xtding233/dicestats/internal/storage/sqlite"
	"github.com/xtding233/dicestats/internal/storage/yamlfile"
	"github.com/xtding233/dicestats/internal/transport/grpcapi"
	"github.com/xtding233/dicestats/internal/transport/httpapi"
)

const ConfigPath = "config/dicestats.yaml"

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv(config.EnvPrefix + "CONFIG"); p != "" {
		cfgPath = p
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "path to the YAML config file")
	seed := flag.Uint64("seed", 0, "seed the roll generator for reproducible runs (0 uses crypto/rand)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	slog.Info("config loaded", "path", cfgPath, "http", cfg.HTTPAddr, "grpc", cfg.GRPCAddr, "store", cfg.Store.Driver)

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}
	defer closeStore()

	rng := dice.DefaultRNG()
	if *seed != 0 {
		rng = dice.NewSeededRNG(*seed)
	}
	session, err := app.NewSession(ctx, store, app.Options{
		Key:      cfg.Store.Key,
		Defaults: cfg.SessionDefaults(),
		Limits:   cfg.SessionLimits(),
		RNG:      rng,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	slog.Info("session ready", "presets", len(session.State().Presets))

	// presets were read once above; edits on disk are only reported
	if fs, ok := store.(*yamlfile.Store); ok && cfg.WatchInterval > 0 {
		go fs.Watch(ctx, cfg.WatchInterval, func(mtime time.Time) {
			slog.Warn("presets file changed on disk, next save overwrites it", "path", fs.Path(), "mtime", mtime)
		})
	}

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.New(session, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if grpcLis != nil {
		grpcSrv := grpc.NewServer()
		grpcapi.Register(grpcSrv, grpcapi.NewService(session, logger))
		g.Go(func() error {
			slog.Info("starting grpc server", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("shut down")
	return nil
}

func openStore(ctx context.Context, sc config.StoreConfig) (preset.Store, func(), error) {
	switch sc.Driver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	case config.DriverYAML:
		return yamlfile.New(sc.Path), func() {}, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(sc.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Warn("closing sqlite store", "err", err)
			}
		}, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", sc.Driver)
}
