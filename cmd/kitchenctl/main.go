package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/kitchenctl/internal/api"
	"codeberg.org/mutker/kitchenctl/internal/config"
	"codeberg.org/mutker/kitchenctl/internal/delivery"
	"codeberg.org/mutker/kitchenctl/internal/engine"
	"codeberg.org/mutker/kitchenctl/internal/errors"
	"codeberg.org/mutker/kitchenctl/internal/logger"
	"codeberg.org/mutker/kitchenctl/internal/notify"
	"codeberg.org/mutker/kitchenctl/internal/pid"
	"codeberg.org/mutker/kitchenctl/internal/telemetry"
)

var cfg *config.Config

func init() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, logger.IsService()); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug().Msg("Config loaded")
}

func main() {
	if err := pid.Write(); err != nil {
		logger.Fatal().Err(err).Msg("failed to write pid file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	err := run(ctx)
	if rmErr := pid.Remove(); rmErr != nil {
		logger.Error().Err(rmErr).Msg("failed to remove pid file")
	}
	if err != nil {
		logger.Error().Err(err).Msg("error in main loop")
		os.Exit(1)
	}

	logger.Info().Msg("Exiting...")
}

func run(ctx context.Context) error {
	errFactory := errors.New()

	coreCfg, err := engine.FromConfig(cfg)
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	store, err := openStore()
	if err != nil {
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	dispatcher, err := delivery.New(cfg.Delivery)
	if err != nil {
		_ = store.Close()
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	if dispatcher != nil {
		defer func() {
			if err := dispatcher.Close(); err != nil {
				logger.Error().Err(err).Msg("failed to close delivery channel")
			}
		}()
	}

	collector, err := telemetry.NewCollector(telemetry.DefaultConfig())
	if err != nil {
		_ = store.Close()
		return errFactory.Wrap(errors.ErrInitApp, err)
	}

	opts := []engine.Option{
		engine.WithStore(store),
		engine.WithRecorder(collector),
	}
	if dispatcher != nil {
		opts = append(opts, engine.WithDispatcher(dispatcher))
	}

	eng, err := engine.New(coreCfg, opts...)
	if err != nil {
		_ = store.Close()
		return errFactory.Wrap(errors.ErrInitApp, err)
	}
	defer func() {
		if err := eng.Stop(); err != nil {
			logger.Error().Err(err).Msg("failed to stop engine")
		}
	}()

	if err := eng.Start(ctx); err != nil {
		return err
	}

	logger.Info().
		Dur("fast_interval", cfg.FastInterval).
		Dur("slow_interval", cfg.SlowInterval).
		Str("store", cfg.Store.Driver).
		Str("delivery", cfg.Delivery.Driver).
		Msg("Kitchen monitor running")

	if cfg.HTTP.Listen == "" {
		<-ctx.Done()
		return nil
	}

	return serve(ctx, api.NewHandler(eng, collector.Handler()).Router())
}

func openStore() (notify.Store, error) {
	if cfg.Store.Driver == "sqlite" {
		return notify.NewSQLiteStore(cfg.Store.Path, logger.For("store"))
	}

	return notify.NewMemoryStore(), nil
}

func serve(ctx context.Context, h http.Handler) error {
	srv := api.NewServer(cfg.HTTP.Listen, h)

	errCh, err := srv.Start()
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	return srv.Shutdown(context.Background())
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
