package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/inspectra/internal/app"
	"github.com/samvad-hq/inspectra/internal/config"
	"github.com/samvad-hq/inspectra/internal/logger"
)

func main() {
	once := flag.Bool("once", false, "run a single sync pass and exit")
	flag.Parse()

	if err := run(*once); err != nil {
		fmt.Fprintf(os.Stderr, "qcsync failed: %v\n", err)
		os.Exit(1)
	}
}

func run(once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sugar, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()
	log := logger.New(sugar)

	log.InfoObj("qcsync starting", "config", map[string]any{
		"api_root":      cfg.APIRoot,
		"api_prefix":    cfg.APIPrefix,
		"timeout_ms":    cfg.RequestTimeout.Milliseconds(),
		"storage_type":  cfg.StorageType,
		"sync_interval": cfg.SyncInterval.String(),
		"sources_file":  cfg.SourcesFile,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := app.NewSyncer(ctx, cfg, log, app.SessionOptions{Sugar: sugar})
	if err != nil {
		log.ErrorObj("failed to initialize syncer", "error", err.Error())
		return err
	}

	if once {
		return s.RunOnce(ctx)
	}
	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("syncer run: %w", err)
	}
	return nil
}
