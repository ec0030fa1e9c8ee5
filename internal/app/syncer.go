package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/inspectra/internal/config"
	"github.com/samvad-hq/inspectra/internal/logger"
	"github.com/samvad-hq/inspectra/internal/syncer"
	"github.com/samvad-hq/inspectra/pkg/publishers"
	"github.com/samvad-hq/inspectra/pkg/sources"
)

// Syncer is the qcsync runtime. It owns the sync loop and the resources the
// passes share: the session stack and the publisher fanout.
type Syncer struct {
	cfg          *config.Config
	session      *Session
	fanout       *publishers.Fanout
	service      *syncer.Service
	syncInterval time.Duration
	log          logger.Logger
}

// NewSyncer builds a syncer runtime from config files.
func NewSyncer(ctx context.Context, cfg *config.Config, log logger.Logger, opts SessionOptions) (*Syncer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := sources.LoadSources(cfg.SourcesFile); err != nil {
		return nil, fmt.Errorf("load sources registry: %w", err)
	}
	srcs := sources.Sources()
	sourceIDs := make([]string, 0, len(srcs))
	for _, s := range srcs {
		sourceIDs = append(sourceIDs, s.ID)
	}
	log.InfoObj("sources registry loaded", "sources_meta", map[string]any{
		"count": len(sourceIDs),
		"ids":   sourceIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]any, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]any{
			"id":    pubCfg.ID,
			"type":  pubCfg.Type,
			"kinds": pubCfg.Kinds,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	session, err := OpenSession(cfg, log, opts)
	if err != nil {
		return nil, errors.Join(err, fanout.Close())
	}

	service := syncer.NewService(sources.DefaultFetcherRegistry(session.Clients.Scoped), fanout, log, session.Store)

	return &Syncer{
		cfg:          cfg,
		session:      session,
		fanout:       fanout,
		service:      service,
		syncInterval: cfg.SyncInterval,
		log:          log,
	}, nil
}

// Run starts the sync loop until the context is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if s == nil || s.service == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.close()

	srcs := sources.Sources()
	if len(srcs) == 0 {
		s.log.WarnObj("no sources configured; syncer idle", "sources_file", s.cfg.SourcesFile)
		<-ctx.Done()
		return nil
	}

	state, _ := s.session.Creds.State()
	s.log.InfoObj("sync loop starting", "syncer_state", map[string]any{
		"sources_count":    len(srcs),
		"publishers_count": s.fanout.Size(),
		"sync_interval":    s.syncInterval.String(),
		"api_root":         s.cfg.APIRoot,
		"session":          state.String(),
	})

	s.runPass(ctx, srcs, "initial")

	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("sync loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			s.runPass(ctx, srcs, "scheduled")
		}
	}
}

// RunOnce performs a single pass and releases resources.
func (s *Syncer) RunOnce(ctx context.Context) error {
	if s == nil || s.service == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.close()
	return s.runOnce(ctx, sources.Sources())
}

func (s *Syncer) runPass(ctx context.Context, srcs []sources.Source, label string) {
	err := s.runOnce(ctx, srcs)
	switch {
	case err == nil:
	case errors.Is(err, syncer.ErrSessionRejected):
		// Already logged by the service; the next tick retries with whatever
		// credential is available then.
		s.log.WarnObj(label+" sync pass ended early", "error", err.Error())
	default:
		s.log.ErrorObj(label+" sync pass failed", "error", err.Error())
	}
}

// runOnce performs a single sync pass across all sources.
func (s *Syncer) runOnce(ctx context.Context, srcs []sources.Source) error {
	start := time.Now()
	s.log.InfoObj("sync started", "sync_meta", map[string]any{
		"sources_count": len(srcs),
		"started_at":    start.UTC(),
	})
	if err := s.service.Run(ctx, srcs); err != nil {
		return err
	}
	s.log.InfoObj("sync completed", "sync_meta", map[string]any{
		"sources_count": len(srcs),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases publishers and the token store, logging any errors.
func (s *Syncer) close() {
	if s == nil {
		return
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err.Error())
	}
	if err := s.session.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err.Error())
	}
}
