package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/inspectra/internal/logger"
	"github.com/samvad-hq/inspectra/pkg/httpclient"
	"github.com/samvad-hq/inspectra/pkg/sources"
)

// ErrSessionRejected ends a pass early: the backend refused the token and
// the interceptor has already cleared it, so later sources would fail too.
var ErrSessionRejected = errors.New("session rejected by backend")

// Service coordinates a sync pass across sources.
type Service struct {
	processor *SourceProcessor
	log       logger.Logger
}

// NewService wires a syncer over the fetcher registry, publisher and deduper.
func NewService(reg sources.FetcherRegistry, pub EventPublisher, log logger.Logger, deduper Deduper) *Service {
	p := NewSourceProcessor(reg, pub, log, deduper)
	return &Service{processor: p, log: p.log}
}

// Run executes a sync pass for srcs.
func (s *Service) Run(ctx context.Context, srcs []sources.Source) error {
	if s == nil || s.processor == nil || s.processor.registry == nil {
		return fmt.Errorf("syncer service is not initialized")
	}
	if len(srcs) == 0 {
		return fmt.Errorf("no sources configured for sync")
	}

	return errors.Join(s.runAll(ctx, srcs)...)
}

func (s *Service) runAll(ctx context.Context, srcs []sources.Source) []error {
	errs := make([]error, 0, len(srcs))

	for i, src := range srcs {
		if ctx.Err() != nil {
			return errs
		}

		res, err := s.processor.process(ctx, src, i)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return errs
		}
		if httpclient.IsUnauthorized(err) {
			s.log.WarnObj("session rejected; stopping sync pass", "auth_event", map[string]any{
				"source_id": src.ID,
				"hint":      "run qcctl login to store a new token",
			})
			return append(errs, fmt.Errorf("source %s: %w: %w", src.ID, ErrSessionRejected, err))
		}
		if err != nil {
			errs = append(errs, err)
			s.log.ErrorObj("source sync failed", "source_error", map[string]any{
				"source_id": src.ID,
				"error":     err.Error(),
			})
			continue
		}

		s.log.InfoObj("source sync completed", "source_result", map[string]any{
			"source_id": src.ID,
			"kind":      src.Kind,
			"fetched":   res.Fetched,
			"fresh":     res.Fresh,
			"published": res.Published,
		})
	}

	return errs
}
