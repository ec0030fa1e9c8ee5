package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/inspectra/internal/domain"
	"github.com/samvad-hq/inspectra/internal/logger"
	"github.com/samvad-hq/inspectra/pkg/publishers"
	"github.com/samvad-hq/inspectra/pkg/sources"
)

// SourceProcessor runs fetch, dedupe, publish and mark for one source.
type SourceProcessor struct {
	registry  sources.FetcherRegistry
	publisher EventPublisher
	log       logger.Logger
	deduper   Deduper
}

// Result summarizes one processed source.
type Result struct {
	Fetched   int `json:"fetched"`
	Fresh     int `json:"fresh"`
	Published int `json:"published"`
}

func NewSourceProcessor(reg sources.FetcherRegistry, pub EventPublisher, log logger.Logger, deduper Deduper) *SourceProcessor {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &SourceProcessor{registry: reg, publisher: pub, log: log, deduper: deduper}
}

// Process handles src. idx is the source's position in the pass; every
// source after the first waits its request delay before fetching.
func (p *SourceProcessor) Process(ctx context.Context, src sources.Source, idx int) error {
	_, err := p.process(ctx, src, idx)
	return err
}

func (p *SourceProcessor) process(ctx context.Context, src sources.Source, idx int) (Result, error) {
	var res Result
	if idx > 0 {
		if err := sleepCtx(ctx, src.RequestDelay()); err != nil {
			return res, err
		}
	}

	fetcher, err := p.registry.FetcherFor(src)
	if err != nil {
		return res, fmt.Errorf("resolve fetcher for source %s: %w", src.ID, err)
	}

	records, err := fetcher.Fetch(ctx, src)
	if err != nil {
		return res, fmt.Errorf("fetch source %s: %w", src.ID, err)
	}
	res.Fetched = len(records)

	fresh := p.filterNewRecords(src, records)
	res.Fresh = len(fresh)
	if p.publisher == nil || len(fresh) == 0 {
		return res, nil
	}

	var errs []error
	for _, rec := range fresh {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		fp := sources.Fingerprint(rec)
		delivered, err := p.publisher.Publish(ctx, publishers.NewEvent(src.ID, fp, rec))
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s %s: %w", rec.Kind, rec.ID, err))
		}
		if delivered == 0 && err != nil {
			continue
		}
		if delivered > 0 {
			res.Published++
		}
		if p.deduper != nil {
			if err := p.deduper.MarkRecord(fp); err != nil {
				errs = append(errs, fmt.Errorf("mark %s %s: %w", rec.Kind, rec.ID, err))
			}
		}
	}
	return res, errors.Join(errs...)
}

// filterNewRecords drops records whose current revision was already
// delivered. A failed lookup keeps the record.
func (p *SourceProcessor) filterNewRecords(src sources.Source, records []domain.Record) []domain.Record {
	if p.deduper == nil {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		seen, err := p.deduper.SeenRecord(sources.Fingerprint(rec))
		if err != nil {
			p.log.WarnObj("dedupe lookup failed", "dedupe_error", map[string]any{
				"source_id": src.ID,
				"record_id": rec.ID,
				"error":     err.Error(),
			})
			out = append(out, rec)
			continue
		}
		if !seen {
			out = append(out, rec)
		}
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
