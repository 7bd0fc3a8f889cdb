// Package service implements the core business logic for rate ingestion.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ratefeed/internal/config"
	"ratefeed/internal/provider"
	"ratefeed/internal/repository"
)

// TaskTypeIngestChunk is the Asynq task type for chunk ingestion jobs.
const TaskTypeIngestChunk = "rates:ingest_chunk"

// ChunkPayload is the payload structure for chunk ingestion Asynq tasks.
// Empty Start/End mean "refresh": the window is resolved to the trailing
// lookback days when the task is processed, not when it was enqueued.
// Empty Base and Symbols fall back to the configured defaults.
type ChunkPayload struct {
	Base    string   `json:"base,omitempty"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// ChunkEnqueuer enqueues chunk ingestion tasks for background processing.
type ChunkEnqueuer interface {
	EnqueueChunk(ctx context.Context, payload ChunkPayload) error
}

// IngestServiceInterface defines the operations available for rate ingestion.
type IngestServiceInterface interface {
	EnqueueBackfill(ctx context.Context) (int, error)
	ProcessChunk(ctx context.Context, payload ChunkPayload) (int64, error)
}

// IngestService defines business logic for fetching and storing daily rates.
type IngestService struct {
	repo     repository.RateRepository
	provider provider.RatesProvider
	enqueuer ChunkEnqueuer
	log      *zap.SugaredLogger
	cfg      config.IngestConfig
}

// NewIngestService creates a new IngestService.
func NewIngestService(repo repository.RateRepository, prov provider.RatesProvider, enqueuer ChunkEnqueuer, logger *zap.SugaredLogger, cfg config.IngestConfig) *IngestService {
	return &IngestService{
		repo:     repo,
		provider: prov,
		enqueuer: enqueuer,
		log:      logger,
		cfg:      cfg,
	}
}

// EnqueueBackfill plans the configured backfill range and enqueues one chunk
// task per window. Returns the number of enqueued chunks. Chunks are
// idempotent, so re-running a backfill over an ingested range is safe.
func (s *IngestService) EnqueueBackfill(ctx context.Context) (int, error) {
	start, err := ParseIngestDate(s.cfg.BackfillStart)
	if err != nil {
		return 0, fmt.Errorf("backfill start %q: %w", s.cfg.BackfillStart, err)
	}
	end, err := ParseIngestDate(s.cfg.BackfillEnd)
	if err != nil {
		return 0, fmt.Errorf("backfill end %q: %w", s.cfg.BackfillEnd, err)
	}
	if end.Before(start) {
		return 0, fmt.Errorf("%w: %s..%s", ErrInvalidDateRange, s.cfg.BackfillStart, s.cfg.BackfillEnd)
	}

	chunks := PlanChunks(start, end, s.cfg.BatchDays)
	for _, c := range chunks {
		payload := ChunkPayload{
			Base:  s.cfg.BaseCurrency,
			Start: c.Start.Format(dateLayout),
			End:   c.End.Format(dateLayout),
		}
		if err := s.enqueuer.EnqueueChunk(ctx, payload); err != nil {
			return 0, fmt.Errorf("enqueue chunk %s..%s: %w", payload.Start, payload.End, err)
		}
	}

	s.log.Infow("Backfill enqueued",
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

// ProcessChunk fetches the window from the provider and upserts the resulting
// rows (called by the background worker). Returns the number of rows written,
// or the number of rows planned when dry-run is enabled.
func (s *IngestService) ProcessChunk(ctx context.Context, payload ChunkPayload) (int64, error) {
	base := strings.ToUpper(strings.TrimSpace(payload.Base))
	if base == "" {
		base = s.cfg.BaseCurrency
	}
	if !IsValidCurrencyCode(base) {
		return 0, fmt.Errorf("%w: base %q", ErrInvalidSymbol, payload.Base)
	}

	start, end, err := s.resolveWindow(payload)
	if err != nil {
		return 0, err
	}

	symbols, err := s.resolveSymbols(ctx, payload, base)
	if err != nil {
		return 0, err
	}

	s.log.Infow("Processing chunk",
		"base", base,
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
		"symbols", len(symbols),
	)

	observations, err := s.provider.FetchTimeframe(ctx, base, start, end, symbols)
	if err != nil {
		s.log.Errorw("Provider fetch failed", "start", start.Format(dateLayout), "end", end.Format(dateLayout), "error", err)
		return 0, err
	}

	rows := s.toRecords(observations, base)
	if s.cfg.DryRun {
		s.log.Infow("Dry-run mode: skipping DB write", "rows", len(rows))
		return int64(len(rows)), nil
	}

	var written int64
	for batchStart := 0; batchStart < len(rows); batchStart += s.cfg.UpsertBatchSize {
		batchEnd := batchStart + s.cfg.UpsertBatchSize
		if batchEnd > len(rows) {
			batchEnd = len(rows)
		}
		n, err := s.repo.UpsertBatch(ctx, rows[batchStart:batchEnd])
		if err != nil {
			s.log.Errorw("Upsert batch failed", "offset", batchStart, "error", err)
			return written, err
		}
		written += n
	}

	s.log.Infow("Chunk ingested", "rows", written)
	return written, nil
}

// resolveWindow turns the payload dates into a concrete [start, end] window.
func (s *IngestService) resolveWindow(payload ChunkPayload) (start, end time.Time, err error) {
	if payload.Start == "" && payload.End == "" {
		// Refresh task: trailing window ending today.
		end = today()
		start = end.AddDate(0, 0, -(s.cfg.RefreshLookbackDays - 1))
		return start, end, nil
	}

	start, err = ParseIngestDate(payload.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("chunk start %q: %w", payload.Start, err)
	}
	end, err = ParseIngestDate(payload.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("chunk end %q: %w", payload.End, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s..%s", ErrInvalidDateRange, payload.Start, payload.End)
	}
	return start, end, nil
}

// resolveSymbols produces the final symbol list for a chunk, expanding the
// ALL sentinel through the provider and always including the base currency.
func (s *IngestService) resolveSymbols(ctx context.Context, payload ChunkPayload, base string) ([]string, error) {
	raw := strings.Join(payload.Symbols, ",")
	if raw == "" {
		raw = s.cfg.Symbols
	}

	symbols, all, err := ParseSymbols(raw)
	if err != nil {
		return nil, err
	}
	if all {
		symbols, err = s.provider.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("expand ALL symbols: %w", err)
		}
		s.log.Infow("Expanded symbol list from provider", "symbols", len(symbols))
	}
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	return withBase(symbols, base), nil
}

// toRecords maps provider observations onto storable rows.
func (s *IngestService) toRecords(observations []provider.Observation, base string) []repository.ExchangeRate {
	fetchedAt := time.Now().UTC()
	rows := make([]repository.ExchangeRate, 0, len(observations))
	for _, obs := range observations {
		source := obs.Source
		if source == "" {
			source = s.provider.Name()
		}
		rows = append(rows, repository.ExchangeRate{
			RateDate:     obs.Date,
			BaseCurrency: base,
			Symbol:       obs.Symbol,
			Rate:         obs.Rate,
			Provider:     source,
			FetchedAt:    fetchedAt,
		})
	}
	return rows
}
