package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedRatesProviderDecorator wraps a RatesProvider with Redis caching of
// raw responses. Retried or re-enqueued ingest chunks must not re-spend the
// source's request quota (exchangerate.host allows 100 requests/month on the
// free plan).
type CachedRatesProviderDecorator struct {
	provider     RatesProvider
	cache        *redis.Client
	ttl          time.Duration
	providerName string
}

// NewCachedRatesProvider creates a new CachedRatesProviderDecorator.
func NewCachedRatesProvider(provider RatesProvider, cache *redis.Client, ttl time.Duration, providerName string) *CachedRatesProviderDecorator {
	return &CachedRatesProviderDecorator{
		provider:     provider,
		cache:        cache,
		ttl:          ttl,
		providerName: providerName,
	}
}

// Name delegates to the wrapped provider.
func (p *CachedRatesProviderDecorator) Name() string { return p.provider.Name() }

func (p *CachedRatesProviderDecorator) timeframeKey(base string, start, end time.Time, symbols []string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.Join(symbols, ",")))
	return fmt.Sprintf("provider_cache:%s:timeframe:{%s:%s:%s:%x}",
		p.providerName, base, start.Format(dateLayout), end.Format(dateLayout), h.Sum64())
}

func (p *CachedRatesProviderDecorator) symbolsKey() string {
	return fmt.Sprintf("provider_cache:%s:symbols", p.providerName)
}

// FetchTimeframe attempts to serve the window from cache before calling the
// underlying provider.
func (p *CachedRatesProviderDecorator) FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error) {
	if p.cache == nil {
		return p.provider.FetchTimeframe(ctx, base, start, end, symbols)
	}

	key := p.timeframeKey(base, start, end, symbols)

	// check cache
	if raw, err := p.cache.Get(ctx, key).Bytes(); err == nil {
		var obs []Observation
		if err := json.Unmarshal(raw, &obs); err == nil {
			return obs, nil
		}
	}

	obs, err := p.provider.FetchTimeframe(ctx, base, start, end, symbols)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(obs); err == nil {
		_ = p.cache.Set(ctx, key, raw, p.ttl).Err()
	}

	return obs, nil
}

// ListSymbols attempts to serve the symbol list from cache before calling the
// underlying provider.
func (p *CachedRatesProviderDecorator) ListSymbols(ctx context.Context) ([]string, error) {
	if p.cache == nil {
		return p.provider.ListSymbols(ctx)
	}

	key := p.symbolsKey()

	if raw, err := p.cache.Get(ctx, key).Bytes(); err == nil {
		var symbols []string
		if err := json.Unmarshal(raw, &symbols); err == nil {
			return symbols, nil
		}
	}

	symbols, err := p.provider.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(symbols); err == nil {
		_ = p.cache.Set(ctx, key, raw, p.ttl).Err()
	}

	return symbols, nil
}

var _ RatesProvider = (*CachedRatesProviderDecorator)(nil)
