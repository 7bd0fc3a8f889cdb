package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var _ RatesProvider = (*ExchangeProviderFacade)(nil)

// ExchangeProviderFacade is an abstraction that calls providers sequentially.
type ExchangeProviderFacade struct {
	providers []RatesProvider
	name      string
}

// NewExchangeProviderFacade creates a new ExchangeProviderFacade with the given list of providers.
func NewExchangeProviderFacade(providers ...RatesProvider) *ExchangeProviderFacade {
	f := &ExchangeProviderFacade{providers: providers}
	for _, p := range providers {
		if f.name != "" {
			f.name += "|"
		}
		f.name += p.Name()
	}
	return f
}

// Name reports the fallback chain, e.g. "exchangerate.host|frankfurter".
// Records carry the tag of the provider that actually served them, so the
// facade name only appears in logs.
func (p *ExchangeProviderFacade) Name() string { return p.name }

// FetchTimeframe calls providers sequentially until one succeeds.
func (p *ExchangeProviderFacade) FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error) {
	var errs []error
	for _, prov := range p.providers {
		obs, err := prov.FetchTimeframe(ctx, base, start, end, symbols)
		if err == nil {
			return obs, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}

// ListSymbols calls providers sequentially until one succeeds.
func (p *ExchangeProviderFacade) ListSymbols(ctx context.Context) ([]string, error) {
	var errs []error
	for _, prov := range p.providers {
		symbols, err := prov.ListSymbols(ctx)
		if err == nil {
			return symbols, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("all providers failed: %w", errors.Join(errs...))
}
