// Package provider implements external sources for daily currency exchange rates.
package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Observation is a single dated rate quoted against the base currency.
// Source names the provider that served it; behind a fallback facade this can
// differ per fetch.
type Observation struct {
	Date   time.Time       `json:"date"`
	Symbol string          `json:"symbol"`
	Rate   decimal.Decimal `json:"rate"`
	Source string          `json:"source"`
}

// RatesProvider defines an interface for fetching historic exchange rates
// from external sources.
type RatesProvider interface {
	// Name identifies the source; it becomes the provider tag on stored records.
	Name() string
	// FetchTimeframe returns daily rates for every requested symbol within
	// [start, end] inclusive. Implementations bound the window; callers chunk
	// larger ranges.
	FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error)
	// ListSymbols returns every currency code the source supports.
	ListSymbols(ctx context.Context) ([]string, error)
}
