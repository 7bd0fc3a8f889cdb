package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var _ RatesProvider = (*FrankfurterProvider)(nil)

// FrankfurterProvider fetches rates from the Frankfurter API. It needs no API
// key and serves as the fallback source.
type FrankfurterProvider struct {
	baseURL string
	client  *http.Client
}

// NewFrankfurterProvider creates a new FrankfurterProvider.
func NewFrankfurterProvider(baseURL string, timeoutSec int) *FrankfurterProvider {
	if baseURL == "" {
		baseURL = "https://api.frankfurter.dev/v1"
	}
	return &FrankfurterProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the provider tag stored alongside ingested records.
func (p *FrankfurterProvider) Name() string { return "frankfurter" }

type frankfurterTimeframeResponse struct {
	Amount    float64                       `json:"amount"`
	Base      string                        `json:"base"`
	StartDate string                        `json:"start_date"`
	EndDate   string                        `json:"end_date"`
	Rates     map[string]map[string]float64 `json:"rates"`
}

// FetchTimeframe retrieves daily rates via the history endpoint
// ("/2020-01-01..2020-12-31"). Frankfurter only publishes business days.
func (p *FrankfurterProvider) FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error) {
	q := url.Values{}
	q.Set("base", base)
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	reqURL := fmt.Sprintf("%s/%s..%s?%s",
		p.baseURL, start.Format(dateLayout), end.Format(dateLayout), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("frankfurter API request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("frankfurter API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("frankfurter API returned status %d: %s", resp.StatusCode, string(body))
	}

	var result frankfurterTimeframeResponse
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode frankfurter API response: %w", err)
	}

	var out []Observation
	for dateStr, rates := range result.Rates {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("unexpected date key %q in frankfurter response: %w", dateStr, err)
		}
		for sym, rate := range rates {
			out = append(out, Observation{
				Date:   date,
				Symbol: sym,
				Rate:   decimal.NewFromFloat(rate),
				Source: p.Name(),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

// ListSymbols fetches the supported currency codes from the currencies endpoint.
func (p *FrankfurterProvider) ListSymbols(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/currencies", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("frankfurter API request creation failed: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("frankfurter API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("frankfurter API returned status %d: %s", resp.StatusCode, string(body))
	}

	var currencies map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&currencies); err != nil {
		return nil, fmt.Errorf("failed to decode frankfurter API response: %w", err)
	}

	symbols := make([]string, 0, len(currencies))
	for code := range currencies {
		symbols = append(symbols, code)
	}
	sort.Strings(symbols)
	return symbols, nil
}
