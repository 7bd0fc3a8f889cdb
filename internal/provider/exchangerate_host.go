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

var _ RatesProvider = (*ExchangeRateHostProvider)(nil)

const dateLayout = "2006-01-02"

// ExchangeRateHostProvider fetches rates from the exchangerate.host API.
type ExchangeRateHostProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewExchangeRateHostProvider creates a new ExchangeRateHostProvider with the given configuration.
func NewExchangeRateHostProvider(baseURL, apiKey string, timeoutSec int) *ExchangeRateHostProvider {
	if baseURL == "" {
		baseURL = "https://api.exchangerate.host"
	}
	return &ExchangeRateHostProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

// Name returns the provider tag stored alongside ingested records.
func (p *ExchangeRateHostProvider) Name() string { return "exchangerate.host" }

// timeframeURL forms the API URL for fetching rates over a date range.
func (p *ExchangeRateHostProvider) timeframeURL(base string, start, end time.Time, symbols []string) string {
	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("source", base)
	q.Set("start_date", start.Format(dateLayout))
	q.Set("end_date", end.Format(dateLayout))
	if len(symbols) > 0 {
		q.Set("currencies", strings.Join(symbols, ","))
	}
	return p.baseURL + "/timeframe?" + q.Encode()
}

// exchangerate.host timeframe API response structure. Depending on the plan,
// daily data arrives under "quotes" (pair keys like "USDEUR") or "rates"
// (plain symbol keys).
type erHostTimeframeResponse struct {
	Success bool                          `json:"success"`
	Source  string                        `json:"source"`
	Quotes  map[string]map[string]float64 `json:"quotes"`
	Rates   map[string]map[string]float64 `json:"rates"`
	Error   struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// exchangerate.host list API response structure.
type erHostListResponse struct {
	Success    bool              `json:"success"`
	Currencies map[string]string `json:"currencies"`
	Error      struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// FetchTimeframe fetches daily rates for [start, end] inclusive. The window
// must not exceed 365 days; the API rejects longer spans.
func (p *ExchangeRateHostProvider) FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error) {
	reqURL := p.timeframeURL(base, start, end, symbols)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("external API request creation failed: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("external API returned status %d: %s", resp.StatusCode, string(body))
	}
	var result erHostTimeframeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode external API response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("external API returned success=false: %s", result.Error.Info)
	}

	daily := result.Quotes
	if daily == nil {
		daily = result.Rates
	}
	if daily == nil {
		return nil, fmt.Errorf("external API response has neither quotes nor rates")
	}

	return normalizeTimeframe(base, p.Name(), daily)
}

// normalizeTimeframe flattens {date: {pairKey: rate}} into sorted observations,
// stripping the "USDEUR"-style base prefix from pair keys when present.
func normalizeTimeframe(base, source string, daily map[string]map[string]float64) ([]Observation, error) {
	var out []Observation
	for dateStr, quotes := range daily {
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("unexpected date key %q in external API response: %w", dateStr, err)
		}
		for key, rate := range quotes {
			sym := key
			if strings.HasPrefix(key, base) && len(key) == len(base)+3 {
				sym = key[len(base):]
			}
			out = append(out, Observation{
				Date:   date,
				Symbol: sym,
				Rate:   decimal.NewFromFloat(rate),
				Source: source,
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

// ListSymbols fetches the full list of supported currency codes. Costs one API request.
func (p *ExchangeRateHostProvider) ListSymbols(ctx context.Context) ([]string, error) {
	reqURL := p.baseURL + "/list?access_key=" + url.QueryEscape(p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("external API request creation failed: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external API request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("external API returned status %d: %s", resp.StatusCode, string(body))
	}
	var result erHostListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode external API response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("external API returned success=false: %s", result.Error.Info)
	}

	symbols := make([]string, 0, len(result.Currencies))
	for code := range result.Currencies {
		symbols = append(symbols, code)
	}
	sort.Strings(symbols)
	return symbols, nil
}
