package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrankfurterProvider_FetchTimeframe(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/2024-03-01..2024-03-04", r.URL.Path)
			assert.Equal(t, "USD", r.URL.Query().Get("base"))
			assert.Equal(t, "EUR,JPY", r.URL.Query().Get("symbols"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"amount": 1.0,
				"base": "USD",
				"start_date": "2024-03-01",
				"end_date": "2024-03-04",
				"rates": {
					"2024-03-04": {"EUR": 0.922, "JPY": 150.3},
					"2024-03-01": {"EUR": 0.925, "JPY": 150.1}
				}
			}`))
		}))
		defer srv.Close()

		p := NewFrankfurterProvider(srv.URL, 5)

		got, err := p.FetchTimeframe(context.Background(), "USD", start, end, []string{"EUR", "JPY"})
		require.NoError(t, err)
		require.Len(t, got, 4)

		assert.Equal(t, "EUR", got[0].Symbol)
		assert.True(t, got[0].Date.Equal(start))
		assert.Equal(t, "0.925", got[0].Rate.String())
		assert.Equal(t, "JPY", got[1].Symbol)
		assert.Equal(t, "EUR", got[2].Symbol)
		assert.True(t, got[2].Date.Equal(end))
		for _, o := range got {
			assert.Equal(t, "frankfurter", o.Source)
		}
	})

	t.Run("weekend gap returns no observations", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"amount": 1.0, "base": "USD", "rates": {}}`))
		}))
		defer srv.Close()

		p := NewFrankfurterProvider(srv.URL, 5)

		got, err := p.FetchTimeframe(context.Background(), "USD", start, end, nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("non-200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer srv.Close()

		p := NewFrankfurterProvider(srv.URL, 5)

		_, err := p.FetchTimeframe(context.Background(), "USD", start, end, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})
}

func TestFrankfurterProvider_ListSymbols(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/currencies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"CHF": "Swiss Franc", "EUR": "Euro", "AUD": "Australian Dollar"}`))
	}))
	defer srv.Close()

	p := NewFrankfurterProvider(srv.URL, 5)

	got, err := p.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AUD", "CHF", "EUR"}, got)
}

func TestFrankfurterProvider_Name(t *testing.T) {
	p := NewFrankfurterProvider("", 5)
	assert.Equal(t, "frankfurter", p.Name())
}
