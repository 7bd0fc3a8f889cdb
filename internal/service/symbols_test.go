package service

import (
	"errors"
	"reflect"
	"testing"
)

func TestIsValidCurrencyCode(t *testing.T) {
	tests := []struct {
		code  string
		valid bool
	}{
		{"USD", true},
		{"EUR", true},
		{"TRY", true},
		{"usd", true},   // should accept lowercase and convert
		{"US", false},   // too short
		{"USDA", false}, // too long
		{"US1", false},  // contains number
		{"US$", false},  // contains special char
		{"", false},     // empty
	}

	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			result := IsValidCurrencyCode(tc.code)
			if result != tc.valid {
				t.Errorf("IsValidCurrencyCode(%q) = %v, want %v", tc.code, result, tc.valid)
			}
		})
	}
}

func TestParseSymbols(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantAll bool
		wantErr error
	}{
		{name: "plain list", raw: "CAD,EUR,GBP", want: []string{"CAD", "EUR", "GBP"}},
		{name: "lowercase and spaces", raw: " cad , eur ", want: []string{"CAD", "EUR"}},
		{name: "dedupes", raw: "EUR,eur,EUR", want: []string{"EUR"}},
		{name: "skips empty parts", raw: "EUR,,GBP,", want: []string{"EUR", "GBP"}},
		{name: "all sentinel", raw: "ALL", wantAll: true},
		{name: "all sentinel lowercase", raw: "all", wantAll: true},
		{name: "invalid code", raw: "EUR,EURO", wantErr: ErrInvalidSymbol},
		{name: "numeric code", raw: "E12", wantErr: ErrInvalidSymbol},
		{name: "empty input", raw: "", wantErr: ErrNoSymbols},
		{name: "only separators", raw: ",,", wantErr: ErrNoSymbols},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, all, err := ParseSymbols(tc.raw)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSymbols(%q): %v", tc.raw, err)
			}
			if all != tc.wantAll {
				t.Errorf("expected all=%v, got %v", tc.wantAll, all)
			}
			if !tc.wantAll && !reflect.DeepEqual(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestWithBase(t *testing.T) {
	t.Run("appends missing base", func(t *testing.T) {
		got := withBase([]string{"EUR", "GBP"}, "USD")
		if !reflect.DeepEqual(got, []string{"EUR", "GBP", "USD"}) {
			t.Errorf("expected base appended, got %v", got)
		}
	})

	t.Run("keeps existing base", func(t *testing.T) {
		got := withBase([]string{"EUR", "USD"}, "USD")
		if !reflect.DeepEqual(got, []string{"EUR", "USD"}) {
			t.Errorf("expected list unchanged, got %v", got)
		}
	})
}
