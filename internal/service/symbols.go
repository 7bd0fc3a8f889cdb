package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSymbol indicates a currency code is not a 3-letter code.
var ErrInvalidSymbol = errors.New("invalid currency code format")

// ErrNoSymbols indicates the symbol list resolved to nothing.
var ErrNoSymbols = errors.New("no symbols to ingest")

// symbolsAll is the sentinel meaning "every symbol the provider supports".
const symbolsAll = "ALL"

// IsValidCurrencyCode checks whether a string is a valid 3-letter currency code.
func IsValidCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	code = strings.ToUpper(code)
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// ParseSymbols splits a comma-separated symbol list, uppercases and dedupes
// it, and validates each code. The second return is true when the list is the
// ALL sentinel.
func ParseSymbols(raw string) ([]string, bool, error) {
	if strings.EqualFold(strings.TrimSpace(raw), symbolsAll) {
		return nil, true, nil
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		code := strings.ToUpper(strings.TrimSpace(part))
		if code == "" {
			continue
		}
		if !IsValidCurrencyCode(code) {
			return nil, false, fmt.Errorf("%w: %q", ErrInvalidSymbol, code)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		symbols = append(symbols, code)
	}

	if len(symbols) == 0 {
		return nil, false, ErrNoSymbols
	}
	return symbols, false, nil
}

// withBase appends the base currency when absent so the identity rate is
// stored alongside the quoted symbols.
func withBase(symbols []string, base string) []string {
	for _, s := range symbols {
		if s == base {
			return symbols
		}
	}
	return append(symbols, base)
}
