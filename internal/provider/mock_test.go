package provider

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string {
	if m.name == "" {
		return "mock"
	}
	return m.name
}

func (m *MockProvider) FetchTimeframe(ctx context.Context, base string, start, end time.Time, symbols []string) ([]Observation, error) {
	args := m.Called(ctx, base, start, end, symbols)
	var obs []Observation
	if v := args.Get(0); v != nil {
		obs = v.([]Observation)
	}
	return obs, args.Error(1)
}

func (m *MockProvider) ListSymbols(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var symbols []string
	if v := args.Get(0); v != nil {
		symbols = v.([]string)
	}
	return symbols, args.Error(1)
}
