package retry

import (
	"context"
	"time"

	"github.com/wonny/twscreener/internal/contracts"
)

// Source decorates a DataSource so every fetch goes through Do
// Each of the four capabilities is retried independently: a price fetch that
// succeeds on its third attempt does not make the valuation fetch start over.
type Source struct {
	inner  contracts.DataSource
	caller *Caller
}

// NewSource wraps inner with caller
func NewSource(inner contracts.DataSource, caller *Caller) *Source {
	return &Source{inner: inner, caller: caller}
}

func (s *Source) FetchInstruments(ctx context.Context) ([]contracts.Instrument, error) {
	return Do(ctx, s.caller, "instruments", s.inner.FetchInstruments)
}

func (s *Source) FetchPriceSeries(ctx context.Context, code string, start time.Time) (contracts.PriceSeries, error) {
	return Do(ctx, s.caller, "price_series:"+code, func(ctx context.Context) (contracts.PriceSeries, error) {
		return s.inner.FetchPriceSeries(ctx, code, start)
	})
}

func (s *Source) FetchValuation(ctx context.Context, code string) (contracts.Valuation, error) {
	return Do(ctx, s.caller, "valuation:"+code, func(ctx context.Context) (contracts.Valuation, error) {
		return s.inner.FetchValuation(ctx, code)
	})
}

func (s *Source) FetchRevenueHistory(ctx context.Context, code string) (contracts.RevenueHistory, error) {
	return Do(ctx, s.caller, "revenue:"+code, func(ctx context.Context) (contracts.RevenueHistory, error) {
		return s.inner.FetchRevenueHistory(ctx, code)
	})
}
