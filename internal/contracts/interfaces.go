package contracts

import (
	"context"
	"time"
)

// DataSource fetches market data from the upstream provider
// ⭐ SSOT: 외부 데이터 조회 인터페이스 (FinMind, retry decorator, test fakes)
//
// Every method is one upstream call and may fail transiently.
type DataSource interface {
	FetchInstruments(ctx context.Context) ([]Instrument, error)
	FetchPriceSeries(ctx context.Context, code string, start time.Time) (PriceSeries, error)
	FetchValuation(ctx context.Context, code string) (Valuation, error)
	FetchRevenueHistory(ctx context.Context, code string) (RevenueHistory, error)
}

// Notifier delivers operator-facing text
// ⭐ SSOT: 알림 인터페이스
//
// Delivery is best-effort: implementations log failures and never return them.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
