package finmind

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/twscreener/internal/contracts"
)

// priceRow is one TaiwanStockPrice row
type priceRow struct {
	Date            string  `json:"date"`
	StockID         string  `json:"stock_id"`
	TradingVolume   int64   `json:"Trading_Volume"` // 주
	TradingMoney    int64   `json:"Trading_money"`
	Open            float64 `json:"open"`
	Max             float64 `json:"max"`
	Min             float64 `json:"min"`
	Close           float64 `json:"close"`
	Spread          float64 `json:"spread"`
	TradingTurnover float64 `json:"Trading_turnover"`
}

// FetchPriceSeries fetches daily bars from start through today
func (c *Client) FetchPriceSeries(ctx context.Context, code string, start time.Time) (contracts.PriceSeries, error) {
	params := url.Values{
		"data_id":    {code},
		"start_date": {start.Format(dateLayout)},
	}

	rows, err := fetchDataset[priceRow](ctx, c, DatasetStockPrice, params)
	if err != nil {
		return nil, fmt.Errorf("fetch prices %s: %w", code, err)
	}

	return parsePriceRows(rows), nil
}

// parsePriceRows converts rows into a date-ascending series
// 거래 없는 날(거래량 0, 종가 0)과 날짜 파싱 실패 행은 제외
func parsePriceRows(rows []priceRow) contracts.PriceSeries {
	series := make(contracts.PriceSeries, 0, len(rows))
	for _, row := range rows {
		date, err := parseDate(row.Date)
		if err != nil {
			continue
		}
		if row.Close <= 0 {
			continue
		}
		series = append(series, contracts.DailyBar{
			Date:   date,
			Open:   row.Open,
			High:   row.Max,
			Low:    row.Min,
			Close:  row.Close,
			Volume: row.TradingVolume,
		})
	}

	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
	return series
}
