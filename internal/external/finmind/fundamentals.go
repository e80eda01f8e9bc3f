package finmind

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/twscreener/internal/contracts"
)

const (
	valuationLookbackDays = 30
	revenueLookbackYears  = 2 // YoY 계산에 전년 동월이 필요
)

// perRow is one TaiwanStockPER row
type perRow struct {
	Date          string  `json:"date"`
	StockID       string  `json:"stock_id"`
	DividendYield float64 `json:"dividend_yield"`
	PER           float64 `json:"PER"`
	PBR           float64 `json:"PBR"`
}

// revenueRow is one TaiwanStockMonthRevenue row
type revenueRow struct {
	Date         string `json:"date"` // 공시 월
	StockID      string `json:"stock_id"`
	Country      string `json:"country"`
	Revenue      int64  `json:"revenue"`
	RevenueMonth int    `json:"revenue_month"`
	RevenueYear  int    `json:"revenue_year"`
}

// FetchValuation fetches the latest P/E snapshot
// Found is false when FinMind has no row in the lookback window.
func (c *Client) FetchValuation(ctx context.Context, code string) (contracts.Valuation, error) {
	params := url.Values{
		"data_id":    {code},
		"start_date": {c.clock.Now().AddDate(0, 0, -valuationLookbackDays).Format(dateLayout)},
	}

	rows, err := fetchDataset[perRow](ctx, c, DatasetStockPER, params)
	if err != nil {
		return contracts.Valuation{}, fmt.Errorf("fetch valuation %s: %w", code, err)
	}

	return latestValuation(rows), nil
}

func latestValuation(rows []perRow) contracts.Valuation {
	var latest contracts.Valuation
	for _, row := range rows {
		date, err := parseDate(row.Date)
		if err != nil {
			continue
		}
		if latest.Found && date.Before(latest.Date) {
			continue
		}
		latest = contracts.Valuation{
			Date:          date,
			PER:           row.PER,
			PBR:           row.PBR,
			DividendYield: row.DividendYield,
			Found:         true,
		}
	}
	return latest
}

// FetchRevenueHistory fetches monthly revenue with derived YoY growth
func (c *Client) FetchRevenueHistory(ctx context.Context, code string) (contracts.RevenueHistory, error) {
	params := url.Values{
		"data_id":    {code},
		"start_date": {c.clock.Now().AddDate(-revenueLookbackYears, 0, 0).Format(dateLayout)},
	}

	rows, err := fetchDataset[revenueRow](ctx, c, DatasetMonthRevenue, params)
	if err != nil {
		return nil, fmt.Errorf("fetch revenue %s: %w", code, err)
	}

	return deriveYoY(rows), nil
}

// deriveYoY computes growth against the same month one year earlier
// Months without a positive prior-year revenue are dropped.
func deriveYoY(rows []revenueRow) contracts.RevenueHistory {
	type period struct{ year, month int }

	byPeriod := make(map[period]int64, len(rows))
	periods := make([]period, 0, len(rows))
	for _, row := range rows {
		if row.RevenueYear == 0 || row.RevenueMonth < 1 || row.RevenueMonth > 12 {
			continue
		}
		p := period{row.RevenueYear, row.RevenueMonth}
		if _, dup := byPeriod[p]; !dup {
			periods = append(periods, p)
		}
		byPeriod[p] = row.Revenue
	}

	sort.Slice(periods, func(i, j int) bool {
		if periods[i].year != periods[j].year {
			return periods[i].year < periods[j].year
		}
		return periods[i].month < periods[j].month
	})

	history := make(contracts.RevenueHistory, 0, len(periods))
	for _, p := range periods {
		prior, ok := byPeriod[period{p.year - 1, p.month}]
		if !ok || prior <= 0 {
			continue
		}
		revenue := byPeriod[p]
		history = append(history, contracts.MonthlyRevenue{
			Month:     time.Date(p.year, time.Month(p.month), 1, 0, 0, 0, 0, time.UTC),
			Revenue:   revenue,
			YoYGrowth: float64(revenue-prior) / float64(prior) * 100,
		})
	}

	return history
}
