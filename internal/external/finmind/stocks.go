package finmind

import (
	"context"
	"fmt"

	"github.com/wonny/twscreener/internal/contracts"
)

// stockInfoRow is one TaiwanStockInfo row
type stockInfoRow struct {
	IndustryCategory string `json:"industry_category"`
	StockID          string `json:"stock_id"`
	StockName        string `json:"stock_name"`
	Type             string `json:"type"` // twse, tpex, emerging
	Date             string `json:"date"`
}

// FetchInstruments fetches the full instrument directory
// Rows are returned as listed; de-duplication and venue filtering happen in screen.
func (c *Client) FetchInstruments(ctx context.Context) ([]contracts.Instrument, error) {
	rows, err := fetchDataset[stockInfoRow](ctx, c, DatasetStockInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}

	instruments := make([]contracts.Instrument, 0, len(rows))
	for _, row := range rows {
		if row.StockID == "" {
			continue
		}
		instruments = append(instruments, contracts.Instrument{
			Code:     row.StockID,
			Name:     row.StockName,
			Market:   row.Type,
			Industry: row.IndustryCategory,
		})
	}

	c.logger.WithField("count", len(instruments)).Debug("Fetched instrument directory")
	return instruments, nil
}
