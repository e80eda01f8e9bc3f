package screen

import (
	"context"

	"github.com/wonny/twscreener/internal/contracts"
)

// Pipeline evaluates one instrument through the ordered filter stages
// ⭐ SSOT: 종목 필터 로직은 여기서만
//
// Fetches happen in stage order and stop at the first failing stage, so an
// instrument already disqualified never spends more call budget. Fetch errors
// are returned as OutcomeTransientFailure untouched; retrying is the source's job.
type Pipeline struct {
	criteria Criteria
}

// NewPipeline creates a new pipeline
func NewPipeline(criteria Criteria) *Pipeline {
	return &Pipeline{criteria: criteria}
}

// Criteria returns the thresholds in use
func (p *Pipeline) Criteria() Criteria {
	return p.criteria
}

// Evaluate runs every stage for inst against src
func (p *Pipeline) Evaluate(ctx context.Context, src contracts.DataSource, inst contracts.Instrument) contracts.Outcome {
	c := p.criteria
	code := inst.Code

	// F1: price history
	series, err := src.FetchPriceSeries(ctx, code, c.LookbackStart)
	if err != nil {
		return contracts.TransientFailure(code, err)
	}
	if len(series) < c.MinHistory {
		return contracts.FilteredOut(code, contracts.StagePriceHistory, contracts.ReasonInsufficientHistory)
	}

	// F2: liquidity
	avgVolume := AverageVolumeLots(series, c.VolumeWindow)
	if avgVolume < c.MinVolumeLots {
		return contracts.FilteredOut(code, contracts.StageLiquidity, contracts.ReasonLowVolume)
	}

	// F3: near the trailing-window high
	currentPrice := LatestClose(series)
	high := MaxHigh(series)
	if currentPrice < high*c.HighWaterRatio {
		return contracts.FilteredOut(code, contracts.StageHighWater, contracts.ReasonBelowHigh)
	}

	// F4: valuation (적자 기업 PER <= 0 제외)
	valuation, err := src.FetchValuation(ctx, code)
	if err != nil {
		return contracts.TransientFailure(code, err)
	}
	if !valuation.Found {
		return contracts.FilteredOut(code, contracts.StageValuation, contracts.ReasonValuationMissing)
	}
	if valuation.PER <= 0 || valuation.PER > c.MaxPER {
		return contracts.FilteredOut(code, contracts.StageValuation, contracts.ReasonPER)
	}

	// F5: revenue growth
	revenue, err := src.FetchRevenueHistory(ctx, code)
	if err != nil {
		return contracts.TransientFailure(code, err)
	}
	avgYoY, ok := MeanYoY(revenue, c.RevenueWindow)
	if !ok {
		return contracts.FilteredOut(code, contracts.StageRevenue, contracts.ReasonRevenueMissing)
	}
	if avgYoY < c.MinYoY {
		return contracts.FilteredOut(code, contracts.StageRevenue, contracts.ReasonRevenueGrowth)
	}

	return contracts.Matched(&contracts.MatchRecord{
		Code:         code,
		Name:         inst.Name,
		CurrentPrice: currentPrice,
		High52W:      high,
		PER:          valuation.PER,
		AvgYoY:       avgYoY,
		AvgVolume5:   avgVolume,
	})
}
