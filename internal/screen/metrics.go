package screen

import "github.com/wonny/twscreener/internal/contracts"

// AverageVolumeLots returns mean volume of the last n bars in lots (張)
func AverageVolumeLots(series contracts.PriceSeries, n int) float64 {
	tail := series
	if n > 0 && len(series) > n {
		tail = series[len(series)-n:]
	}
	if len(tail) == 0 {
		return 0
	}

	var sum int64
	for _, bar := range tail {
		sum += bar.Volume
	}
	return float64(sum) / float64(len(tail)) / 1000
}

// LatestClose returns the close of the last bar
func LatestClose(series contracts.PriceSeries) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Close
}

// MaxHigh returns the highest high over the series
func MaxHigh(series contracts.PriceSeries) float64 {
	high := 0.0
	for _, bar := range series {
		if bar.High > high {
			high = bar.High
		}
	}
	return high
}

// MeanYoY returns the mean YoY growth of the last n months
// ok is false when there is no revenue data.
func MeanYoY(history contracts.RevenueHistory, n int) (mean float64, ok bool) {
	tail := history
	if n > 0 && len(history) > n {
		tail = history[len(history)-n:]
	}
	if len(tail) == 0 {
		return 0, false
	}

	sum := 0.0
	for _, m := range tail {
		sum += m.YoYGrowth
	}
	return sum / float64(len(tail)), true
}
