package screen

import (
	"fmt"
	"time"
)

// Criteria defines the fixed screening thresholds
// ⭐ SSOT: 필터 임계값은 여기서만 정의 (런타임 설정 불가, 시장 프리셋만 선택)
type Criteria struct {
	// F1: 일봉 조회 시작일과 최소 일수
	LookbackStart time.Time
	MinHistory    int

	// F2: 최근 N일 평균 거래량 (張 = 1000주)
	VolumeWindow  int
	MinVolumeLots float64

	// F3: 현재가 >= HighWaterRatio × 조회기간 최고가
	HighWaterRatio float64

	// F4: 0 < PER <= MaxPER
	MaxPER float64

	// F5: 최근 N개월 매출 YoY 평균 (%)
	RevenueWindow int
	MinYoY        float64

	Venue VenueFilter
}

// DefaultCriteria returns the screening thresholds for a venue preset
// The lookback window rolls: one calendar year before now.
func DefaultCriteria(now time.Time, market string) (Criteria, error) {
	venue, err := VenuePreset(market)
	if err != nil {
		return Criteria{}, err
	}

	y, m, d := now.AddDate(-1, 0, 0).Date()

	return Criteria{
		LookbackStart:  time.Date(y, m, d, 0, 0, 0, 0, now.Location()),
		MinHistory:     60,
		VolumeWindow:   5,
		MinVolumeLots:  500,
		HighWaterRatio: 0.99, // 신고가 1% 이내
		MaxPER:         12,
		RevenueWindow:  3,
		MinYoY:         20,
		Venue:          venue,
	}, nil
}

// VenuePreset returns the directory filter for a market name
func VenuePreset(market string) (VenueFilter, error) {
	base := VenueFilter{
		CodeLength: 4,
		ExcludeETF: true,
	}

	switch market {
	case "twse":
		base.Markets = []string{"twse"} // 上市
	case "tpex":
		base.Markets = []string{"tpex"} // 上櫃
	case "all":
		base.Markets = []string{"twse", "tpex"}
	default:
		return VenueFilter{}, fmt.Errorf("unknown market preset: %s (valid: twse, tpex, all)", market)
	}

	return base, nil
}
