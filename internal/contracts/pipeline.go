package contracts

// Filter Stage 정의 (SSOT)
// 모든 로그, 요약, 필터 카운터에서 이 상수를 사용해야 함
//
// 필터 흐름 (앞 단계 탈락 시 뒤 단계 fetch 없음):
//   F1 → F2 → F3 → F4 → F5
//   History  Liquidity  HighWater  Valuation  Revenue

// Stage represents a filter pipeline stage
type Stage string

const (
	// StagePriceHistory F1: 일봉 이력 길이 검증
	StagePriceHistory Stage = "F1_PRICE_HISTORY"

	// StageLiquidity F2: 최근 5일 평균 거래량 (張)
	StageLiquidity Stage = "F2_LIQUIDITY"

	// StageHighWater F3: 52주 신고가 근접
	StageHighWater Stage = "F3_HIGH_WATER"

	// StageValuation F4: PER 범위 (적자 제외)
	StageValuation Stage = "F4_VALUATION"

	// StageRevenue F5: 최근 3개월 매출 YoY 평균
	StageRevenue Stage = "F5_REVENUE"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// ShortName returns abbreviated stage name (e.g., "F1", "F2")
func (s Stage) ShortName() string {
	switch s {
	case StagePriceHistory:
		return "F1"
	case StageLiquidity:
		return "F2"
	case StageHighWater:
		return "F3"
	case StageValuation:
		return "F4"
	case StageRevenue:
		return "F5"
	default:
		return "UNKNOWN"
	}
}

// Description returns Korean description of the stage
func (s Stage) Description() string {
	switch s {
	case StagePriceHistory:
		return "일봉 이력"
	case StageLiquidity:
		return "유동성 (5일 평균 거래량)"
	case StageHighWater:
		return "52주 신고가 근접"
	case StageValuation:
		return "PER 범위"
	case StageRevenue:
		return "매출 YoY 성장"
	default:
		return "알 수 없음"
	}
}

// AllStages returns all filter stages in evaluation order
func AllStages() []Stage {
	return []Stage{
		StagePriceHistory,
		StageLiquidity,
		StageHighWater,
		StageValuation,
		StageRevenue,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	for _, stage := range AllStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}

// Filter reasons reported by the pipeline
// 하나의 Stage가 여러 사유로 탈락시킬 수 있음 (예: F4 → valuation_missing, per)
const (
	ReasonInsufficientHistory = "insufficient_history"
	ReasonLowVolume           = "low_volume"
	ReasonBelowHigh           = "below_high"
	ReasonValuationMissing    = "valuation_missing"
	ReasonPER                 = "per"
	ReasonRevenueMissing      = "revenue_missing"
	ReasonRevenueGrowth       = "revenue_growth"
)
