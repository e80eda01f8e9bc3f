package contracts

import "time"

// Instrument is one entry of the provider's instrument directory
// ⭐ SSOT: 종목 디렉터리 항목, 실행 중 불변
type Instrument struct {
	Code     string `json:"code"`     // 4자리 숫자 코드 (예: 2330)
	Name     string `json:"name"`
	Market   string `json:"market"`   // twse, tpex, ...
	Industry string `json:"industry"` // ETF 등 증권 유형 포함
}

// DailyBar is one trading day of an instrument
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"` // 주 단위 (1張 = 1000주)
}

// PriceSeries is a date-ascending run of daily bars
type PriceSeries []DailyBar

// Valuation is the latest valuation ratio snapshot
// Found=false means the provider returned nothing for the instrument.
type Valuation struct {
	Date          time.Time `json:"date"`
	PER           float64   `json:"per"`
	PBR           float64   `json:"pbr"`
	DividendYield float64   `json:"dividend_yield"`
	Found         bool      `json:"found"`
}

// MonthlyRevenue is one month of reported revenue
type MonthlyRevenue struct {
	Month     time.Time `json:"month"`      // 해당 월 1일
	Revenue   int64     `json:"revenue"`
	YoYGrowth float64   `json:"yoy_growth"` // %, 전년 동월 대비
}

// RevenueHistory is a month-ascending run of revenue records
type RevenueHistory []MonthlyRevenue

// MatchRecord is an instrument that passed every filter stage
type MatchRecord struct {
	Code         string  `json:"code"`
	Name         string  `json:"name,omitempty"`
	CurrentPrice float64 `json:"current_price"`
	High52W      float64 `json:"high_52w"`
	PER          float64 `json:"per"`
	AvgYoY       float64 `json:"avg_yoy"`
	AvgVolume5   float64 `json:"avg_volume_5"` // 張
	Recovered    bool    `json:"recovered"`    // retry pass에서 통과
}
