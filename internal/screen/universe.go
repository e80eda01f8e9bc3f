package screen

import (
	"strings"

	"github.com/wonny/twscreener/internal/contracts"
)

// VenueFilter selects the target instruments from the provider directory
type VenueFilter struct {
	Markets    []string // 비어 있으면 전체
	CodeLength int      // 숫자 코드 길이 (보통주 = 4)
	ExcludeETF bool
}

// Universe is the filtered directory in traversal order
type Universe struct {
	Instruments []contracts.Instrument
	Excluded    map[string]string // code -> reason
}

// Apply filters the directory, keeping directory order
// FinMind lists a code once per industry category; only the first row is kept.
func (v VenueFilter) Apply(directory []contracts.Instrument) *Universe {
	u := &Universe{
		Instruments: make([]contracts.Instrument, 0, len(directory)),
		Excluded:    make(map[string]string),
	}

	seen := make(map[string]bool, len(directory))
	for _, inst := range directory {
		if seen[inst.Code] {
			continue
		}
		seen[inst.Code] = true

		if reason := v.checkExclusion(inst); reason != "" {
			u.Excluded[inst.Code] = reason
			continue
		}
		u.Instruments = append(u.Instruments, inst)
	}

	return u
}

// checkExclusion returns the exclusion reason, or "" if the instrument is kept
func (v VenueFilter) checkExclusion(inst contracts.Instrument) string {
	if v.CodeLength > 0 && !isNumericCode(inst.Code, v.CodeLength) {
		return "code_format"
	}

	if v.ExcludeETF && isETF(inst) {
		return "etf"
	}

	if len(v.Markets) > 0 && !containsFold(v.Markets, inst.Market) {
		return "market"
	}

	return ""
}

func isNumericCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// isETF detects exchange traded products
// 대만 ETF는 00으로 시작 (0050, 0056 등 4자리도 존재)
func isETF(inst contracts.Instrument) bool {
	industry := strings.ToUpper(inst.Industry)
	if strings.Contains(industry, "ETF") || strings.Contains(industry, "ETN") {
		return true
	}
	return strings.HasPrefix(inst.Code, "00")
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
