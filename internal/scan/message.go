package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wonny/twscreener/internal/contracts"
)

// FormatMatch renders the operator notification for one match
func FormatMatch(m contracts.MatchRecord) string {
	var b strings.Builder

	header := "🎯 【選股達標】"
	if m.Recovered {
		header = "🎯 【選股達標・重試成功】"
	}
	b.WriteString(header + " " + m.Code)
	if m.Name != "" {
		b.WriteString(" " + m.Name)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "💰 現價: %.2f\n", m.CurrentPrice)
	fmt.Fprintf(&b, "🏔 52週高點: %.2f\n", m.High52W)
	fmt.Fprintf(&b, "📊 PE: %.2f\n", m.PER)
	fmt.Fprintf(&b, "📈 營收平均YoY: %.1f%%\n", m.AvgYoY)
	fmt.Fprintf(&b, "💧 5日均量: %d張", int64(m.AvgVolume5))

	return b.String()
}

// FormatSummary renders the end-of-run report
func FormatSummary(s *Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "✅ 今日掃描完畢，共發現 %d 檔符合條件標的。", len(s.Matched))
	if len(s.Matched) > 0 {
		b.WriteString("\n📋 " + strings.Join(s.MatchedCodes(), ", "))
	}
	if n := len(s.PermanentlyFailed); n > 0 {
		fmt.Fprintf(&b, "\n⚠️ 重試後仍失敗 %d 檔: %s", n, strings.Join(s.PermanentlyFailed, ", "))
	}
	if s.Interrupted {
		b.WriteString("\n⛔ 掃描已中斷，結果不完整")
	}

	return b.String()
}

// FormatFatal renders the notification for a run that could not start
func FormatFatal(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("⛔ 掃描已中斷：初始化未完成\n%v", err)
	case errors.Is(err, ErrEmptyUniverse):
		return fmt.Sprintf("❌ 掃描失敗：篩選後無可掃描標的\n%v", err)
	default:
		return fmt.Sprintf("❌ 掃描失敗：無法取得股票清單\n%v", err)
	}
}
