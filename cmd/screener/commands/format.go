package commands

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/twscreener/internal/contracts"
	"github.com/wonny/twscreener/internal/scan"
	"github.com/wonny/twscreener/internal/scheduler"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// JobMetadata holds job execution metadata
type JobMetadata struct {
	JobType   string
	Tag       string
	Market    string
	Timestamp string
}

// PrintJobHeader prints a formatted job header
func PrintJobHeader(meta JobMetadata) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", meta.JobType)
	PrintSeparator()
	fmt.Printf("  Market    : %s\n", meta.Market)
	PrintSeparator()
	fmt.Printf("[%s] Scan triggered at %s\n", meta.Tag, meta.Timestamp)
}

// PrintJobCompletion prints job completion message
func PrintJobCompletion(duration float64) {
	fmt.Println()
	fmt.Printf("✅ Scan completed in %.2fs\n", duration)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintSummary prints the scan result as a table
func PrintSummary(s *scan.Summary) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Scan Summary")
	PrintSeparator()
	PrintKeyValue("Universe", fmt.Sprintf("%d", s.Universe), 18)
	PrintKeyValue("Matched", fmt.Sprintf("%d (recovered %d)", len(s.Matched), s.Recovered()), 18)
	PrintKeyValue("Filtered out", fmt.Sprintf("%d", s.FilteredOut), 18)
	PrintKeyValue("Retried", fmt.Sprintf("%d", s.Retried), 18)
	PrintKeyValue("Failed", fmt.Sprintf("%d", len(s.PermanentlyFailed)), 18)
	PrintKeyValue("API calls", fmt.Sprintf("%d (cooldowns %d)", s.Calls, s.Cooldowns), 18)
	PrintKeyValue("Duration", s.Duration.String(), 18)
	if s.Interrupted {
		PrintKeyValue("Status", "interrupted", 18)
	}

	if len(s.Filters) > 0 {
		PrintSeparator()
		reasons := make([]string, 0, len(s.Filters))
		for reason := range s.Filters {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			PrintKeyValue(reason, fmt.Sprintf("%d", s.Filters[reason]), 18)
		}
	}

	if len(s.Matched) > 0 {
		fmt.Println()
		widths := []int{6, 12, 10, 10, 7, 8, 10}
		PrintTableHeader([]string{"Code", "Name", "Price", "52W High", "PER", "YoY%", "Vol(張)"}, widths)
		for _, m := range s.Matched {
			PrintTableRow(matchRow(m), widths)
		}
	}

	if len(s.PermanentlyFailed) > 0 {
		fmt.Println()
		fmt.Printf("⚠️  Failed after retry: %s\n", strings.Join(s.PermanentlyFailed, ", "))
	}
	PrintDoubleSeparator()
}

func matchRow(m contracts.MatchRecord) []string {
	code := m.Code
	if m.Recovered {
		code += "*"
	}
	return []string{
		code,
		m.Name,
		fmt.Sprintf("%.2f", m.CurrentPrice),
		fmt.Sprintf("%.2f", m.High52W),
		fmt.Sprintf("%.2f", m.PER),
		fmt.Sprintf("%.1f", m.AvgYoY),
		fmt.Sprintf("%d", int64(m.AvgVolume5)),
	}
}

// PrintStats prints scheduler job statistics
func PrintStats(stats map[string]scheduler.JobStats) {
	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 12)
		PrintKeyValue("Total Runs", fmt.Sprintf("%d", stat.TotalRuns), 12)
		PrintKeyValue("Success", fmt.Sprintf("%d (%.1f%%)", stat.SuccessCount, stat.SuccessRate*100), 12)
		PrintKeyValue("Failures", fmt.Sprintf("%d", stat.FailureCount), 12)
		if stat.LastRun != nil {
			PrintKeyValue("Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), 12)
		}
	}
}

// PrintHistory prints recent job runs, oldest first
func PrintHistory(results []scheduler.JobResult) {
	if len(results) == 0 {
		return
	}

	fmt.Println()
	widths := []int{19, 7, 10, 6}
	PrintTableHeader([]string{"Started", "Trigger", "Duration", "Result"}, widths)
	for _, r := range results {
		PrintTableRow(historyRow(r), widths)
	}
}

func historyRow(r scheduler.JobResult) []string {
	result := "ok"
	if !r.Success {
		result = "failed"
	}
	return []string{
		r.StartTime.Format("2006-01-02 15:04:05"),
		r.Trigger,
		r.Duration.Round(time.Second).String(),
		result,
	}
}
