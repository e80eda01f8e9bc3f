package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// scanCmd runs one full scan
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "전 종목 1회 스캔",
	Long: `종목 목록을 받아 5단계 필터로 1회 스캔합니다.

필터 순서 (앞 단계 탈락 시 이후 API 호출 없음):
  F1  최근 1년 일봉 60개 이상
  F2  5일 평균 거래량 500張 이상
  F3  현재가 >= 52주 최고가 x 0.99
  F4  0 < PER <= 12
  F5  최근 3개월 매출 YoY 평균 >= 20%

매칭 종목은 즉시 알림, 종료 시 요약 1회.
종목 목록 조회 실패 시에만 exit 1 (Ctrl+C 중단도 요약 후 exit 0).`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := initDeps(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner, err := d.newScanner(d.clock.Now())
	if err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	PrintJobHeader(JobMetadata{
		JobType:   "Taiwan Stock Scan",
		Tag:       "Scan",
		Market:    cfg.Scan.Market,
		Timestamp: d.clock.Now().Format("2006-01-02 15:04:05"),
	})

	summary, err := scanner.Run(ctx)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	// 중단된 스캔도 요약까지 마쳤으면 exit 0
	PrintSummary(summary)
	if summary.Interrupted {
		PrintInfo("Scan interrupted, results are partial")
		return nil
	}
	PrintJobCompletion(summary.Duration.Seconds())
	return nil
}
