package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/twscreener/internal/scheduler"
)

// scheduleCmd runs the scan daemon
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 스캔 데몬 시작",
	Long: `SCAN_SCHEDULE (초 포함 cron, 기본 평일 14:30 台北) 마다 스캔을 실행합니다.

- 매 실행은 새 호출 예산으로 시작
- 이전 실행이 끝나지 않았으면 이번 트리거는 건너뜀
- SCAN_RUN_ON_START=true 이면 시작 직후 1회 실행

Ctrl+C로 종료할 수 있습니다.`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := initDeps(cfg)

	loc, err := time.LoadLocation(cfg.Scan.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %s: %w", cfg.Scan.Timezone, err)
	}

	// Fail fast on a bad market preset rather than at the first trigger
	if _, err := d.newScanner(d.clock.Now()); err != nil {
		return fmt.Errorf("init scanner: %w", err)
	}

	sched := scheduler.New(loc, d.log)
	job := scheduler.NewScanJob(cfg.Scan.Schedule, d.scanFactory(), d.clock, d.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)

	PrintDoubleSeparator()
	PrintSuccess("Scheduler started")
	for _, name := range sched.GetAllJobs() {
		PrintKeyValue("Job", name, 10)
	}
	PrintKeyValue("Schedule", fmt.Sprintf("%s (%s)", job.Schedule(), loc), 10)
	PrintKeyValue("Market", cfg.Scan.Market, 10)
	if next, err := sched.NextRun(job.Name()); err == nil {
		PrintKeyValue("Next run", next.Format("2006-01-02 15:04:05 MST"), 10)
	}
	PrintDoubleSeparator()
	PrintInfo("Press Ctrl+C to stop")

	if cfg.Scan.RunOnStart {
		go func() {
			if err := sched.RunNow(ctx, job.Name()); err != nil {
				d.log.WithError(err).Warn("Startup scan failed")
			}
		}()
	}

	<-ctx.Done()

	fmt.Println()
	PrintInfo("Shutting down scheduler...")
	sched.Stop()

	PrintStats(sched.GetJobStats())
	if history, err := sched.GetJobHistory(job.Name()); err == nil {
		PrintHistory(history.Latest(10))
	}
	if last := job.LastSummary(); last != nil {
		PrintSummary(last)
	}
	return nil
}
