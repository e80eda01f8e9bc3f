package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/internal/scan"
	"github.com/wonny/twscreener/pkg/logger"
)

// ScanJobName is the registered name of the daily scan
const ScanJobName = "daily_scan"

// ScanRunner runs one scan
type ScanRunner interface {
	Run(ctx context.Context) (*scan.Summary, error)
}

// ScanFactory builds a runner for a scan starting at now
// The lookback window rolls with the date, so every run gets fresh criteria.
type ScanFactory func(now time.Time) (ScanRunner, error)

// ScanJob runs the market scan on a cron schedule
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	schedule string
	factory  ScanFactory
	clock    clock.Clock
	logger   *logger.Logger

	mu   sync.Mutex
	last *scan.Summary
}

// NewScanJob creates a new scan job
func NewScanJob(schedule string, factory ScanFactory, clk clock.Clock, log *logger.Logger) *ScanJob {
	return &ScanJob{
		schedule: schedule,
		factory:  factory,
		clock:    clk,
		logger:   log.WithField("job", ScanJobName),
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return ScanJobName
}

// Schedule returns the cron schedule
func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan with a cold call budget
func (j *ScanJob) Run(ctx context.Context) error {
	runner, err := j.factory(j.clock.Now())
	if err != nil {
		return fmt.Errorf("build scanner: %w", err)
	}

	summary, err := runner.Run(ctx)
	if summary != nil {
		j.mu.Lock()
		j.last = summary
		j.mu.Unlock()

		j.logger.WithFields(map[string]interface{}{
			"matched":            len(summary.Matched),
			"permanently_failed": len(summary.PermanentlyFailed),
			"calls":              summary.Calls,
		}).Info("Scheduled scan finished")
	}
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	return nil
}

// LastSummary returns the summary of the latest completed run
func (j *ScanJob) LastSummary() *scan.Summary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
