package budget

import (
	"fmt"
	"sync"
	"time"

	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/pkg/logger"
)

// Config defines the provider call quota
type Config struct {
	SoftLimit int           // 이 값에 도달하면 쿨다운
	HardLimit int           // 제공자의 시간당 한도
	Cooldown  time.Duration // 쿨다운 길이 (1시간 + 여유)
	ResetTo   int           // 쿨다운 후 카운터 기준값 (현재 호출 포함)
}

// DefaultConfig returns the FinMind quota settings
// FinMind: 토큰 사용 시 시간당 600회
func DefaultConfig() Config {
	return Config{
		SoftLimit: 580,
		HardLimit: 600,
		Cooldown:  3605 * time.Second,
		ResetTo:   1,
	}
}

// Validate checks the quota settings are coherent
func (c Config) Validate() error {
	if c.SoftLimit <= 0 {
		return fmt.Errorf("soft limit must be positive, got %d", c.SoftLimit)
	}
	if c.HardLimit > 0 && c.SoftLimit > c.HardLimit {
		return fmt.Errorf("soft limit %d exceeds hard limit %d", c.SoftLimit, c.HardLimit)
	}
	if c.ResetTo < 0 || c.ResetTo >= c.SoftLimit {
		return fmt.Errorf("reset value %d must be in [0, %d)", c.ResetTo, c.SoftLimit)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	return nil
}

// Guard tracks upstream calls against the hourly quota
// ⭐ SSOT: 호출 예산은 여기서만 집계
//
// Charge must be called exactly once before every upstream attempt.
type Guard struct {
	mu        sync.Mutex
	cfg       Config
	clock     clock.Clock
	logger    *logger.Logger
	count     int // 마지막 리셋 이후
	total     int // 실행 전체
	cooldowns int
}

// New creates a Guard with a cold counter
func New(cfg Config, clk clock.Clock, log *logger.Logger) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid budget config: %w", err)
	}

	return &Guard{
		cfg:    cfg,
		clock:  clk,
		logger: log.WithField("module", "budget"),
	}, nil
}

// Charge records one upstream call
// When the counter reaches the soft limit it blocks for the cooldown and then
// resets the counter to the baseline. The cooldown cannot be interrupted.
func (g *Guard) Charge() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.count++
	g.total++

	if g.count < g.cfg.SoftLimit {
		return
	}

	g.logger.WithFields(map[string]interface{}{
		"count":    g.count,
		"limit":    g.cfg.SoftLimit,
		"cooldown": g.cfg.Cooldown.String(),
	}).Warn("Call budget exhausted, cooling down")

	g.clock.Sleep(g.cfg.Cooldown)
	g.count = g.cfg.ResetTo
	g.cooldowns++

	g.logger.WithField("count", g.count).Info("Call budget reset")
}

// Count returns calls charged since the last reset
func (g *Guard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Total returns every call charged during the run
func (g *Guard) Total() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}

// Cooldowns returns how many cooldowns were taken
func (g *Guard) Cooldowns() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cooldowns
}
