package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/pkg/logger"
)

// Charger is charged once per upstream attempt
// budget.Guard satisfies it.
type Charger interface {
	Charge()
}

// Config holds retry configuration
type Config struct {
	MaxAttempts int           // 최초 시도 포함
	Delay       time.Duration // 시도 사이 고정 대기 (예산 차감 없음)
}

// DefaultConfig returns 1 initial attempt + 2 retries, 5s apart
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       5 * time.Second,
	}
}

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error // 마지막 시도의 에러
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsExhausted reports whether err came from a Caller giving up
func IsExhausted(err error) bool {
	var ex *ExhaustedError
	return errors.As(err, &ex)
}

// permanent is implemented by errors that repeat identically on every attempt
type permanent interface {
	Permanent() bool
}

func isPermanent(err error) bool {
	var p permanent
	return errors.As(err, &p) && p.Permanent()
}

// Caller runs upstream operations with bounded retry through the call budget
// ⭐ SSOT: 외부 호출 재시도는 여기서만 (httputil은 재시도하지 않음)
type Caller struct {
	cfg     Config
	charger Charger
	clock   clock.Clock
	logger  *logger.Logger
}

// NewCaller creates a Caller
func NewCaller(cfg Config, charger Charger, clk clock.Clock, log *logger.Logger) *Caller {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Caller{
		cfg:     cfg,
		charger: charger,
		clock:   clk,
		logger:  log.WithField("module", "retry"),
	}
}

// Do runs fn up to MaxAttempts times
// The budget is charged before every attempt, successful or not. The delay
// between attempts is not charged. A cancelled context or an error reporting
// Permanent() stops further attempts.
func Do[T any](ctx context.Context, c *Caller, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		c.charger.Charge()

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, fmt.Errorf("%s aborted: %w", op, err)
		}

		if isPermanent(err) {
			c.logger.WithFields(map[string]interface{}{
				"op":      op,
				"attempt": attempt,
				"error":   err.Error(),
			}).Warn("Upstream call failed, not retryable")
			return zero, &ExhaustedError{Op: op, Attempts: attempt, Err: err}
		}

		if attempt == c.cfg.MaxAttempts {
			break
		}

		c.logger.WithFields(map[string]interface{}{
			"op":      op,
			"attempt": attempt,
			"delay":   c.cfg.Delay.String(),
			"error":   err.Error(),
		}).Warn("Upstream call failed, retrying")

		c.clock.Sleep(c.cfg.Delay)
	}

	return zero, &ExhaustedError{Op: op, Attempts: c.cfg.MaxAttempts, Err: lastErr}
}
