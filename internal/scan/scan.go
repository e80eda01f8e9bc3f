package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/twscreener/internal/budget"
	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/internal/contracts"
	"github.com/wonny/twscreener/internal/retry"
	"github.com/wonny/twscreener/internal/screen"
	"github.com/wonny/twscreener/pkg/logger"
)

// Phase is a step of one scan run
type Phase string

const (
	PhaseInit        Phase = "INIT"
	PhasePrimaryPass Phase = "PRIMARY_PASS"
	PhaseRetryPass   Phase = "RETRY_PASS"
	PhaseSummary     Phase = "SUMMARY"
	PhaseDone        Phase = "DONE"
)

// DefaultRetryPause is the wait before the retry pass
const DefaultRetryPause = 10 * time.Second

// ErrEmptyUniverse means the directory left nothing to scan
var ErrEmptyUniverse = errors.New("no instruments to scan")

// Options tunes a Scanner; zero values fall back to defaults
type Options struct {
	Budget     budget.Config
	Retry      retry.Config
	RetryPause time.Duration
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Budget:     budget.DefaultConfig(),
		Retry:      retry.DefaultConfig(),
		RetryPause: DefaultRetryPause,
	}
}

// Scanner runs the batch scan
// ⭐ SSOT: 스캔 오케스트레이션은 여기서만
//
// Every Run starts with a cold call budget. Runs are sequential; the
// scheduler guarantees they never overlap.
type Scanner struct {
	source   contracts.DataSource
	notifier contracts.Notifier
	pipeline *screen.Pipeline
	clock    clock.Clock
	base     *logger.Logger
	logger   *logger.Logger
	opts     Options

	phase Phase
}

// New creates a Scanner
func New(
	source contracts.DataSource,
	notifier contracts.Notifier,
	criteria screen.Criteria,
	clk clock.Clock,
	log *logger.Logger,
	opts Options,
) (*Scanner, error) {
	if opts.Budget == (budget.Config{}) {
		opts.Budget = budget.DefaultConfig()
	}
	if opts.Retry == (retry.Config{}) {
		opts.Retry = retry.DefaultConfig()
	}
	if opts.RetryPause <= 0 {
		opts.RetryPause = DefaultRetryPause
	}
	if err := opts.Budget.Validate(); err != nil {
		return nil, fmt.Errorf("budget config: %w", err)
	}

	return &Scanner{
		source:   source,
		notifier: notifier,
		pipeline: screen.NewPipeline(criteria),
		clock:    clk,
		base:     log,
		logger:   log.WithField("module", "scan"),
		opts:     opts,
		phase:    PhaseDone,
	}, nil
}

// Phase returns the phase of the current (or last) run
func (s *Scanner) Phase() Phase {
	return s.phase
}

// run holds the state owned by one invocation of Run
type run struct {
	guard   *budget.Guard
	source  *retry.Source
	summary *Summary
	queue   []contracts.Instrument
}

// Run performs one full scan
// The error is non-nil only when the directory cannot be fetched. A cancelled
// context ends the scan early with Summary.Interrupted set; per-instrument
// failures end up in the summary.
func (s *Scanner) Run(ctx context.Context) (*Summary, error) {
	guard, err := budget.New(s.opts.Budget, s.clock, s.base)
	if err != nil {
		return nil, fmt.Errorf("create budget guard: %w", err)
	}
	caller := retry.NewCaller(s.opts.Retry, guard, s.clock, s.base)

	r := &run{
		guard:  guard,
		source: retry.NewSource(s.source, caller),
		summary: &Summary{
			Filters:   make(map[string]int),
			StartedAt: s.clock.Now(),
		},
	}

	// 1. INIT
	s.phase = PhaseInit
	universe, err := s.loadUniverse(ctx, r)
	if err != nil {
		outcome := contracts.FatalFailure(err)
		s.logger.WithError(outcome.Err).Error("Scan aborted at INIT")
		s.notify(ctx, FormatFatal(outcome.Err))
		s.phase = PhaseDone
		return nil, fmt.Errorf("load universe: %w", err)
	}
	r.summary.Universe = len(universe.Instruments)

	s.logger.WithFields(map[string]interface{}{
		"universe": len(universe.Instruments),
		"excluded": len(universe.Excluded),
	}).Info("🚀 Starting scan")

	// 2. PRIMARY_PASS
	s.phase = PhasePrimaryPass
	for _, inst := range universe.Instruments {
		if ctx.Err() != nil {
			r.summary.Interrupted = true
			break
		}
		s.primary(ctx, r, inst)
	}

	// 3. RETRY_PASS
	s.phase = PhaseRetryPass
	if len(r.queue) > 0 {
		if r.summary.Interrupted {
			for _, inst := range r.queue {
				r.summary.PermanentlyFailed = append(r.summary.PermanentlyFailed, inst.Code)
			}
			r.queue = nil
		} else {
			s.retryPass(ctx, r)
		}
	}

	// 4. SUMMARY
	s.phase = PhaseSummary
	r.summary.Calls = guard.Total()
	r.summary.Cooldowns = guard.Cooldowns()
	r.summary.Duration = s.clock.Now().Sub(r.summary.StartedAt)

	s.notify(ctx, FormatSummary(r.summary))

	s.logger.WithFields(map[string]interface{}{
		"universe":           r.summary.Universe,
		"matched":            len(r.summary.Matched),
		"filtered_out":       r.summary.FilteredOut,
		"retried":            r.summary.Retried,
		"permanently_failed": len(r.summary.PermanentlyFailed),
		"calls":              r.summary.Calls,
		"cooldowns":          r.summary.Cooldowns,
		"duration":           r.summary.Duration.String(),
	}).Info("✅ Scan completed")

	s.phase = PhaseDone
	return r.summary, nil
}

// notify delivers text even after ctx is cancelled
// An interrupted run still owes the operator its summary.
func (s *Scanner) notify(ctx context.Context, text string) {
	s.notifier.Notify(context.WithoutCancel(ctx), text)
}

func (s *Scanner) loadUniverse(ctx context.Context, r *run) (*screen.Universe, error) {
	directory, err := r.source.FetchInstruments(ctx)
	if err != nil {
		return nil, err
	}
	if len(directory) == 0 {
		return nil, fmt.Errorf("instrument directory is empty: %w", ErrEmptyUniverse)
	}

	universe := s.pipeline.Criteria().Venue.Apply(directory)
	if len(universe.Instruments) == 0 {
		return nil, fmt.Errorf("venue filter kept none of %d listed: %w", len(directory), ErrEmptyUniverse)
	}
	return universe, nil
}

func (s *Scanner) primary(ctx context.Context, r *run, inst contracts.Instrument) {
	outcome := s.pipeline.Evaluate(ctx, r.source, inst)

	switch outcome.Kind {
	case contracts.OutcomeMatched:
		s.recordMatch(ctx, r, outcome.Match)
	case contracts.OutcomeFilteredOut:
		s.recordFiltered(r, outcome)
	default:
		s.logger.WithFields(map[string]interface{}{
			"code":      inst.Code,
			"exhausted": retry.IsExhausted(outcome.Err),
			"error":     outcome.Err.Error(),
		}).Warn("Instrument failed, queued for retry")
		r.queue = append(r.queue, inst)
	}
}

func (s *Scanner) retryPass(ctx context.Context, r *run) {
	s.logger.WithFields(map[string]interface{}{
		"queued": len(r.queue),
		"pause":  s.opts.RetryPause.String(),
	}).Info("Starting retry pass")

	s.clock.Sleep(s.opts.RetryPause)

	for i, inst := range r.queue {
		if ctx.Err() != nil {
			r.summary.Interrupted = true
			for _, rest := range r.queue[i:] {
				r.summary.PermanentlyFailed = append(r.summary.PermanentlyFailed, rest.Code)
			}
			return
		}
		r.summary.Retried++

		outcome := s.pipeline.Evaluate(ctx, r.source, inst)
		switch outcome.Kind {
		case contracts.OutcomeMatched:
			outcome.Match.Recovered = true
			s.recordMatch(ctx, r, outcome.Match)
		case contracts.OutcomeFilteredOut:
			s.recordFiltered(r, outcome)
		default:
			s.logger.WithFields(map[string]interface{}{
				"code":  inst.Code,
				"error": outcome.Err.Error(),
			}).Error("Instrument failed again, giving up")
			r.summary.PermanentlyFailed = append(r.summary.PermanentlyFailed, inst.Code)
		}
	}
	r.queue = nil
}

func (s *Scanner) recordMatch(ctx context.Context, r *run, m *contracts.MatchRecord) {
	r.summary.Matched = append(r.summary.Matched, *m)

	s.logger.WithFields(map[string]interface{}{
		"code":      m.Code,
		"price":     m.CurrentPrice,
		"per":       m.PER,
		"avg_yoy":   m.AvgYoY,
		"recovered": m.Recovered,
	}).Info("🎯 Match")

	s.notify(ctx, FormatMatch(*m))
}

func (s *Scanner) recordFiltered(r *run, outcome contracts.Outcome) {
	r.summary.FilteredOut++
	r.summary.Filters[outcome.Reason]++

	s.logger.WithFields(map[string]interface{}{
		"code":   outcome.Code,
		"stage":  outcome.Stage.ShortName(),
		"reason": outcome.Reason,
	}).Info("Skipped")
}
