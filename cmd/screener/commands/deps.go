package commands

import (
	"time"

	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/internal/contracts"
	"github.com/wonny/twscreener/internal/external/finmind"
	"github.com/wonny/twscreener/internal/notify"
	"github.com/wonny/twscreener/internal/scan"
	"github.com/wonny/twscreener/internal/scheduler"
	"github.com/wonny/twscreener/internal/screen"
	"github.com/wonny/twscreener/pkg/config"
	"github.com/wonny/twscreener/pkg/httputil"
	"github.com/wonny/twscreener/pkg/logger"
)

// deps holds the collaborators shared by every scan
type deps struct {
	cfg      *config.Config
	log      *logger.Logger
	clock    clock.Clock
	source   *finmind.Client
	notifier contracts.Notifier
}

// initDeps wires config, logger, provider and notifier
func initDeps(cfg *config.Config) *deps {
	log := logger.New(cfg)
	clk := clock.Real{}

	// FinMind 요청은 초당 호출 수 제한, Telegram은 별도 클라이언트
	finmindHTTP := httputil.New(cfg, log).WithRateLimit(cfg.FinMind.RequestsPerSecond)
	telegramHTTP := httputil.New(cfg, log)

	return &deps{
		cfg:      cfg,
		log:      log,
		clock:    clk,
		source:   finmind.NewClient(cfg.FinMind, finmindHTTP, clk, log),
		notifier: notify.New(cfg.Telegram, telegramHTTP, log),
	}
}

// scanFactory builds a scanner whose lookback window starts from now
func (d *deps) scanFactory() scheduler.ScanFactory {
	return func(now time.Time) (scheduler.ScanRunner, error) {
		s, err := d.newScanner(now)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func (d *deps) newScanner(now time.Time) (*scan.Scanner, error) {
	criteria, err := screen.DefaultCriteria(now, d.cfg.Scan.Market)
	if err != nil {
		return nil, err
	}
	return scan.New(d.source, d.notifier, criteria, d.clock, d.log, scan.DefaultOptions())
}
