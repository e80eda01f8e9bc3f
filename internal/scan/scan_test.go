package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twscreener/internal/budget"
	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/internal/contracts"
	"github.com/wonny/twscreener/internal/screen"
	"github.com/wonny/twscreener/pkg/logger"
)

var testNow = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

var errUpstream = errors.New("upstream 503")

// profile is the canned provider data for one instrument
type profile struct {
	series    contracts.PriceSeries
	valuation contracts.Valuation
	revenue   contracts.RevenueHistory
	failPrice int // 남은 실패 횟수
}

// fakeSource serves profiles and counts every fetch
type fakeSource struct {
	directory       []contracts.Instrument
	directoryErr    error
	profiles        map[string]*profile
	calls           int
	valuationCalls  map[string]int
	priceCallsTotal map[string]int
	onPriceFailure  func()
}

func newFakeSource(directory ...contracts.Instrument) *fakeSource {
	return &fakeSource{
		directory:       directory,
		profiles:        make(map[string]*profile),
		valuationCalls:  make(map[string]int),
		priceCallsTotal: make(map[string]int),
	}
}

func (f *fakeSource) FetchInstruments(context.Context) ([]contracts.Instrument, error) {
	f.calls++
	if f.directoryErr != nil {
		return nil, f.directoryErr
	}
	return f.directory, nil
}

func (f *fakeSource) FetchPriceSeries(_ context.Context, code string, _ time.Time) (contracts.PriceSeries, error) {
	f.calls++
	f.priceCallsTotal[code]++
	p := f.profiles[code]
	if p.failPrice > 0 {
		p.failPrice--
		if f.onPriceFailure != nil {
			f.onPriceFailure()
		}
		return nil, errUpstream
	}
	return p.series, nil
}

func (f *fakeSource) FetchValuation(_ context.Context, code string) (contracts.Valuation, error) {
	f.calls++
	f.valuationCalls[code]++
	return f.profiles[code].valuation, nil
}

func (f *fakeSource) FetchRevenueHistory(_ context.Context, code string) (contracts.RevenueHistory, error) {
	f.calls++
	return f.profiles[code].revenue, nil
}

// recordingNotifier keeps every message with the phase it was sent in
type recordingNotifier struct {
	scanner  *Scanner
	messages []string
	phases   []Phase
	ctxErrs  []error
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) {
	n.messages = append(n.messages, text)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	if n.scanner != nil {
		n.phases = append(n.phases, n.scanner.Phase())
	}
}

func stock(code, name string) contracts.Instrument {
	return contracts.Instrument{Code: code, Name: name, Market: "twse", Industry: "半導體業"}
}

// series builds n bars closing at the window high with the given volume
func series(n int, volume int64) contracts.PriceSeries {
	s := make(contracts.PriceSeries, n)
	for i := range s {
		s[i] = contracts.DailyBar{
			Date:   testNow.AddDate(0, 0, i-n),
			Open:   99,
			High:   100,
			Low:    98,
			Close:  99.5,
			Volume: volume,
		}
	}
	return s
}

func revenue(values ...float64) contracts.RevenueHistory {
	h := make(contracts.RevenueHistory, len(values))
	for i, v := range values {
		h[i] = contracts.MonthlyRevenue{Month: time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), YoYGrowth: v}
	}
	return h
}

func matching() *profile {
	return &profile{
		series:    series(120, 800_000),
		valuation: contracts.Valuation{PER: 8, Found: true},
		revenue:   revenue(20, 25, 30),
	}
}

func newScanner(t *testing.T, src contracts.DataSource, opts Options) (*Scanner, *recordingNotifier, *clock.Fake) {
	t.Helper()

	criteria, err := screen.DefaultCriteria(testNow, "twse")
	require.NoError(t, err)

	clk := clock.NewFake(testNow)
	notifier := &recordingNotifier{}
	s, err := New(src, notifier, criteria, clk, logger.Nop(), opts)
	require.NoError(t, err)
	notifier.scanner = s

	return s, notifier, clk
}

func TestRun_EndToEnd(t *testing.T) {
	src := newFakeSource(stock("1101", "A"), stock("1102", "B"), stock("1103", "C"))
	src.profiles["1101"] = &profile{series: series(30, 800_000)}
	src.profiles["1102"] = &profile{
		series:    series(120, 800_000),
		valuation: contracts.Valuation{PER: 15, Found: true},
	}
	src.profiles["1103"] = matching()

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.messages, 2)
	assert.Contains(t, notifier.messages[0], "1103")
	assert.NotContains(t, notifier.messages[0], "1101")
	assert.NotContains(t, notifier.messages[0], "1102")
	assert.Contains(t, notifier.messages[1], "共發現 1 檔")

	assert.Equal(t, 3, summary.Universe)
	assert.Equal(t, []string{"1103"}, summary.MatchedCodes())
	assert.Equal(t, 2, summary.FilteredOut)
	assert.Equal(t, map[string]int{
		contracts.ReasonInsufficientHistory: 1,
		contracts.ReasonPER:                 1,
	}, summary.Filters)
	assert.Empty(t, summary.PermanentlyFailed)

	// directory 1 + A price 1 + B price/valuation 2 + C all three 3
	assert.Equal(t, 7, summary.Calls)
	assert.Equal(t, src.calls, summary.Calls)
	assert.Zero(t, src.valuationCalls["1101"])
	assert.Equal(t, PhaseDone, s.Phase())
}

func TestRun_TransientFailureAbsorbedByWrapper(t *testing.T) {
	src := newFakeSource(stock("2330", "台積電"))
	p := matching()
	p.failPrice = 2
	src.profiles["2330"] = p

	s, notifier, clk := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2330"}, summary.MatchedCodes())
	assert.Zero(t, summary.Retried)
	assert.False(t, summary.Matched[0].Recovered)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clk.Sleeps())
	// directory 1 + price 3 attempts + valuation 1 + revenue 1
	assert.Equal(t, 6, summary.Calls)
	assert.NotContains(t, notifier.messages[0], "重試成功")
}

func TestRun_RecoveredOnRetryPass(t *testing.T) {
	src := newFakeSource(stock("2330", "台積電"), stock("2454", "聯發科"))
	flaky := matching()
	flaky.failPrice = 3
	src.profiles["2330"] = flaky
	src.profiles["2454"] = matching()

	s, notifier, clk := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.messages, 3)
	assert.Contains(t, notifier.messages[0], "2454")
	assert.Contains(t, notifier.messages[1], "2330")
	assert.Contains(t, notifier.messages[1], "重試成功")
	assert.Contains(t, notifier.messages[2], "共發現 2 檔")
	assert.Equal(t, []Phase{PhasePrimaryPass, PhaseRetryPass, PhaseSummary}, notifier.phases)

	assert.Equal(t, []string{"2454", "2330"}, summary.MatchedCodes())
	assert.Equal(t, 1, summary.Recovered())
	assert.Equal(t, 1, summary.Retried)
	assert.Empty(t, summary.PermanentlyFailed)
	assert.Equal(t, 4, src.priceCallsTotal["2330"])
	assert.Contains(t, clk.Sleeps(), DefaultRetryPause)
}

func TestRun_PermanentFailure(t *testing.T) {
	src := newFakeSource(stock("2330", "台積電"), stock("2317", "鴻海"))
	broken := matching()
	broken.failPrice = 100
	src.profiles["2330"] = broken
	src.profiles["2317"] = &profile{series: series(10, 1)}

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"2330"}, summary.PermanentlyFailed)
	assert.Empty(t, summary.Matched)
	assert.Equal(t, 1, summary.FilteredOut)
	// primary 3 attempts + retry pass 3 attempts, then never again
	assert.Equal(t, 6, src.priceCallsTotal["2330"])

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "共發現 0 檔")
	assert.Contains(t, notifier.messages[0], "重試後仍失敗 1 檔")
}

func TestRun_FatalAtInit(t *testing.T) {
	src := newFakeSource()
	src.directoryErr = errUpstream

	s, notifier, clk := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, errUpstream)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "掃描失敗")
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clk.Sleeps())
}

func TestRun_EmptyUniverseIsFatal(t *testing.T) {
	etf := contracts.Instrument{Code: "0050", Name: "元大台灣50", Market: "twse", Industry: "ETF"}
	src := newFakeSource(etf)

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyUniverse)
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "無可掃描標的")
}

func TestRun_VenueFilterSkipsOthers(t *testing.T) {
	src := newFakeSource(
		stock("2330", "台積電"),
		contracts.Instrument{Code: "0056", Market: "twse", Industry: "ETF"},
		contracts.Instrument{Code: "6488", Market: "tpex", Industry: "半導體業"},
		contracts.Instrument{Code: "2330A", Market: "twse"},
	)
	src.profiles["2330"] = matching()

	s, _, _ := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Universe)
	assert.Len(t, src.priceCallsTotal, 1)
}

func TestRun_BudgetCooldown(t *testing.T) {
	var directory []contracts.Instrument
	for i := 0; i < 4; i++ {
		directory = append(directory, stock(fmt.Sprintf("%d", 2300+i), ""))
	}
	src := newFakeSource(directory...)
	for _, inst := range directory {
		src.profiles[inst.Code] = matching()
	}

	opts := DefaultOptions()
	opts.Budget = budget.Config{SoftLimit: 5, HardLimit: 10, Cooldown: time.Hour, ResetTo: 1}
	s, _, clk := newScanner(t, src, opts)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 13, summary.Calls)
	assert.Equal(t, 3, summary.Cooldowns)
	assert.Equal(t, 3*time.Hour, clk.Slept())
	assert.Equal(t, 3*time.Hour, summary.Duration)
}

func TestRun_ColdBudgetPerRun(t *testing.T) {
	src := newFakeSource(stock("2330", "台積電"))
	src.profiles["2330"] = matching()

	s, _, _ := newScanner(t, src, DefaultOptions())

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	second, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Calls, second.Calls)
	assert.Equal(t, 4, second.Calls)
}

func TestRun_Cancelled(t *testing.T) {
	src := newFakeSource(stock("2330", "台積電"))
	src.profiles["2330"] = matching()

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.Run(ctx)
	require.NoError(t, err, "an interrupted run still completes its summary")
	require.NotNil(t, summary)
	assert.True(t, summary.Interrupted)
	assert.Empty(t, src.priceCallsTotal)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "中斷")
	assert.NoError(t, notifier.ctxErrs[0], "summary must be sent with a live context")
}

func TestRun_CancelledDuringInit(t *testing.T) {
	src := newFakeSource()
	src.directoryErr = context.Canceled

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, src.calls)

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "掃描已中斷")
	assert.NoError(t, notifier.ctxErrs[0])
}

func TestRun_QueuedDuringInterruptCountAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newFakeSource(stock("2330", "台積電"), stock("2454", "聯發科"))
	broken := matching()
	broken.failPrice = 100
	src.profiles["2330"] = broken
	src.profiles["2454"] = matching()

	// 첫 종목 실패 직후 중단
	src.onPriceFailure = cancel

	s, notifier, _ := newScanner(t, src, DefaultOptions())

	summary, err := s.Run(ctx)
	require.NoError(t, err)
	assert.True(t, summary.Interrupted)
	assert.Equal(t, []string{"2330"}, summary.PermanentlyFailed)
	assert.Zero(t, summary.Retried)
	assert.Empty(t, summary.Matched)
	require.Len(t, notifier.messages, 1)
	assert.NoError(t, notifier.ctxErrs[0])
}

func TestNew_RejectsInvalidBudget(t *testing.T) {
	criteria, err := screen.DefaultCriteria(testNow, "twse")
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Budget = budget.Config{SoftLimit: 10, HardLimit: 5, Cooldown: time.Second, ResetTo: 1}

	_, err = New(newFakeSource(), &recordingNotifier{}, criteria, clock.NewFake(testNow), logger.Nop(), opts)
	assert.Error(t, err)
}

func TestFormatMatch(t *testing.T) {
	m := contracts.MatchRecord{
		Code:         "2330",
		Name:         "台積電",
		CurrentPrice: 1005,
		High52W:      1010,
		PER:          8.456,
		AvgYoY:       25.04,
		AvgVolume5:   1234.9,
	}

	text := FormatMatch(m)
	assert.True(t, strings.HasPrefix(text, "🎯 【選股達標】 2330 台積電\n"))
	assert.Contains(t, text, "現價: 1005.00")
	assert.Contains(t, text, "PE: 8.46")
	assert.Contains(t, text, "營收平均YoY: 25.0%")
	assert.Contains(t, text, "5日均量: 1234張")

	m.Recovered = true
	assert.Contains(t, FormatMatch(m), "重試成功")
}

func TestFormatFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"directory unavailable", errUpstream, "無法取得股票清單"},
		{"empty universe", fmt.Errorf("venue filter: %w", ErrEmptyUniverse), "無可掃描標的"},
		{"cancelled", fmt.Errorf("instruments aborted: %w", context.Canceled), "掃描已中斷"},
		{"deadline", context.DeadlineExceeded, "掃描已中斷"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, FormatFatal(tt.err), tt.want)
		})
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		name     string
		summary  *Summary
		contains []string
		excludes []string
	}{
		{
			name:     "no matches",
			summary:  &Summary{},
			contains: []string{"共發現 0 檔"},
			excludes: []string{"📋", "失敗"},
		},
		{
			name: "matches and failures",
			summary: &Summary{
				Matched:           []contracts.MatchRecord{{Code: "2330"}, {Code: "2454"}},
				PermanentlyFailed: []string{"2317"},
			},
			contains: []string{"共發現 2 檔", "2330, 2454", "重試後仍失敗 1 檔: 2317"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := FormatSummary(tt.summary)
			for _, s := range tt.contains {
				assert.Contains(t, text, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, text, s)
			}
		})
	}
}
