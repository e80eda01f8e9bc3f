package finmind

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/twscreener/internal/clock"
	"github.com/wonny/twscreener/pkg/config"
	"github.com/wonny/twscreener/pkg/httputil"
	"github.com/wonny/twscreener/pkg/logger"
)

// FinMind datasets
const (
	DatasetStockInfo    = "TaiwanStockInfo"
	DatasetStockPrice   = "TaiwanStockPrice"
	DatasetStockPER     = "TaiwanStockPER"
	DatasetMonthRevenue = "TaiwanStockMonthRevenue"
)

const dateLayout = "2006-01-02"

// Client handles communication with the FinMind v4 API
// ⭐ SSOT: FinMind API 호출은 이 클라이언트에서만
//
// Each exported Fetch method is exactly one HTTP request.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	clock      clock.Clock
	baseURL    string
	token      string
}

// NewClient creates a new FinMind client
// An empty token runs in FinMind's unauthenticated mode (lower quota).
func NewClient(cfg config.FinMindConfig, httpClient *httputil.Client, clk clock.Clock, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.finmindtrade.com/api/v4"
	}

	l := log.WithField("module", "finmind")
	if cfg.Token == "" {
		l.Warn("FINMIND_TOKEN not set, using unauthenticated mode")
	}

	return &Client{
		httpClient: httpClient,
		logger:     l,
		clock:      clk,
		baseURL:    baseURL,
		token:      cfg.Token,
	}
}

// envelope is the common FinMind response wrapper
type envelope[T any] struct {
	Msg    string `json:"msg"`
	Status int    `json:"status"`
	Data   []T    `json:"data"`
}

// APIError is a non-success FinMind response
type APIError struct {
	Dataset    string
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finmind %s: status %d: %s", e.Dataset, e.StatusCode, e.Msg)
}

// QuotaExceeded reports whether FinMind rejected the call for quota reasons
// FinMind answers 402 when the hourly limit is hit.
func (e *APIError) QuotaExceeded() bool {
	return e.StatusCode == http.StatusPaymentRequired
}

// Permanent reports whether repeating the call cannot succeed
// Quota, throttling and 5xx answers are worth another attempt; other 4xx are not.
func (e *APIError) Permanent() bool {
	if e.QuotaExceeded() || httputil.IsRetryableStatus(e.StatusCode) {
		return false
	}
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// fetchDataset performs one dataset query and decodes the data rows
func fetchDataset[T any](ctx context.Context, c *Client, dataset string, params url.Values) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("dataset", dataset)
	if c.token != "" {
		params.Set("token", c.token)
	}

	fullURL := fmt.Sprintf("%s/data?%s", c.baseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &APIError{Dataset: dataset, StatusCode: resp.StatusCode, Msg: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("decode %s response failed: %w", dataset, err)
	}

	// HTTP 상태와 본문 status 둘 다 확인
	if resp.StatusCode != http.StatusOK || (env.Status != 0 && env.Status != http.StatusOK) {
		code := env.Status
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &APIError{Dataset: dataset, StatusCode: code, Msg: env.Msg}
	}

	return env.Data, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
