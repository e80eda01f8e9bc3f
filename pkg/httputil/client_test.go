package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twscreener/pkg/config"
	"github.com/wonny/twscreener/pkg/logger"
)

func newTestClient() *Client {
	return New(&config.Config{HTTPTimeout: 5 * time.Second}, logger.Nop())
}

func TestNew(t *testing.T) {
	client := newTestClient()
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)

	fallback := New(&config.Config{}, logger.Nop())
	assert.Equal(t, 30*time.Second, fallback.httpClient.Timeout)
}

func TestWithRateLimit(t *testing.T) {
	client := newTestClient().WithRateLimit(2)
	require.NotNil(t, client.limiter)
	assert.Equal(t, 2.0, float64(client.limiter.Limit()))

	client.WithRateLimit(0)
	assert.Nil(t, client.limiter)
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":200}`))
	}))
	defer server.Close()

	resp, err := newTestClient().WithRateLimit(100).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"status":200}`, string(body))
}

func TestGet_NoInternalRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := newTestClient().Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, 1, calls, "retries belong to the caller")
}

func TestPostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "hello", r.PostForm.Get("text"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := newTestClient().PostForm(context.Background(), server.URL, url.Values{
		"chat_id": {"42"},
		"text":    {"hello"},
	})
	require.NoError(t, err)
	resp.Body.Close()
}

func TestGet_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().WithRateLimit(1).Get(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "finmind token",
			raw:  "https://api.finmindtrade.com/api/v4/data?dataset=TaiwanStockInfo&token=secret",
			want: "https://api.finmindtrade.com/api/v4/data?dataset=TaiwanStockInfo&token=REDACTED",
		},
		{
			name: "telegram bot path",
			raw:  "https://api.telegram.org/bot123:abc/sendMessage",
			want: "https://api.telegram.org/botREDACTED/sendMessage",
		},
		{
			name: "no credentials",
			raw:  "https://example.com/data?dataset=x",
			want: "https://example.com/data?dataset=x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, redact(u))
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, IsRetryableStatus(500))
	assert.True(t, IsRetryableStatus(503))
	assert.True(t, IsRetryableStatus(429))
	assert.False(t, IsRetryableStatus(200))
	assert.False(t, IsRetryableStatus(404))
}
