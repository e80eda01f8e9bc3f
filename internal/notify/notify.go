package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/wonny/twscreener/internal/contracts"
	"github.com/wonny/twscreener/pkg/config"
	"github.com/wonny/twscreener/pkg/httputil"
	"github.com/wonny/twscreener/pkg/logger"
)

// Telegram's hard limit for one message
const maxMessageLength = 4096

// New picks the notifier for the configuration
// ⭐ SSOT: 알림 채널 선택은 여기서만
//
// Missing bot token or chat id degrades to log-only delivery.
func New(cfg config.TelegramConfig, httpClient *httputil.Client, log *logger.Logger) contracts.Notifier {
	if !cfg.Enabled() {
		log.WithField("module", "notify").Warn("TELEGRAM_TOKEN or CHAT_ID not set, notifications go to the log only")
		return NewLogNotifier(log)
	}
	return NewTelegram(cfg, httpClient, log)
}

// Telegram delivers messages through the Bot API sendMessage method
type Telegram struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	token      string
	chatID     string
}

// NewTelegram creates a Telegram notifier
func NewTelegram(cfg config.TelegramConfig, httpClient *httputil.Client, log *logger.Logger) *Telegram {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Telegram{
		httpClient: httpClient,
		logger:     log.WithField("module", "notify"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      cfg.Token,
		chatID:     cfg.ChatID,
	}
}

// telegramResponse is the Bot API response envelope
type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// Notify sends text; failures are logged, never returned
// Cancellation of ctx is ignored: a shutdown still delivers the final report.
// The HTTP client timeout bounds the call.
func (t *Telegram) Notify(ctx context.Context, text string) {
	if err := t.send(context.WithoutCancel(ctx), text); err != nil {
		t.logger.WithError(err).Error("Telegram delivery failed")
	}
}

func (t *Telegram) send(ctx context.Context, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	form := url.Values{
		"chat_id": {t.chatID},
		"text":    {truncate(text, maxMessageLength)},
	}

	resp, err := t.httpClient.PostForm(ctx, endpoint, form)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	var tr telegramResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !tr.OK {
		return fmt.Errorf("telegram API error %d: %s", tr.ErrorCode, tr.Description)
	}

	t.logger.WithField("chat_id", t.chatID).Debug("Telegram message sent")
	return nil
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// LogNotifier writes notifications to the log
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log.WithField("module", "notify")}
}

func (n *LogNotifier) Notify(_ context.Context, text string) {
	n.logger.WithField("text", text).Info("Notification (log only)")
}
