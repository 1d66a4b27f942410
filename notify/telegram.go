package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/supply-ledger/catalog"
	"github.com/warp/supply-ledger/requisition"
)

const DefaultTelegramAPIBase = "https://api.telegram.org"

var ErrNotConfigured = errors.New("telegram bot token or chat id not set")

// ConfigSource returns the current bot credentials. catalog.Service
// implements it.
type ConfigSource interface {
	NotifierConfig(ctx context.Context) (catalog.NotifierConfig, error)
}

// Telegram posts announcements through the Bot API sendMessage method.
// Credentials are read on every send, so settings changes apply at once.
type Telegram struct {
	Config  ConfigSource
	APIBase string
	Client  *http.Client
	Log     logrus.FieldLogger
}

func NewTelegram(cfg ConfigSource, apiBase string) *Telegram {
	if apiBase == "" {
		apiBase = DefaultTelegramAPIBase
	}
	return &Telegram{
		Config:  cfg,
		APIBase: strings.TrimRight(apiBase, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
		Log:     logrus.StandardLogger(),
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notify announces a new requisition. Missing credentials are a silent skip.
func (t *Telegram) Notify(ctx context.Context, r requisition.Requisition) error {
	cfg, err := t.Config.NotifierConfig(ctx)
	if err != nil {
		return err
	}
	if !cfg.Enabled() {
		t.Log.WithField("requisition_id", r.ID).Debug("telegram not configured, skipping")
		return nil
	}
	return t.send(ctx, cfg, FormatMessage(r))
}

// SendTest sends TestMessage with the given credentials.
func (t *Telegram) SendTest(ctx context.Context, cfg catalog.NotifierConfig) error {
	if !cfg.Enabled() {
		return ErrNotConfigured
	}
	return t.send(ctx, cfg, TestMessage)
}

func (t *Telegram) send(ctx context.Context, cfg catalog.NotifierConfig, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: cfg.ChatID, Text: text, ParseMode: "HTML"})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.APIBase, cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		// the URL carries the token; keep it out of logs
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
