package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"parcellocker/internal/core/domain/model/kernel"
	"parcellocker/internal/core/ports"

	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://api.twilio.com"

// TwilioConfig holds the account credentials of the SMS provider.
type TwilioConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Timeout    time.Duration
}

// TwilioTransport sends messages through the Twilio Messages API.
type TwilioTransport struct {
	cfg  TwilioConfig
	http *http.Client
}

func NewTwilioTransport(cfg TwilioConfig) *TwilioTransport {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &TwilioTransport{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

type messageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *TwilioTransport) Send(ctx context.Context, to kernel.PhoneNumber, text string) (ports.SMSResult, error) {
	form := url.Values{}
	form.Set("To", to.String())
	form.Set("From", t.cfg.From)
	form.Set("Body", text)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.cfg.BaseURL, url.PathEscape(t.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return ports.SMSResult{}, errors.Wrap(err, "sms build request")
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := t.http.Do(req)
	if err != nil {
		return ports.SMSResult{}, errors.Wrap(err, "sms send")
	}
	defer res.Body.Close()

	var body messageResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&body); err != nil && res.StatusCode < 300 {
		return ports.SMSResult{}, errors.Wrap(err, "sms decode response")
	}
	if res.StatusCode >= 300 {
		return ports.SMSResult{}, fmt.Errorf("sms send: status %d: code %d: %s", res.StatusCode, body.Code, body.Message)
	}
	return ports.SMSResult{ProviderID: body.SID, Status: body.Status}, nil
}

// LogTransport writes messages to the log instead of sending them. It is
// used when no provider credentials are configured.
type LogTransport struct {
	logger *slog.Logger
}

func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With("component", "sms-log-transport")}
}

func (t *LogTransport) Send(ctx context.Context, to kernel.PhoneNumber, text string) (ports.SMSResult, error) {
	t.logger.InfoContext(ctx, "sms not sent, no provider configured", "to", to.String(), "text", text)
	return ports.SMSResult{Status: "logged"}, nil
}
