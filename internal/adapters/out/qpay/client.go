// Package qpay is the payment gateway client. It issues invoices and checks
// their settlement against the QPay merchant API v2.
//
// Calls authenticate with a bearer token that is cached in memory and in the
// provider_tokens table, so every replica of the service shares one token. A
// 401 answer triggers exactly one token renewal and one retry of the call.
package qpay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"parcellocker/internal/core/domain/model/payment"
	"parcellocker/internal/core/ports"
	"parcellocker/internal/pkg/errs"

	"github.com/pkg/errors"
)

const (
	ProviderName   = "qpay"
	DefaultBaseURL = "https://merchant.qpay.mn/v2"

	senderBranchCode = "App"
	tokenMargin      = 30 * time.Second
	maxErrorBody     = 512
)

var errUnauthorized = errors.New("qpay: unauthorized")

// Config holds the merchant credentials.
type Config struct {
	BaseURL     string
	Username    string
	Password    string
	InvoiceCode string
	Timeout     time.Duration
}

// Client implements ports.PaymentGateway.
type Client struct {
	cfg    Config
	http   *http.Client
	tokens ports.ProviderTokenRepository
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	cached ports.ProviderToken
}

func NewClient(cfg Config, tokens ports.ProviderTokenRepository, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		logger: logger.With("component", "qpay"),
		now:    time.Now,
	}
}

type invoiceRequest struct {
	InvoiceCode         string `json:"invoice_code"`
	SenderInvoiceNo     string `json:"sender_invoice_no"`
	InvoiceReceiverCode string `json:"invoice_receiver_code"`
	InvoiceDescription  string `json:"invoice_description"`
	SenderBranchCode    string `json:"sender_branch_code"`
	Amount              int64  `json:"amount"`
	CallbackURL         string `json:"callback_url"`
}

type invoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	QRText    string `json:"qr_text"`
	QRImage   string `json:"qr_image"`
	ShortURL  string `json:"qPay_shortUrl"`
	URLs      []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Logo        string `json:"logo"`
		Link        string `json:"link"`
	} `json:"urls"`
}

type checkRequest struct {
	ObjectType string `json:"object_type"`
	ObjectID   string `json:"object_id"`
	Offset     struct {
		PageNumber int `json:"page_number"`
		PageLimit  int `json:"page_limit"`
	} `json:"offset"`
}

type checkResponse struct {
	Count      int     `json:"count"`
	PaidAmount float64 `json:"paid_amount"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	RefreshExpiresIn int64  `json:"refresh_expires_in"`
}

func (c *Client) CreateInvoice(ctx context.Context, req ports.InvoiceRequest) (payment.Invoice, error) {
	body := invoiceRequest{
		InvoiceCode:         c.cfg.InvoiceCode,
		SenderInvoiceNo:     req.SenderInvoiceNo,
		InvoiceReceiverCode: req.ReceiverCode,
		InvoiceDescription:  req.Description,
		SenderBranchCode:    senderBranchCode,
		Amount:              req.Amount,
		CallbackURL:         req.CallbackURL,
	}
	if body.InvoiceReceiverCode == "" {
		body.InvoiceReceiverCode = c.cfg.InvoiceCode
	}

	var resp invoiceResponse
	if err := c.call(ctx, "/invoice", body, &resp); err != nil {
		return payment.Invoice{}, errs.NewExternalServiceError(ProviderName, err)
	}

	links := make([]payment.Deeplink, 0, len(resp.URLs))
	for _, u := range resp.URLs {
		links = append(links, payment.Deeplink{
			Name:        u.Name,
			Description: u.Description,
			Logo:        u.Logo,
			Link:        u.Link,
		})
	}
	invoice, err := payment.NewInvoice(resp.InvoiceID, resp.QRText, resp.QRImage, resp.ShortURL, links)
	if err != nil {
		return payment.Invoice{}, errs.NewExternalServiceError(ProviderName, errors.Wrap(err, "qpay invoice response"))
	}
	return invoice, nil
}

func (c *Client) CheckPayment(ctx context.Context, invoiceID string) (ports.PaymentCheck, error) {
	body := checkRequest{ObjectType: "INVOICE", ObjectID: invoiceID}
	body.Offset.PageNumber = 1
	body.Offset.PageLimit = 100

	var resp checkResponse
	if err := c.call(ctx, "/payment/check", body, &resp); err != nil {
		return ports.PaymentCheck{}, errs.NewExternalServiceError(ProviderName, err)
	}
	return ports.PaymentCheck{
		Count:      resp.Count,
		PaidAmount: int64(resp.PaidAmount),
	}, nil
}

// call posts in to path with the current bearer token. On 401 the token is
// renewed once and the call repeated once.
func (c *Client) call(ctx context.Context, path string, in, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	err = c.post(ctx, path, "Bearer "+token.AccessToken, in, out)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	c.logger.InfoContext(ctx, "access token rejected, renewing", "path", path)
	token, err = c.renew(ctx, token)
	if err != nil {
		return err
	}
	return c.post(ctx, path, "Bearer "+token.AccessToken, in, out)
}

func (c *Client) accessToken(ctx context.Context) (ports.ProviderToken, error) {
	now := c.now()

	c.mu.Lock()
	cached := c.cached
	c.mu.Unlock()
	if cached.IsUsable(now, tokenMargin) {
		return cached, nil
	}

	stored, err := c.tokens.Get(ctx, ProviderName)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		stored = ports.ProviderToken{Provider: ProviderName}
	case err != nil:
		return ports.ProviderToken{}, errors.Wrap(err, "load qpay token")
	}
	if stored.IsUsable(now, tokenMargin) {
		c.remember(stored)
		return stored, nil
	}
	return c.renew(ctx, stored)
}

// renew replaces current with a fresh token. The refresh token is tried
// first; a rejected refresh falls back to the merchant credentials.
func (c *Client) renew(ctx context.Context, current ports.ProviderToken) (ports.ProviderToken, error) {
	var (
		resp tokenResponse
		err  error
	)
	if current.CanRefresh(c.now()) {
		err = c.post(ctx, "/auth/refresh", "Bearer "+current.RefreshToken, nil, &resp)
		if err != nil {
			c.logger.WarnContext(ctx, "token refresh failed, authenticating", "error", err)
		}
	}
	if !current.CanRefresh(c.now()) || err != nil {
		if err = c.post(ctx, "/auth/token", basicAuth(c.cfg.Username, c.cfg.Password), nil, &resp); err != nil {
			return ports.ProviderToken{}, errors.Wrap(err, "qpay auth")
		}
	}
	if resp.AccessToken == "" {
		return ports.ProviderToken{}, errors.New("qpay auth: empty access token")
	}

	now := c.now()
	fresh := ports.ProviderToken{
		Provider:         ProviderName,
		AccessToken:      resp.AccessToken,
		RefreshToken:     resp.RefreshToken,
		ExpiresAt:        expiry(now, resp.ExpiresIn),
		RefreshExpiresAt: expiry(now, resp.RefreshExpiresIn),
		Version:          current.Version,
	}

	err = c.tokens.Save(ctx, fresh)
	switch {
	case err == nil:
		fresh.Version++
	case errors.Is(err, errs.ErrConflict):
		// Another replica renewed first. Adopt its token so the next
		// renewal saves against the current version.
		if stored, gerr := c.tokens.Get(ctx, ProviderName); gerr == nil && stored.IsUsable(now, tokenMargin) {
			fresh = stored
		}
	default:
		c.logger.WarnContext(ctx, "qpay token not stored", "error", err)
	}
	c.remember(fresh)
	return fresh, nil
}

func (c *Client) remember(token ports.ProviderToken) {
	c.mu.Lock()
	c.cached = token
	c.mu.Unlock()
}

func (c *Client) post(ctx context.Context, path, authorization string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "qpay marshal request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "qpay build request")
	}
	req.Header.Set("Authorization", authorization)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "qpay %s", path)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return fmt.Errorf("qpay %s: status %d: %s", path, res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "qpay %s: decode response", path)
	}
	return nil
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// expiry converts an expires_in value. QPay sends a unix timestamp; small
// values are treated as a lifetime in seconds.
func expiry(now time.Time, v int64) time.Time {
	if v <= 0 {
		return now
	}
	if v > 1_000_000_000 {
		return time.Unix(v, 0).UTC()
	}
	return now.Add(time.Duration(v) * time.Second).UTC()
}
