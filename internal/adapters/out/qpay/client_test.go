package qpay

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"parcellocker/internal/core/ports"
	"parcellocker/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTokens struct {
	mu    sync.Mutex
	token *ports.ProviderToken
	saves int
}

func (m *memoryTokens) Get(_ context.Context, provider string) (ports.ProviderToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return ports.ProviderToken{}, errs.NewObjectNotFoundError("provider", provider)
	}
	return *m.token, nil
}

func (m *memoryTokens) Save(_ context.Context, token ports.ProviderToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := 0
	if m.token != nil {
		current = m.token.Version
	}
	if current != token.Version {
		return errs.NewConflictError("provider token", token.Provider, "stale version")
	}
	token.Version++
	m.token = &token
	m.saves++
	return nil
}

type gateway struct {
	t            *testing.T
	tokenCalls   atomic.Int32
	refreshCalls atomic.Int32
	invoiceCalls atomic.Int32
	// rejectTokens lists access tokens the API answers 401 for.
	rejectTokens map[string]bool
	issued       atomic.Int32
	invoiceCode  int
	lastInvoice  invoiceRequest
	lastCheck    checkRequest
	mu           sync.Mutex
}

func (g *gateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "merchant" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.tokenCalls.Add(1)
		g.writeToken(w)
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer refresh-ok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.refreshCalls.Add(1)
		g.writeToken(w)
	})
	mux.HandleFunc("/invoice", func(w http.ResponseWriter, r *http.Request) {
		if !g.authorized(w, r) {
			return
		}
		g.invoiceCalls.Add(1)
		if g.invoiceCode != 0 {
			w.WriteHeader(g.invoiceCode)
			_, _ = io.WriteString(w, `{"error":"INVOICE_CODE_INVALID"}`)
			return
		}
		g.mu.Lock()
		require.NoError(g.t, json.NewDecoder(r.Body).Decode(&g.lastInvoice))
		g.mu.Unlock()
		_, _ = io.WriteString(w, `{
			"invoice_id": "inv-42",
			"qr_text": "0002010102121531",
			"qr_image": "iVBORw0KGgo=",
			"qPay_shortUrl": "https://s.qpay.mn/abc",
			"urls": [{"name": "Khan bank", "description": "Khan", "logo": "https://l/k.png", "link": "khanbank://q?qPay_QRcode=1"}]
		}`)
	})
	mux.HandleFunc("/payment/check", func(w http.ResponseWriter, r *http.Request) {
		if !g.authorized(w, r) {
			return
		}
		g.mu.Lock()
		require.NoError(g.t, json.NewDecoder(r.Body).Decode(&g.lastCheck))
		g.mu.Unlock()
		_, _ = io.WriteString(w, `{"count": 1, "paid_amount": 5000, "rows": []}`)
	})
	return mux
}

func (g *gateway) authorized(w http.ResponseWriter, r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	g.mu.Lock()
	rejected := g.rejectTokens[auth]
	g.mu.Unlock()
	if rejected || auth == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return false
	}
	return true
}

func (g *gateway) writeToken(w http.ResponseWriter) {
	n := g.issued.Add(1)
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken:      "access-" + strconv.Itoa(int(n)),
		RefreshToken:     "refresh-ok",
		ExpiresIn:        3600,
		RefreshExpiresIn: 7200,
	})
}

func newTestClient(t *testing.T, g *gateway, tokens *memoryTokens) (*Client, *httptest.Server) {
	t.Helper()
	g.t = t
	srv := httptest.NewServer(g.handler())
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:     srv.URL,
		Username:    "merchant",
		Password:    "secret",
		InvoiceCode: "LOCKER_INVOICE",
		Timeout:     2 * time.Second,
	}, tokens, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return c, srv
}

func TestCreateInvoice_AuthenticatesAndStoresToken(t *testing.T) {
	g := &gateway{}
	tokens := &memoryTokens{}
	c, _ := newTestClient(t, g, tokens)

	invoice, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{
		SenderInvoiceNo: "pay-1",
		Description:     "Smart Locker",
		Amount:          5000,
		CallbackURL:     "https://example.test/cb",
	})
	require.NoError(t, err)

	assert.Equal(t, "inv-42", invoice.ID)
	assert.Equal(t, "https://s.qpay.mn/abc", invoice.ShortURL)
	require.Len(t, invoice.Deeplinks, 1)
	assert.Equal(t, "Khan bank", invoice.Deeplinks[0].Name)

	assert.Equal(t, "LOCKER_INVOICE", g.lastInvoice.InvoiceCode)
	assert.Equal(t, "LOCKER_INVOICE", g.lastInvoice.InvoiceReceiverCode)
	assert.Equal(t, "App", g.lastInvoice.SenderBranchCode)
	assert.Equal(t, int64(5000), g.lastInvoice.Amount)
	assert.Equal(t, "https://example.test/cb", g.lastInvoice.CallbackURL)

	assert.Equal(t, int32(1), g.tokenCalls.Load())
	stored, err := tokens.Get(context.Background(), ProviderName)
	require.NoError(t, err)
	assert.Equal(t, "access-1", stored.AccessToken)
	assert.Equal(t, 1, stored.Version)
}

func TestCreateInvoice_ReusesCachedToken(t *testing.T) {
	g := &gateway{}
	c, _ := newTestClient(t, g, &memoryTokens{})

	for range 3 {
		_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), g.tokenCalls.Load())
	assert.Equal(t, int32(3), g.invoiceCalls.Load())
}

func TestCreateInvoice_UsesStoredToken(t *testing.T) {
	g := &gateway{}
	tokens := &memoryTokens{token: &ports.ProviderToken{
		Provider:         ProviderName,
		AccessToken:      "shared",
		RefreshToken:     "refresh-ok",
		ExpiresAt:        time.Now().Add(time.Hour),
		RefreshExpiresAt: time.Now().Add(2 * time.Hour),
		Version:          4,
	}}
	c, _ := newTestClient(t, g, tokens)

	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(0), g.tokenCalls.Load())
	assert.Equal(t, int32(0), g.refreshCalls.Load())
}

func TestCreateInvoice_ExpiredTokenIsRefreshed(t *testing.T) {
	g := &gateway{}
	tokens := &memoryTokens{token: &ports.ProviderToken{
		Provider:         ProviderName,
		AccessToken:      "old",
		RefreshToken:     "refresh-ok",
		ExpiresAt:        time.Now().Add(-time.Minute),
		RefreshExpiresAt: time.Now().Add(time.Hour),
		Version:          2,
	}}
	c, _ := newTestClient(t, g, tokens)

	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), g.refreshCalls.Load())
	assert.Equal(t, int32(0), g.tokenCalls.Load())

	stored, _ := tokens.Get(context.Background(), ProviderName)
	assert.Equal(t, 3, stored.Version)
	assert.Equal(t, "access-1", stored.AccessToken)
}

func TestCreateInvoice_RenewsOnceOnUnauthorized(t *testing.T) {
	g := &gateway{rejectTokens: map[string]bool{"Bearer revoked": true}}
	tokens := &memoryTokens{token: &ports.ProviderToken{
		Provider:    ProviderName,
		AccessToken: "revoked",
		ExpiresAt:   time.Now().Add(time.Hour),
		Version:     1,
	}}
	c, _ := newTestClient(t, g, tokens)

	invoice, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, "inv-42", invoice.ID)
	assert.Equal(t, int32(1), g.tokenCalls.Load())
	assert.Equal(t, int32(1), g.invoiceCalls.Load())
}

func TestCreateInvoice_SecondUnauthorizedIsExternalError(t *testing.T) {
	g := &gateway{rejectTokens: map[string]bool{
		"Bearer revoked":  true,
		"Bearer access-1": true,
	}}
	tokens := &memoryTokens{token: &ports.ProviderToken{
		Provider:    ProviderName,
		AccessToken: "revoked",
		ExpiresAt:   time.Now().Add(time.Hour),
		Version:     1,
	}}
	c, _ := newTestClient(t, g, tokens)

	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExternalService)
	assert.Equal(t, int32(1), g.tokenCalls.Load())
}

func TestCreateInvoice_GatewayErrorStatus(t *testing.T) {
	g := &gateway{invoiceCode: http.StatusBadRequest}
	c, _ := newTestClient(t, g, &memoryTokens{})

	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExternalService)
	assert.Contains(t, err.Error(), "INVOICE_CODE_INVALID")
}

func TestCreateInvoice_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(slow.Close)

	c := NewClient(Config{BaseURL: slow.URL, Timeout: 100 * time.Millisecond}, &memoryTokens{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrExternalService)
}

func TestCheckPayment(t *testing.T) {
	g := &gateway{}
	c, _ := newTestClient(t, g, &memoryTokens{})

	check, err := c.CheckPayment(context.Background(), "inv-42")
	require.NoError(t, err)
	assert.True(t, check.IsSettled())
	assert.Equal(t, int64(5000), check.PaidAmount)

	assert.Equal(t, "INVOICE", g.lastCheck.ObjectType)
	assert.Equal(t, "inv-42", g.lastCheck.ObjectID)
	assert.Equal(t, 1, g.lastCheck.Offset.PageNumber)
	assert.Equal(t, 100, g.lastCheck.Offset.PageLimit)
}

func TestCreateInvoice_LostTokenRaceAdoptsStoredToken(t *testing.T) {
	g := &gateway{}
	tokens := &memoryTokens{}
	c, _ := newTestClient(t, g, tokens)

	// Another replica stored a token between our load and our save.
	c.tokens = racingTokens{memoryTokens: tokens}

	_, err := c.CreateInvoice(context.Background(), ports.InvoiceRequest{Amount: 1})
	require.NoError(t, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Equal(t, "winner", c.cached.AccessToken)
}

type racingTokens struct {
	*memoryTokens
}

func (r racingTokens) Save(ctx context.Context, token ports.ProviderToken) error {
	_ = r.memoryTokens.Save(ctx, ports.ProviderToken{
		Provider:    ProviderName,
		AccessToken: "winner",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	return r.memoryTokens.Save(ctx, token)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(time.Hour), expiry(now, 3600))
	assert.Equal(t, time.Unix(1_800_000_000, 0).UTC(), expiry(now, 1_800_000_000))
	assert.Equal(t, now, expiry(now, 0))
}
