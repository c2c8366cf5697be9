package sms

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcellocker/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPhone(t *testing.T, raw string) kernel.PhoneNumber {
	t.Helper()
	p, err := kernel.NewPhoneNumber(raw)
	require.NoError(t, err)
	return p
}

func TestTwilioTransport_Send(t *testing.T) {
	var (
		gotPath string
		gotUser string
		gotPass string
		gotForm map[string]string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"To":   r.PostForm.Get("To"),
			"From": r.PostForm.Get("From"),
			"Body": r.PostForm.Get("Body"),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SM123","status":"queued"}`)
	}))
	defer srv.Close()

	tr := NewTwilioTransport(TwilioConfig{
		BaseURL:    srv.URL,
		AccountSID: "AC1",
		AuthToken:  "tok",
		From:       "+15005550006",
	})

	res, err := tr.Send(context.Background(), mustPhone(t, "88118811"), "Code: 04718325")
	require.NoError(t, err)

	assert.Equal(t, "SM123", res.ProviderID)
	assert.Equal(t, "queued", res.Status)
	assert.Equal(t, "/2010-04-01/Accounts/AC1/Messages.json", gotPath)
	assert.Equal(t, "AC1", gotUser)
	assert.Equal(t, "tok", gotPass)
	assert.Equal(t, "+97688118811", gotForm["To"])
	assert.Equal(t, "+15005550006", gotForm["From"])
	assert.Equal(t, "Code: 04718325", gotForm["Body"])
}

func TestTwilioTransport_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":21211,"message":"Invalid 'To' Phone Number"}`)
	}))
	defer srv.Close()

	tr := NewTwilioTransport(TwilioConfig{BaseURL: srv.URL, AccountSID: "AC1"})
	_, err := tr.Send(context.Background(), mustPhone(t, "88118811"), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioTransport_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	tr := NewTwilioTransport(TwilioConfig{BaseURL: srv.URL, AccountSID: "AC1", Timeout: 50 * time.Millisecond})
	_, err := tr.Send(context.Background(), mustPhone(t, "88118811"), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms send")
}

func TestLogTransport(t *testing.T) {
	tr := NewLogTransport(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := tr.Send(context.Background(), mustPhone(t, "88118811"), "x")

	require.NoError(t, err)
	assert.Equal(t, "logged", res.Status)
}
