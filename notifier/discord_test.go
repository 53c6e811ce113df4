package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imacwatch/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscordNotifier_Notify(t *testing.T) {
	var got webhookPayload
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewDiscordNotifier(config.WebhookConfig{URL: server.URL, Username: "iMac Price Watch", Timeout: 20 * time.Second})
	err := n.Notify(context.Background(), "🔥 **iMacs Under $1,200.00 Found!**")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, "🔥 **iMacs Under $1,200.00 Found!**", got.Content)
	assert.Equal(t, "iMac Price Watch", got.Username)
}

func TestDiscordNotifier_Non2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "Cannot send an empty message"}`))
	}))
	defer server.Close()

	n := NewDiscordNotifier(config.WebhookConfig{URL: server.URL})
	err := n.Notify(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "Cannot send an empty message")
}

func TestDiscordNotifier_NotConfigured(t *testing.T) {
	n := NewDiscordNotifier(config.WebhookConfig{URL: "  "})
	err := n.Notify(context.Background(), "hello")
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestDiscordNotifier_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewDiscordNotifier(config.WebhookConfig{URL: server.URL})
	err := n.Notify(ctx, "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
