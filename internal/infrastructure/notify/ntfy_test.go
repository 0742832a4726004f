package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/storefront/internal/application/notification"
)

func TestNtfy_PostsMessageWithHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		gotHeaders = r.Header.Clone()
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfy(srv.URL+"/orders", WithRateLimit(0, 0))
	err := n.Notify(context.Background(), notification.Message{
		Title:    "New order received",
		Body:     "**Order ID:** o-1",
		Tags:     []string{"tada", "cart"},
		Markdown: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "New order received", gotHeaders.Get("Title"))
	assert.Equal(t, "tada,cart", gotHeaders.Get("Tags"))
	assert.Equal(t, "yes", gotHeaders.Get("Markdown"))
	assert.Equal(t, "**Order ID:** o-1", gotBody)
}

func TestNtfy_EmptyTopicNotConfigured(t *testing.T) {
	err := NewNtfy("  ").Notify(context.Background(), notification.Message{Body: "x"})
	assert.ErrorIs(t, err, notification.ErrNotConfigured)
}

func TestNtfy_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewNtfy(srv.URL).Notify(context.Background(), notification.Message{Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestNtfy_RateLimitWaitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNtfy(srv.URL, WithRateLimit(0.001, 1))
	require.NoError(t, n.Notify(context.Background(), notification.Message{Body: "first"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := n.Notify(ctx, notification.Message{Body: "second"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}
