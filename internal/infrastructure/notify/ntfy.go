package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Zhima-Mochi/storefront/internal/application/notification"
)

const defaultTimeout = 5 * time.Second

// Ntfy posts messages to an ntfy topic URL.
type Ntfy struct {
	topicURL string
	client   *http.Client
	limiter  *rate.Limiter
}

type Option func(*Ntfy)

func WithHTTPClient(c *http.Client) Option {
	return func(n *Ntfy) {
		if c != nil {
			n.client = c
		}
	}
}

// WithRateLimit caps outbound pushes to perSec with the given burst. perSec <= 0 disables the cap.
func WithRateLimit(perSec float64, burst int) Option {
	return func(n *Ntfy) {
		if perSec <= 0 {
			n.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		n.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	}
}

func NewNtfy(topicURL string, opts ...Option) *Ntfy {
	n := &Ntfy{
		topicURL: strings.TrimSpace(topicURL),
		client:   &http.Client{Timeout: defaultTimeout},
		limiter:  rate.NewLimiter(rate.Limit(1), 5),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Ntfy) Notify(ctx context.Context, msg notification.Message) error {
	if n.topicURL == "" {
		return notification.ErrNotConfigured
	}
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("ntfy: rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, bytes.NewBufferString(msg.Body))
	if err != nil {
		return fmt.Errorf("ntfy: build request: %w", err)
	}
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if len(msg.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.Tags, ","))
	}
	if msg.Markdown {
		req.Header.Set("Markdown", "yes")
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ntfy: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("ntfy: unexpected status %d", resp.StatusCode)
	}
	return nil
}
