// Package feed notifies a publish/subscribe hub that the site feed changed.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/community-blog-api/internal/config"
	"github.com/rs/zerolog"
)

// Pinger tells subscribers that new content was published
type Pinger interface {
	Ping(ctx context.Context) error
}

// New returns a HubPinger when pinging is enabled and a NopPinger otherwise
func New(cfg config.FeedConfig, log zerolog.Logger) Pinger {
	if !cfg.PingEnabled {
		return NopPinger{}
	}
	return NewHubPinger(cfg, log)
}

// NopPinger does nothing
type NopPinger struct{}

// Ping implements Pinger
func (NopPinger) Ping(context.Context) error { return nil }

// HubPinger posts hub.mode=publish requests to a hub, retrying failures
type HubPinger struct {
	client   *http.Client
	hubURL   string
	feedURL  string
	attempts uint
	delay    time.Duration
	log      zerolog.Logger
}

// NewHubPinger creates a pinger for the configured hub and feed
func NewHubPinger(cfg config.FeedConfig, log zerolog.Logger) *HubPinger {
	attempts := cfg.PingAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &HubPinger{
		client:   &http.Client{Timeout: cfg.PingTimeout},
		hubURL:   cfg.HubURL,
		feedURL:  cfg.FeedURL,
		attempts: attempts,
		delay:    200 * time.Millisecond,
		log:      log.With().Str("component", "feed").Logger(),
	}
}

// Ping notifies the hub. 4xx responses are not retried.
func (p *HubPinger) Ping(ctx context.Context) error {
	return retry.Do(
		func() error {
			return p.publish(ctx)
		},
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.log.Warn().Err(err).Uint("attempt", n+1).Str("hub", p.hubURL).Msg("Hub ping failed, retrying")
		}),
	)
}

func (p *HubPinger) publish(ctx context.Context) error {
	form := url.Values{}
	form.Set("hub.mode", "publish")
	form.Set("hub.url", p.feedURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.hubURL, strings.NewReader(form.Encode()))
	if err != nil {
		return retry.Unrecoverable(fmt.Errorf("build hub request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("hub request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("hub responded with status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return retry.Unrecoverable(fmt.Errorf("hub rejected ping with status %d", resp.StatusCode))
	}
	return nil
}
