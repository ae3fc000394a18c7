package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/community-blog-api/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPinger(hubURL string, attempts uint) *HubPinger {
	p := NewHubPinger(config.FeedConfig{
		PingEnabled:  true,
		HubURL:       hubURL,
		FeedURL:      "http://blog.example.com/feed",
		PingAttempts: attempts,
		PingTimeout:  time.Second,
	}, zerolog.Nop())
	p.delay = time.Millisecond
	return p
}

func TestHubPingerSendsPublishForm(t *testing.T) {
	var mode, feedURL, contentType string
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		r.ParseForm()
		mode = r.PostForm.Get("hub.mode")
		feedURL = r.PostForm.Get("hub.url")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hub.Close()

	err := newTestPinger(hub.URL, 3).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "publish", mode)
	assert.Equal(t, "http://blog.example.com/feed", feedURL)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
}

func TestHubPingerRetriesServerErrors(t *testing.T) {
	var calls int32
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hub.Close()

	err := newTestPinger(hub.URL, 3).Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHubPingerGivesUp(t *testing.T) {
	var calls int32
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer hub.Close()

	err := newTestPinger(hub.URL, 2).Ping(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestHubPingerDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	hub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer hub.Close()

	err := newTestPinger(hub.URL, 5).Ping(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewReturnsNopWhenDisabled(t *testing.T) {
	p := New(config.FeedConfig{}, zerolog.Nop())
	_, ok := p.(NopPinger)
	assert.True(t, ok)
	assert.NoError(t, p.Ping(context.Background()))
}
