package mocks

import (
	"context"
	"sync"

	"github.com/community-blog-api/internal/feed"
	"github.com/community-blog-api/internal/models"
	"github.com/community-blog-api/internal/notify"
)

// Mention is one recorded dispatcher call
type Mention struct {
	UserID string
	PostID string
}

// MockDispatcher is a mock implementation of notify.Dispatcher
type MockDispatcher struct {
	mu       sync.Mutex
	Mentions []Mention
	Err      error
}

// Verify interface compliance
var _ notify.Dispatcher = (*MockDispatcher)(nil)

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{Mentions: make([]Mention, 0)}
}

func (m *MockDispatcher) Notify(ctx context.Context, userID string, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Mentions = append(m.Mentions, Mention{UserID: userID, PostID: post.ID})
	return nil
}

// MockPinger is a mock implementation of feed.Pinger
type MockPinger struct {
	mu    sync.Mutex
	Calls int
	Err   error
}

// Verify interface compliance
var _ feed.Pinger = (*MockPinger)(nil)

func (m *MockPinger) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.Err
}
