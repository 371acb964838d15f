package middleware_test

import (
	"context"
	"time"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data   map[string][]byte
	closed bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]byte),
	}
}

func (s *MockStore) Write(ctx context.Context, sessionID string, value []byte) error {
	s.data[sessionID] = value
	return nil
}

func (s *MockStore) Read(ctx context.Context, sessionID string) ([]byte, error) {
	return s.data[sessionID], nil
}

func (s *MockStore) Destroy(ctx context.Context, sessionID string) error {
	delete(s.data, sessionID)
	return nil
}

func (s *MockStore) GC(ctx context.Context, maxLifetime time.Duration) error { return nil }

func (s *MockStore) Close() error {
	s.closed = true
	return nil
}
