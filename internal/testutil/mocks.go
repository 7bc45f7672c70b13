// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the aula-lms packages.
package testutil

import (
	"context"
	"errors"
	"sync"

	"aula-lms/internal/domain"
	"aula-lms/internal/storage"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
	ErrMockStorage        = errors.New("mock: storage unavailable")
)

// MockAuthenticator implements session.Authenticator for testing
type MockAuthenticator struct {
	mu sync.Mutex

	// Function override - set to customize behavior
	LoginFunc func(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error)

	Calls []domain.Credentials
}

func (m *MockAuthenticator) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, creds)
	m.mu.Unlock()

	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, ErrMockNotImplemented
}

// MockStore wraps a MemoryStore and lets tests inject failures per operation
type MockStore struct {
	*storage.MemoryStore

	GetErr    error
	SetErr    error
	DeleteErr error
}

// NewMockStore creates a MockStore with no injected failures
func NewMockStore() *MockStore {
	return &MockStore{MemoryStore: storage.NewMemoryStore()}
}

func (m *MockStore) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	return m.MemoryStore.Get(ctx, key)
}

func (m *MockStore) Set(ctx context.Context, key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	return m.MemoryStore.Set(ctx, key, value)
}

// Delete always clears the in-memory values before reporting DeleteErr, so
// tests can check that callers do not depend on the error.
func (m *MockStore) Delete(ctx context.Context, keys ...string) error {
	_ = m.MemoryStore.Delete(ctx, keys...)
	return m.DeleteErr
}

// MockNotifier records transient notifications
type MockNotifier struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (m *MockNotifier) Success(msg string) {
	m.mu.Lock()
	m.Successes = append(m.Successes, msg)
	m.mu.Unlock()
}

func (m *MockNotifier) Error(msg string) {
	m.mu.Lock()
	m.Errors = append(m.Errors, msg)
	m.mu.Unlock()
}

// LastError returns the most recent error message or ""
func (m *MockNotifier) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Errors) == 0 {
		return ""
	}
	return m.Errors[len(m.Errors)-1]
}

// MockNavigator records every path it is asked to navigate to
type MockNavigator struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

// NewMockNavigator creates a navigator whose Navigated channel receives each path
func NewMockNavigator() *MockNavigator {
	return &MockNavigator{ch: make(chan string, 64)}
}

func (m *MockNavigator) Navigate(path string) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	select {
	case m.ch <- path:
	default:
	}
}

// Navigated delivers paths as they are navigated to
func (m *MockNavigator) Navigated() <-chan string {
	return m.ch
}

// Paths returns a copy of every navigated path in order
func (m *MockNavigator) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.paths))
	copy(out, m.paths)
	return out
}
