package querycache

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aula-lms/internal/domain"
)

// Options configure a Client. Zero durations and a nil Clock take the
// defaults; MaxRetries is used as given, so start from DefaultOptions.
type Options struct {
	// StaleTime is how long fetched data counts as fresh.
	StaleTime time.Duration
	// GCTime is how long an entry may go unobserved before it is evicted.
	GCTime time.Duration
	// MaxRetries bounds retries after the first failed attempt.
	MaxRetries int
	// RetryDelay is the first backoff interval; it doubles up to 30s.
	RetryDelay time.Duration
	// JanitorInterval is how often idle entries are swept. Zero disables
	// the background janitor; Sweep can still be called directly.
	JanitorInterval time.Duration
	// Clock replaces time.Now in tests.
	Clock func() time.Time
}

const (
	DefaultStaleTime  = 5 * time.Minute
	DefaultGCTime     = 10 * time.Minute
	DefaultMaxRetries = 3

	maxRetryDelay = 30 * time.Second
)

// DefaultOptions is the shared policy: five minutes fresh, ten minutes idle
// eviction, three retries with a one second initial backoff.
func DefaultOptions() Options {
	return Options{
		StaleTime:       DefaultStaleTime,
		GCTime:          DefaultGCTime,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      time.Second,
		JanitorInterval: time.Minute,
		Clock:           time.Now,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StaleTime <= 0 {
		o.StaleTime = d.StaleTime
	}
	if o.GCTime <= 0 {
		o.GCTime = d.GCTime
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.Clock == nil {
		o.Clock = d.Clock
	}
	return o
}

// Retryable reports whether a failed fetch may be attempted again. Missing
// resources and rejected credentials are final; so is cancellation.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch domain.StatusCode(err) {
	case http.StatusNotFound, http.StatusUnauthorized:
		return false
	}
	return true
}
