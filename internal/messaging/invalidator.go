package messaging

import (
	"context"

	"aula-lms/internal/observability"
	"aula-lms/internal/querycache"
)

// CacheInvalidator marks the cache domain named by each event stale, so
// watchers refetch changes made elsewhere.
type CacheInvalidator struct {
	cache   *querycache.Client
	domains map[string]bool
}

// NewCacheInvalidator only acts on the listed domains; events for others
// are ignored.
func NewCacheInvalidator(cache *querycache.Client, domains []string) *CacheInvalidator {
	known := make(map[string]bool, len(domains))
	for _, d := range domains {
		known[d] = true
	}
	return &CacheInvalidator{cache: cache, domains: known}
}

func (i *CacheInvalidator) HandleEvent(ctx context.Context, ev Event) {
	logger := observability.FromContext(ctx)

	if !i.domains[ev.Domain] {
		logger.Debug("ignoring event for unknown domain", "type", ev.Type, "domain", ev.Domain)
		return
	}

	observability.EventsConsumed.WithLabelValues(ev.Domain).Inc()
	n := i.cache.Invalidate(querycache.NewKey(ev.Domain))
	logger.Debug("invalidated cache domain",
		"type", ev.Type,
		"domain", ev.Domain,
		"id", ev.ID,
		"entries", n,
	)
}
