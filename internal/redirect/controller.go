package redirect

import (
	"context"

	"aula-lms/internal/observability"
	"aula-lms/internal/session"
)

// Navigator moves the client to a path
type Navigator interface {
	Navigate(path string)
}

// Source is the part of session.Manager the controller observes
type Source interface {
	Ready() <-chan struct{}
	Subscribe() (<-chan session.State, func())
}

// Controller navigates to the destination Decide picks for every session
// change, once hydration has completed.
type Controller struct {
	source Source
	nav    Navigator
	last   string
}

func NewController(source Source, nav Navigator) *Controller {
	return &Controller{source: source, nav: nav}
}

// Run blocks until ctx is done or the session store is closed. Navigation
// happens only when the destination differs from the previous one.
func (c *Controller) Run(ctx context.Context) error {
	logger := observability.FromContext(ctx)

	select {
	case <-c.source.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	states, unsubscribe := c.source.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st, ok := <-states:
			if !ok {
				logger.Debug("session closed, redirect controller stopping")
				return nil
			}
			c.apply(ctx, FlagsFrom(st))
		}
	}
}

func (c *Controller) apply(ctx context.Context, f Flags) {
	dest, ok := Decide(f)
	if !ok || dest == c.last {
		return
	}

	observability.FromContext(ctx).Info("redirecting",
		"phase", Classify(f).String(),
		"from", c.last,
		"to", dest,
	)
	c.last = dest
	c.nav.Navigate(dest)
}
