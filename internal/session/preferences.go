package session

import (
	"context"
	"errors"

	"aula-lms/internal/storage"
)

// Preferences holds device-level UI flags that outlive a session.
type Preferences struct {
	store storage.Store
}

func NewPreferences(store storage.Store) *Preferences {
	return &Preferences{store: store}
}

// SecurityBannerDismissed reports whether the security recommendation banner
// was dismissed on this device. Read failures count as not dismissed.
func (p *Preferences) SecurityBannerDismissed(ctx context.Context) bool {
	v, err := p.store.Get(ctx, storage.KeySecurityBannerDismissed)
	if err != nil {
		return false
	}
	return v == "true"
}

func (p *Preferences) DismissSecurityBanner(ctx context.Context) error {
	return p.store.Set(ctx, storage.KeySecurityBannerDismissed, "true")
}

func (p *Preferences) ResetSecurityBanner(ctx context.Context) error {
	err := p.store.Delete(ctx, storage.KeySecurityBannerDismissed)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}
