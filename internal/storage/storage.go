// Package storage persists small string values on the device: the session
// token, the serialized user and UI preferences.
package storage

import (
	"context"
	"errors"
)

// Keys used by the client
const (
	KeyToken                   = "aula.token"
	KeyUser                    = "aula.user"
	KeySecurityBannerDismissed = "aula.security_banner_dismissed"
)

var ErrNotFound = errors.New("key not found")

// Store is a flat key/value store. Get returns ErrNotFound for absent keys;
// Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
