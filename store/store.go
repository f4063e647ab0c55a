// Package store provides the string key-value storage the session controller
// persists into. Backends are interchangeable; the controller is the only
// writer of its keys.
package store

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing key. Callers distinguish it from real I/O
// failures: a missing key is a normal empty state, not an error to surface.
var ErrNotFound = errors.New("store: key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
