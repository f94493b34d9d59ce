package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is a flat string-keyed store. Values are opaque strings.
// Writes are last-write-wins; there are no multi-key transactions.
type Store interface {
	// Get returns the value for key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes keys. Missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Keys lists every key in the store.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
