// Package store defines the byte-oriented key/value contract used to persist
// the profile document and user preferences.
package store

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("store closed")

// Store persists opaque blobs under string keys. A missing key is reported
// with ok=false and a nil error: absence is an expected state.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}
