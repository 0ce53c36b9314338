package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("store: record not found")

// Backend is a byte-oriented key/value store. Get returns ErrNotFound for a
// missing key; Delete of a missing key is not an error.
type Backend interface {
	Driver() string
	Get(ctx context.Context, key []byte) ([]byte, error)
	Put(ctx context.Context, key, value []byte) error
	Delete(ctx context.Context, key []byte) error
	// Keys lists keys with prefix in ascending order.
	Keys(ctx context.Context, prefix []byte) ([][]byte, error)
	Close() error
}

// OpenBackend opens the backend named by driver ("pebble", "sqlite" or
// "memory") at path. The memory driver ignores path.
func OpenBackend(driver, path string) (Backend, error) {
	switch driver {
	case "pebble":
		return OpenPebble(path)
	case "memory":
		return OpenMemory()
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
