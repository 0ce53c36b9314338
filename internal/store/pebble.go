package store

import (
	"context"
	"errors"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

type PebbleBackend struct {
	db     *pebble.DB
	driver string
}

func OpenPebble(path string) (*PebbleBackend, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleBackend{db: db, driver: "pebble"}, nil
}

// OpenMemory opens pebble over an in-memory filesystem. Contents are lost on
// Close.
func OpenMemory() (*PebbleBackend, error) {
	db, err := pebble.Open("mem", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &PebbleBackend{db: db, driver: "memory"}, nil
}

func (p *PebbleBackend) Driver() string {
	return p.driver
}

func (p *PebbleBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (p *PebbleBackend) Put(ctx context.Context, key, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *PebbleBackend) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *PebbleBackend) Keys(ctx context.Context, prefix []byte) ([][]byte, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		out = append(out, key)
	}
	return out, iter.Error()
}

func (p *PebbleBackend) Close() error {
	return p.db.Close()
}
