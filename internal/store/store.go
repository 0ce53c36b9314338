// Package store persists records as framed, scheme-encoded values keyed by
// "<type>/<key>".
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/danmuck/recwire/internal/logging"
	"github.com/danmuck/recwire/internal/observability"
	"github.com/danmuck/recwire/internal/protocol"
	"github.com/danmuck/recwire/internal/protocol/frame"
	"github.com/danmuck/recwire/internal/record"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

var (
	ErrUnknownType  = errors.New("store: unknown record type")
	ErrInvalidKey   = errors.New("store: invalid key")
	ErrTypeMismatch = errors.New("store: stored frame holds a different type")
	ErrBadScheme    = errors.New("store: stored frame names an out of range scheme")
)

type Options struct {
	Scheme         record.Scheme
	Compress       bool
	ProtocolLimits protocol.Limits
	FrameLimits    frame.Limits
}

func DefaultOptions() Options {
	return Options{
		Scheme:         record.SchemeTagged,
		ProtocolLimits: protocol.DefaultLimits(),
		FrameLimits:    frame.DefaultLimits(),
	}
}

// RecordStore is safe for concurrent use.
type RecordStore struct {
	backend Backend
	types   *record.Registry
	opts    Options
	enc     *zstd.Encoder
	dec     *zstd.Decoder
	seq     atomic.Uint64
	log     zerolog.Logger
}

func New(backend Backend, types *record.Registry, opts Options) (*RecordStore, error) {
	if opts.Scheme != record.SchemeTagged && opts.Scheme != record.SchemeCompact {
		return nil, record.UnknownSchemeError{Scheme: opts.Scheme}
	}
	if opts.FrameLimits == (frame.Limits{}) {
		opts.FrameLimits = frame.DefaultLimits()
	}
	if opts.ProtocolLimits == (protocol.Limits{}) {
		opts.ProtocolLimits = protocol.DefaultLimits()
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("store: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(opts.FrameLimits.MaxPayloadBytes))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("store: zstd decoder: %w", err)
	}
	return &RecordStore{
		backend: backend,
		types:   types,
		opts:    opts,
		enc:     enc,
		dec:     dec,
		log:     logging.Component("store"),
	}, nil
}

func (s *RecordStore) Types() *record.Registry {
	return s.types
}

func (s *RecordStore) Driver() string {
	return s.backend.Driver()
}

// Create stores r under a generated ksuid key and returns the key.
func (s *RecordStore) Create(ctx context.Context, r *record.Record) (string, error) {
	key := ksuid.New().String()
	if err := s.Put(ctx, key, r); err != nil {
		return "", err
	}
	return key, nil
}

// Put validates, encodes and stores r under key, replacing any previous value.
func (s *RecordStore) Put(ctx context.Context, key string, r *record.Record) (err error) {
	start := time.Now()
	defer func() { s.observe("put", start, err) }()

	if _, ok := s.types.Lookup(r.TypeName()); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, r.TypeName())
	}
	storeKey, err := storageKey(r.TypeName(), key)
	if err != nil {
		return err
	}
	value, err := s.encode(r)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, storeKey, value); err != nil {
		return fmt.Errorf("store: put %s: %w", storeKey, err)
	}
	s.log.Debug().Str("key", string(storeKey)).Int("bytes", len(value)).Msg("record stored")
	return nil
}

// Get loads and decodes the record stored for typeName/key.
func (s *RecordStore) Get(ctx context.Context, typeName, key string) (rec *record.Record, err error) {
	start := time.Now()
	defer func() { s.observe("get", start, err) }()

	desc, ok := s.types.Lookup(typeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	f, err := s.load(ctx, typeName, key)
	if err != nil {
		return nil, err
	}
	scheme := record.Scheme(f.Header.Scheme)
	rec, err = record.UnmarshalWithLimits(f.Payload, desc, scheme, s.opts.ProtocolLimits)
	if err != nil {
		return nil, fmt.Errorf("store: decode %s/%s: %w", typeName, key, err)
	}
	observability.RecordCodecBytes(typeName, scheme.String(), "decode", len(f.Payload))
	return rec, nil
}

// GetFrame returns the stored frame with its payload decompressed.
func (s *RecordStore) GetFrame(ctx context.Context, typeName, key string) (f frame.Frame, err error) {
	start := time.Now()
	defer func() { s.observe("get_frame", start, err) }()
	return s.load(ctx, typeName, key)
}

func (s *RecordStore) Delete(ctx context.Context, typeName, key string) (err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()

	storeKey, err := storageKey(typeName, key)
	if err != nil {
		return err
	}
	if _, err := s.backend.Get(ctx, storeKey); err != nil {
		return err
	}
	return s.backend.Delete(ctx, storeKey)
}

// List returns the keys stored for typeName in ascending order.
func (s *RecordStore) List(ctx context.Context, typeName string) (keys []string, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, err) }()

	prefix := []byte(typeName + "/")
	raw, err := s.backend.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys = make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, string(k[len(prefix):]))
	}
	return keys, nil
}

func (s *RecordStore) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.backend.Close()
}

func (s *RecordStore) encode(r *record.Record) ([]byte, error) {
	payload, err := record.Marshal(r, s.opts.Scheme)
	if err != nil {
		return nil, err
	}
	observability.RecordCodecBytes(r.TypeName(), s.opts.Scheme.String(), "encode", len(payload))

	var flags uint32
	if s.opts.Compress {
		payload = s.enc.EncodeAll(payload, nil)
		flags |= frame.FlagCompressed
	}
	var buf bytes.Buffer
	err = frame.WriteFrame(&buf, frame.Frame{
		Header: frame.Header{
			MessageID: s.seq.Add(1),
			Scheme:    uint32(s.opts.Scheme),
			Flags:     flags,
		},
		TypeName: r.TypeName(),
		Payload:  payload,
	}, s.opts.FrameLimits)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *RecordStore) load(ctx context.Context, typeName, key string) (frame.Frame, error) {
	storeKey, err := storageKey(typeName, key)
	if err != nil {
		return frame.Frame{}, err
	}
	raw, err := s.backend.Get(ctx, storeKey)
	if err != nil {
		return frame.Frame{}, err
	}
	f, err := frame.ReadFrame(bytes.NewReader(raw), s.opts.FrameLimits)
	if err != nil {
		return frame.Frame{}, fmt.Errorf("store: read frame %s: %w", storeKey, err)
	}
	if f.TypeName != typeName {
		return frame.Frame{}, fmt.Errorf("%w: %s holds %s", ErrTypeMismatch, storeKey, f.TypeName)
	}
	if f.Header.Scheme > math.MaxUint8 {
		return frame.Frame{}, fmt.Errorf("%w: %s has scheme %d", ErrBadScheme, storeKey, f.Header.Scheme)
	}
	if f.Compressed() {
		payload, err := s.dec.DecodeAll(f.Payload, nil)
		if err != nil {
			return frame.Frame{}, fmt.Errorf("store: decompress %s: %w", storeKey, err)
		}
		f.Payload = payload
		f.Header.Flags &^= frame.FlagCompressed
		f.Header.PayloadLen = uint64(len(payload))
	}
	return f, nil
}

func (s *RecordStore) observe(op string, start time.Time, err error) {
	ok := err == nil || errors.Is(err, ErrNotFound)
	observability.RecordStoreOp(s.backend.Driver(), op, time.Since(start), ok)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.log.Debug().Err(err).Str("op", op).Msg("store operation failed")
	}
}

func storageKey(typeName, key string) ([]byte, error) {
	if typeName == "" || strings.Contains(typeName, "/") {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidKey, typeName)
	}
	if key == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return []byte(typeName + "/" + key), nil
}
