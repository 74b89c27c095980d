package store

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"lumera/internal/types"
)

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// CompressedStore zstd-compresses blobs on their way into another Store.
// Values written before compression was enabled are returned as-is.
type CompressedStore struct {
	inner   types.Store
	encoder *zstd.Encoder

	decoderPool sync.Pool
}

// NewCompressedStore wraps inner.
func NewCompressedStore(inner types.Store) (*CompressedStore, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &CompressedStore{
		inner:   inner,
		encoder: enc,
		decoderPool: sync.Pool{
			New: func() any {
				d, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
				if err != nil {
					panic(fmt.Sprintf("failed to create zstd decoder: %v", err))
				}
				return d
			},
		},
	}, nil
}

// Get implements types.Store.
func (s *CompressedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, found, err := s.inner.Get(ctx, key)
	if err != nil || !found {
		return raw, found, err
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		return raw, true, nil
	}

	decoder := s.decoderPool.Get().(*zstd.Decoder)
	defer s.decoderPool.Put(decoder)

	out, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, false, storageErr("decompress", key, err)
	}
	return out, true, nil
}

// Set implements types.Store.
func (s *CompressedStore) Set(ctx context.Context, key string, data []byte) error {
	return s.inner.Set(ctx, key, s.encoder.EncodeAll(data, nil))
}
