package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/arloliu/strpack/errs"
)

// S2Compressor wraps klauspost S2, a faster Snappy successor. It is only a
// comparison codec for the stats command; its output is not an LZ4 block.
type S2Compressor struct {
	better bool
}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 compressor using the default encoder.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// NewS2BetterCompressor creates an S2 compressor that trades speed for a
// better ratio.
func NewS2BetterCompressor() S2Compressor {
	return S2Compressor{better: true}
}

// Compress compresses data as one S2 block.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if c.better {
		return s2.EncodeBetter(nil, data), nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes an S2 block. The decoded length stored in the block
// header is checked before any allocation.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptBlock, err)
	}
	if n > blockMaxDecodeSize {
		return nil, fmt.Errorf("%w: block expands to %d bytes", errs.ErrCorruptBlock, n)
	}

	out, err := s2.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptBlock, err)
	}

	return out, nil
}
