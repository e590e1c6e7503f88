package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/strpack/errs"
)

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor wraps the pierrec LZ4 block codec.
//
// It produces the same block format as BlockCodec and is the reference the
// built-in codec is checked against: blocks written by either decode with
// the other.
type LZ4Compressor struct{}

var (
	_ Codec             = (*LZ4Compressor)(nil)
	_ SizedDecompressor = (*LZ4Compressor)(nil)
)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data into one LZ4 block using a pooled lz4.Compressor.
//
// Returns:
//   - []byte: Compressed block (nil if input is empty)
//   - error: Compression error if any
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// pierrec reports incompressible input with a zero length; emit it
		// as a literal-only block so the result always decodes.
		return appendLastLiterals(make([]byte, 0, BlockCompressBound(len(data))), data), nil
	}

	return dst[:n], nil
}

// Decompress decodes a block of unknown decoded size, growing the output
// buffer the same way BlockCodec.Decompress does.
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: errs.ErrCorruptBlock when the block is invalid or expands
//     beyond 128MB
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// pierrec reports every malformed block as a short buffer, so growth is
	// capped at the largest expansion a block of this length can encode.
	limit := min(len(data)*255+16, blockMaxDecodeSize)
	bufSize := min(max(len(data)*4, 64), limit)
	for {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err == nil {
			return buf[:n], nil
		}
		if !errors.Is(err, lz4.ErrInvalidSourceShortBuffer) || bufSize >= limit {
			return nil, fmt.Errorf("%w: %w", errs.ErrCorruptBlock, err)
		}
		bufSize = min(bufSize*2, limit)
	}
}

// DecompressSize decodes a block that must expand to exactly size bytes.
func (c LZ4Compressor) DecompressSize(data []byte, size int) ([]byte, error) {
	if size < 0 || size > blockMaxInputSize {
		return nil, fmt.Errorf("%w: invalid decoded size %d", errs.ErrCorruptBlock, size)
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrCorruptBlock, err)
	}
	if n != size {
		return nil, fmt.Errorf("%w: decoded %d bytes, want %d", errs.ErrCorruptBlock, n, size)
	}

	return buf, nil
}
