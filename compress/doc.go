// Package compress provides the block compressor used by strpack's compressed
// form and a set of reference codecs to compare it against.
//
// # Overview
//
// The compressed form of a serialized string stores an LZ4 block. The
// package implements that block format itself in BlockCodec, and wraps
// established libraries for comparison:
//   - Block: built-in LZ4 block codec, the only one on the wire
//   - LZ4: pierrec/lz4 block codec, same format as Block
//   - S2: klauspost S2, fast with good ratio
//   - Zstd: klauspost zstd, best ratio, slowest
//   - None: pass-through baseline
//
// # Architecture
//
// Every codec implements the same pair of interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
// Block codecs also implement SizedDecompressor, which decodes into a buffer
// of an exact expected size and fails when the block decodes to anything else.
//
// # Block Codec
//
//	codec := compress.NewBlockCodec()
//	block, _ := codec.Compress(data)
//	original, err := codec.DecompressSize(block, len(data))
//
// A BlockCodec carries a 64K entry position table and is not safe for
// concurrent use. Background workers each own one; other callers use
// BlockCompressor, which borrows instances from a sync.Pool:
//
//	codec, _ := compress.GetCodec(format.CompressionBlock)
//	block, _ := codec.Compress(data)
//
// Blocks produced by BlockCodec decode with any LZ4 block decoder and
// BlockCodec decodes blocks produced by other LZ4 encoders.
//
// # Error Handling
//
// Block decoding fails with errs.ErrInvalidOffset when a match points before
// the start of the output or has offset zero, and with errs.ErrCorruptBlock
// when the block is truncated or decodes to an unexpected size. The
// reference codecs return their library errors.
//
// # Statistics
//
// Measure runs one round trip and reports CompressionStats; the strpack CLI
// uses it to print a per-codec comparison for a serialized input.
package compress
