package compress

import (
	"fmt"
	"time"

	"github.com/arloliu/strpack/format"
)

// Compressor compresses a byte sequence.
//
// The input is typically the full plain serialized string, a few hundred bytes
// to a few megabytes of printable ASCII.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is newly allocated and owned by the caller
	//   - Input slice is not modified
	//   - Internal buffers may be reused for efficiency
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Example:
//
//	decompressor := NewS2Compressor()
//	originalData, err := decompressor.Decompress(compressedPayload)
//	if err != nil {
//	    return fmt.Errorf("decompression failed: %w", err)
//	}
//
// Thread Safety: Decompressor implementations must be safe for concurrent use
// or document their thread safety requirements clearly.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// Error conditions:
	//   - Returns error if input data is corrupted or invalid
	//   - Returns error if data was compressed with incompatible algorithm
	//
	// The returned slice is newly allocated and owned by the caller.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// SizedDecompressor decodes data whose decoded size is known up front and
// must match exactly.
type SizedDecompressor interface {
	DecompressSize(data []byte, size int) ([]byte, error)
}

// CompressionStats describes one compression round trip.
//
// The stats command of the CLI reports it for every codec.
type CompressionStats struct {
	// Algorithm identifies the compression algorithm used
	Algorithm format.CompressionType

	// OriginalSize is the size of input data before compression
	OriginalSize int64

	// CompressedSize is the size of data after compression
	CompressedSize int64

	// CompressionTimeNs is the time taken to compress the data
	CompressionTimeNs int64

	// DecompressionTimeNs is the time taken to decompress the data (if applicable)
	DecompressionTimeNs int64
}

// CompressionRatio returns the compression ratio (compressed size / original size).
//
// Values less than 1.0 indicate successful compression.
// Values equal to 1.0 indicate no compression benefit.
// Values greater than 1.0 indicate compression overhead.
//
// Returns:
//   - float64: Compression ratio (0.0 if original size is zero)
func (s CompressionStats) CompressionRatio() float64 {
	if s.OriginalSize == 0 {
		return 0.0
	}

	return float64(s.CompressedSize) / float64(s.OriginalSize)
}

// SpaceSavings returns the space savings as a percentage.
//
// Higher values indicate better compression.
//
// Returns:
//   - float64: Space savings percentage (negative when output grew)
func (s CompressionStats) SpaceSavings() float64 {
	return (1.0 - s.CompressionRatio()) * 100.0
}

// Measure compresses data with codec, decompresses the result, verifies the
// round trip and reports sizes and timings.
//
// Parameters:
//   - algorithm: Compression type recorded in the stats
//   - codec: Codec to measure
//   - data: Input bytes
//
// Returns:
//   - CompressionStats: Sizes and timings of the round trip
//   - error: Codec error, or a mismatch between input and decoded output
func Measure(algorithm format.CompressionType, codec Codec, data []byte) (CompressionStats, error) {
	stats := CompressionStats{Algorithm: algorithm, OriginalSize: int64(len(data))}

	start := time.Now()
	compressed, err := codec.Compress(data)
	if err != nil {
		return stats, fmt.Errorf("%s compression: %w", algorithm, err)
	}
	stats.CompressionTimeNs = time.Since(start).Nanoseconds()
	stats.CompressedSize = int64(len(compressed))

	start = time.Now()
	decoded, err := codec.Decompress(compressed)
	if err != nil {
		return stats, fmt.Errorf("%s decompression: %w", algorithm, err)
	}
	stats.DecompressionTimeNs = time.Since(start).Nanoseconds()

	if len(decoded) != len(data) || string(decoded) != string(data) {
		return stats, fmt.Errorf("%s round trip mismatch: %d bytes in, %d bytes out", algorithm, len(data), len(decoded))
	}

	return stats, nil
}

// CreateCodec is a factory function that creates a Codec based on the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, LZ4 or Block)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionBlock:
		return NewBlockCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone:  NewNoOpCompressor(),
	format.CompressionZstd:  NewZstdCompressor(),
	format.CompressionS2:    NewS2Compressor(),
	format.CompressionLZ4:   NewLZ4Compressor(),
	format.CompressionBlock: NewBlockCompressor(),
}

// BuiltinTypes lists the compression types GetCodec knows, in a stable order.
var BuiltinTypes = []format.CompressionType{
	format.CompressionNone,
	format.CompressionBlock,
	format.CompressionLZ4,
	format.CompressionS2,
	format.CompressionZstd,
}

// GetCodec retrieves a built-in Codec for the specified compression type.
// Every built-in codec is safe for concurrent use.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
