package format

// CompressionType identifies a block compression algorithm.
//
// Only CompressionBlock participates in the wire format; the other types are
// reference codecs used for comparison and interop.
type CompressionType uint8

const (
	CompressionNone  CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd  CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2    CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4   CompressionType = 0x4 // CompressionLZ4 represents the pierrec LZ4 block codec.
	CompressionBlock CompressionType = 0x5 // CompressionBlock represents the built-in LZ4-compatible block codec.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionBlock:
		return "Block"
	default:
		return "Unknown"
	}
}
