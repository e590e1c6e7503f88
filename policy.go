package strpack

import (
	"fmt"
	"log/slog"

	"github.com/arloliu/strpack/compress"
	"github.com/arloliu/strpack/errs"
	"github.com/arloliu/strpack/format"
	"github.com/arloliu/strpack/internal/serial"
	"github.com/arloliu/strpack/value"
)

// Keys of the record carried by the compressed form.
const (
	compressedSizeKey = "size"
	compressedDataKey = "data"
)

// The compressed form is kept when its length is at most
// compressionNumerator/compressionDenominator of the plain length.
const (
	compressionNumerator   = 17
	compressionDenominator = 20
)

// CompressionThreshold is the largest ratio of compressed to plain length at
// which the compressed form is returned.
const CompressionThreshold = float64(compressionNumerator) / compressionDenominator

// serialize encodes v and, when requested, replaces the result by its
// compressed form if that is small enough.
func serialize(block *compress.BlockCodec, logger *slog.Logger, v any, compressed bool) (string, error) {
	plain, err := serial.Encode(v)
	if err != nil {
		return "", err
	}
	if !compressed {
		return plain, nil
	}

	packed, err := compressPlain(block, plain)
	if err != nil {
		logger.Warn("compression failed, returning plain form", "size", len(plain), "error", err)
		return plain, nil
	}
	if len(packed)*compressionDenominator > len(plain)*compressionNumerator {
		return plain, nil
	}

	return packed, nil
}

// compressPlain builds the compressed form of a plain serialized string.
// Panics of the compressor are reported as errors.
func compressPlain(block *compress.BlockCodec, plain string) (packed string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compressor panicked: %v", r)
		}
	}()

	data, err := block.Compress([]byte(plain))
	if err != nil {
		return "", err
	}

	rec := value.NewRecord().
		Set(compressedSizeKey, int64(len(plain))).
		Set(compressedDataKey, value.BufferOf(data))

	return serial.EncodePrefixed(format.CompressedPrefix, rec)
}

// deserialize decodes either form. maxDecoded bounds the byte buffers of
// each decoded string and the decompressed form.
func deserialize(block *compress.BlockCodec, s string, maxDecoded int) (any, error) {
	switch {
	case format.IsPlain(s):
		return serial.DecodeWithLimit(format.PlainPrefix, s, maxDecoded)
	case format.IsCompressed(s):
		return decompress(block, s, maxDecoded)
	default:
		return nil, errs.ErrUnrecognizedFormat
	}
}

func decompress(block *compress.BlockCodec, s string, maxDecoded int) (any, error) {
	v, err := serial.DecodeWithLimit(format.CompressedPrefix, s, maxDecoded)
	if err != nil {
		return nil, err
	}

	size, data, err := compressedParts(v)
	if err != nil {
		return nil, err
	}
	if size > maxDecoded {
		return nil, fmt.Errorf("%w: decompressed size %d exceeds the decode limit of %d",
			errs.ErrMalformedPayload, size, maxDecoded)
	}

	plain, err := block.DecompressSize(data, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrMalformedPayload, err)
	}
	if !format.IsPlain(string(plain)) {
		return nil, fmt.Errorf("%w: compressed content lacks the plain prefix", errs.ErrMalformedPayload)
	}

	return serial.DecodeWithLimit(format.PlainPrefix, string(plain), maxDecoded)
}

// compressedParts validates the record of a compressed form.
func compressedParts(v any) (int, []byte, error) {
	rec, ok := v.(*value.Record)
	if !ok || rec.Len() != 2 {
		return 0, nil, fmt.Errorf("%w: compressed form holds %T", errs.ErrMalformedPayload, v)
	}

	rawSize, _ := rec.Get(compressedSizeKey)
	size, ok := rawSize.(int64)
	if !ok || size < 0 {
		return 0, nil, fmt.Errorf("%w: invalid decompressed size %v", errs.ErrMalformedPayload, rawSize)
	}

	rawData, _ := rec.Get(compressedDataKey)
	buf, ok := rawData.(*value.Buffer)
	if !ok {
		return 0, nil, fmt.Errorf("%w: compressed data of type %T", errs.ErrMalformedPayload, rawData)
	}

	// A block expands at most 255 times, so larger sizes cannot be genuine.
	if size > int64(len(buf.Data))*255+16 {
		return 0, nil, fmt.Errorf("%w: decompressed size %d for %d compressed bytes",
			errs.ErrMalformedPayload, size, len(buf.Data))
	}

	return int(size), buf.Data, nil
}
