package format

import "strings"

const (
	// Version is the wire format version embedded after the magic.
	// Deserialization requires an exact match.
	Version = 1

	// PlainMagic starts an uncompressed serialized string.
	PlainMagic = "$sp"

	// CompressedMagic starts a serialized string whose payload is an LZ4 block.
	CompressedMagic = "$lz"
)

var (
	// PlainPrefix is PlainMagic followed by the version numeral.
	PlainPrefix = PlainMagic + versionNumeral()

	// CompressedPrefix is CompressedMagic followed by the version numeral.
	CompressedPrefix = CompressedMagic + versionNumeral()
)

// versionNumeral spells Version as a numeral; Version is below Base so it
// takes a single digit.
func versionNumeral() string {
	return string([]byte{Alphabet[Version], Separator})
}

// IsPlain reports whether s carries the uncompressed prefix.
func IsPlain(s string) bool {
	return strings.HasPrefix(s, PlainPrefix)
}

// IsCompressed reports whether s carries the compressed prefix.
func IsCompressed(s string) bool {
	return strings.HasPrefix(s, CompressedPrefix)
}
