// Package encoding implements the low-level building blocks of the strpack
// wire format: numerals and the byte-buffer sub-codec.
//
// # Numerals
//
// A numeral is a non-negative integer written as base-88 digits drawn from
// format.Alphabet, least significant digit first, terminated by
// format.Separator:
//
//	0      -> "!,"
//	87     -> "~,"
//	88     -> "!#,"
//	7744   -> "!!#,"
//
// Counts small enough to fit a single digit are written with AppendDigit and
// carry no separator; callers choose the form through the short/long tags.
//
// # Byte buffers
//
// A byte buffer is viewed as little-endian 32-bit words. Trailing all-zero
// words are trimmed, then the remaining words are written either densely
// (exactly five digits per word) or sparsely (one digit per zero word, a
// sign digit plus a numeral otherwise), whichever is estimated to be shorter:
//
//	<flag digit><total length numeral><word count numeral><words...>
//
// # Reading
//
// Reader is a cursor over an encoded string. All Read methods return an
// error wrapping errs.ErrMalformedPayload when the input is truncated or
// contains characters outside the alphabet.
package encoding
